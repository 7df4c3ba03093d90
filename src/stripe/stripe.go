// Package stripe persists tables as per-chunk stripe files plus a JSON
// manifest. Each stripe holds one snappy-compressed block per column, framed
// with a checksum so that torn files are caught on read. Stripes are an
// export/import format - the engine itself stays in-memory.
package stripe

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/marsik/chunky/src/storage"
)

var errChecksumMismatch = errors.New("stripe block checksum mismatch")
var errSchemaMismatch = errors.New("stripe block count does not match the schema")

const manifestFilename = "manifest.json"

// Manifest describes a persisted table: its schema and the stripe files
// holding its chunks, in chunk order.
type Manifest struct {
	Name            string         `json:"name"`
	Schema          storage.Schema `json:"schema"`
	NRows           uint64         `json:"nrows"`
	TargetChunkSize uint32         `json:"target_chunk_size"`
	Stripes         []string       `json:"stripes"`
}

// Write persists a table into a directory, one stripe file per chunk, and
// returns the manifest it wrote. Mutable chunks are written as-is; callers
// wanting compressed stripes compress the chunks first.
func Write(dir string, name string, table *storage.Table) (*Manifest, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	manifest := &Manifest{
		Name:            name,
		Schema:          table.Schema(),
		NRows:           table.RowCount(),
		TargetChunkSize: uint32(table.TargetChunkSize()),
	}
	for chunkID := 0; chunkID < table.ChunkCount(); chunkID++ {
		filename := uuid.NewString() + ".stripe"
		if err := writeStripeFile(filepath.Join(dir, filename), table.GetChunk(storage.ChunkID(chunkID))); err != nil {
			return nil, err
		}
		manifest.Stripes = append(manifest.Stripes, filename)
	}

	f, err := os.Create(filepath.Join(dir, manifestFilename))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeStripeFile(path string, chunk *storage.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	for columnID := 0; columnID < chunk.ColumnCount(); columnID++ {
		buf.Reset()
		if err := storage.SerializeSegment(buf, chunk.GetSegment(storage.ColumnID(columnID))); err != nil {
			return err
		}
		block := snappy.Encode(nil, buf.Bytes())
		if err := binary.Write(f, binary.LittleEndian, crc32.ChecksumIEEE(block)); err != nil {
			return err
		}
		if err := binary.Write(f, binary.LittleEndian, uint32(len(block))); err != nil {
			return err
		}
		if _, err := f.Write(block); err != nil {
			return err
		}
	}
	return nil
}

// Read loads a table previously written by Write and returns it along with
// its registered name. All chunks come back sealed.
func Read(dir string) (string, *storage.Table, error) {
	f, err := os.Open(filepath.Join(dir, manifestFilename))
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	var manifest Manifest
	if err := json.NewDecoder(f).Decode(&manifest); err != nil {
		return "", nil, err
	}

	table := storage.NewTable(storage.ChunkOffset(manifest.TargetChunkSize))
	for _, col := range manifest.Schema {
		table.AddColumn(col.Name, col.Dtype.String(), col.Nullable)
	}
	for _, stripeFile := range manifest.Stripes {
		chunk, err := readStripeFile(filepath.Join(dir, stripeFile), manifest.Schema)
		if err != nil {
			return "", nil, fmt.Errorf("reading stripe %v: %w", stripeFile, err)
		}
		table.AppendSealedChunk(chunk)
	}
	return manifest.Name, table, nil
}

func readStripeFile(path string, schema storage.Schema) (*storage.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunk := storage.NewChunk()
	for _, col := range schema {
		var checksum, length uint32
		if err := binary.Read(f, binary.LittleEndian, &checksum); err != nil {
			if err == io.EOF {
				return nil, errSchemaMismatch
			}
			return nil, err
		}
		if err := binary.Read(f, binary.LittleEndian, &length); err != nil {
			return nil, err
		}
		block := make([]byte, length)
		if _, err := io.ReadFull(f, block); err != nil {
			return nil, err
		}
		if crc32.ChecksumIEEE(block) != checksum {
			return nil, errChecksumMismatch
		}
		decoded, err := snappy.Decode(nil, block)
		if err != nil {
			return nil, err
		}
		segment, err := storage.DeserializeSegment(bytes.NewReader(decoded), col.Dtype)
		if err != nil {
			return nil, err
		}
		chunk.AddSegment(segment)
	}
	return chunk, nil
}
