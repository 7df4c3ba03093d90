package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/marsik/chunky/src/ingest"
	"github.com/marsik/chunky/src/operators"
	"github.com/marsik/chunky/src/storage"
)

func handleStatus(catalog *storage.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "ok"}`)
	}
}

// tableInfo is the listing payload for one registered table
type tableInfo struct {
	Name          string         `json:"name"`
	Schema        storage.Schema `json:"schema"`
	NRows         uint64         `json:"nrows"`
	Chunks        int            `json:"chunks"`
	EstimatedSize string         `json:"estimated_size"`
}

func estimateTableSize(table *storage.Table) int {
	total := 0
	for chunkID := 0; chunkID < table.ChunkCount(); chunkID++ {
		chunk := table.GetChunk(storage.ChunkID(chunkID))
		for columnID := 0; columnID < chunk.ColumnCount(); columnID++ {
			total += chunk.GetSegment(storage.ColumnID(columnID)).EstimateMemoryUsage()
		}
	}
	return total
}

func tableInfoFor(name string, table *storage.Table) tableInfo {
	return tableInfo{
		Name:          name,
		Schema:        table.Schema(),
		NRows:         table.RowCount(),
		Chunks:        table.ChunkCount(),
		EstimatedSize: humanize.Bytes(uint64(estimateTableSize(table))),
	}
}

func handleTables(catalog *storage.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		listing := make([]tableInfo, 0)
		for _, name := range catalog.Names() {
			listing = append(listing, tableInfoFor(name, catalog.Get(name)))
		}
		if err := json.NewEncoder(w).Encode(listing); err != nil {
			panic(err)
		}
	}
}

type scanPayload struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value"`
}

type scanResponse struct {
	NRows   uint64           `json:"nrows"`
	Columns []string         `json:"columns"`
	Data    map[string][]any `json:"data"`
}

// searchValueFor coerces a decoded JSON value into the scan column's kind -
// encoding/json hands all numbers over as float64s
func searchValueFor(raw any, dt storage.Dtype) (storage.Value, error) {
	if raw == nil {
		return storage.Null, nil
	}
	switch dt {
	case storage.DtypeInt, storage.DtypeLong, storage.DtypeFloat, storage.DtypeDouble:
		num, ok := raw.(float64)
		if !ok {
			return storage.Null, fmt.Errorf("expected a numeric search value for a %v column, got %T", dt, raw)
		}
		switch dt {
		case storage.DtypeInt:
			return storage.NewValue(int32(num)), nil
		case storage.DtypeLong:
			return storage.NewValue(int64(num)), nil
		case storage.DtypeFloat:
			return storage.NewValue(float32(num)), nil
		default:
			return storage.NewValue(num), nil
		}
	case storage.DtypeString:
		s, ok := raw.(string)
		if !ok {
			return storage.Null, fmt.Errorf("expected a string search value, got %T", raw)
		}
		return storage.NewValue(s), nil
	default:
		return storage.Null, fmt.Errorf("cannot scan a column of type %v", dt)
	}
}

func handleScan(catalog *storage.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			http.Error(w, "only POST requests allowed for /api/scan", http.StatusMethodNotAllowed)
			return
		}
		var payload scanPayload
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&payload); err != nil {
			http.Error(w, fmt.Sprintf("did not supply correct scan parameters: %v", err), http.StatusBadRequest)
			return
		}
		// NewDecoder(r).Decode() can lead to bugs: https://github.com/golang/go/issues/36225
		if dec.More() {
			http.Error(w, "body can only contain a single JSON object", http.StatusBadRequest)
			return
		}

		scanType, err := operators.ParseScanType(payload.Op)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !catalog.Has(payload.Table) {
			http.Error(w, fmt.Sprintf("table not found: %v", payload.Table), http.StatusNotFound)
			return
		}

		// the storage layer treats misuse as fatal - surface those panics as
		// bad requests instead of taking the server down
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, fmt.Sprint(rec), http.StatusBadRequest)
			}
		}()

		input := catalog.Get(payload.Table)
		columnID := input.ColumnIDByName(payload.Column)
		searchValue, err := searchValueFor(payload.Value, input.ColumnType(columnID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		getTable := operators.NewGetTable(payload.Table)
		getTable.Execute()
		scan := operators.NewTableScan(getTable, columnID, scanType, searchValue)
		scan.Execute()
		output := scan.GetOutput()

		resp := scanResponse{
			NRows:   output.RowCount(),
			Columns: make([]string, output.ColumnCount()),
			Data:    make(map[string][]any),
		}
		chunk := output.GetChunk(0)
		for col := 0; col < output.ColumnCount(); col++ {
			name := output.ColumnName(storage.ColumnID(col))
			resp.Columns[col] = name
			segment := chunk.GetSegment(storage.ColumnID(col))
			column := make([]any, 0, segment.Size())
			for offset := storage.ChunkOffset(0); offset < segment.Size(); offset++ {
				column = append(column, segment.At(offset).Raw())
			}
			resp.Data[name] = column
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			panic(err)
		}
	}
}

func handleUpload(catalog *storage.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			http.Error(w, "only POST requests allowed for /upload", http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "a table name has to be supplied", http.StatusBadRequest)
			return
		}
		if catalog.Has(name) {
			http.Error(w, fmt.Sprintf("table already exists: %v", name), http.StatusConflict)
			return
		}
		defer r.Body.Close()
		table, err := ingest.LoadCSV(r.Body, storage.DefaultTargetChunkSize)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to parse a given file: %v", err), http.StatusBadRequest)
			return
		}
		catalog.Add(name, table)
		if err := json.NewEncoder(w).Encode(tableInfoFor(name, table)); err != nil {
			panic(err)
		}
	}
}
