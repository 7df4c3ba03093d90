package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/marsik/chunky/src/storage"
	"github.com/marsik/chunky/src/stripe"
	"github.com/marsik/chunky/src/web"
)

// global, so that we can inject it at build time
var (
	gitCommit string
	buildTime string
)

func main() {
	expose := flag.Bool("expose", false, "expose the server on the network, do not run it just locally")
	port := flag.Int("port", 8822, "port to listen on")
	dataDir := flag.String("data", "", "directory of stripe subdirectories to preload into the catalog")
	loadSamples := flag.Bool("samples", false, "load a built-in sample table")
	version := flag.Bool("version", false, "print the binary's version")
	flag.Parse()

	if *version {
		log.Printf("build commit: %v, build time: %v", gitCommit, buildTime)
		os.Exit(0)
	}

	log.Printf("starting up process %v", os.Getpid())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		defer signal.Stop(signals)

		select {
		case s := <-signals:
			log.Printf("signal %v received, aborting", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	catalog := storage.GetCatalog()
	if *dataDir != "" {
		if err := preloadStripes(catalog, *dataDir); err != nil {
			log.Fatal(err)
		}
	}
	if *loadSamples {
		loadSampleTable(catalog)
	}

	if err := web.RunWebserver(ctx, catalog, *port, *expose); err != nil {
		log.Fatal(err)
	}
}

func preloadStripes(catalog *storage.Catalog, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, table, err := stripe.Read(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		catalog.Add(name, table)
		log.Printf("loaded table %v (%d rows)", name, table.RowCount())
	}
	return nil
}

func loadSampleTable(catalog *storage.Catalog) {
	table := storage.NewTable(1024)
	table.AddColumn("id", "int", false)
	table.AddColumn("name", "string", false)
	table.AddColumn("score", "double", true)
	samples := []struct {
		id    int32
		name  string
		score storage.Value
	}{
		{1, "alpha", storage.NewValue(12.5)},
		{2, "bravo", storage.NewValue(3.25)},
		{3, "charlie", storage.Null},
		{4, "delta", storage.NewValue(8.0)},
	}
	for _, s := range samples {
		table.Append([]storage.Value{storage.NewValue(s.id), storage.NewValue(s.name), s.score})
	}
	table.CompressChunk(0)
	catalog.Add("samples", table)
	log.Printf("loaded sample table (%d rows)", table.RowCount())
}
