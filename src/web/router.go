package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/marsik/chunky/src/storage"
)

// SetupRoutes binds all handlers for a given catalog
func SetupRoutes(catalog *storage.Catalog) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", handleStatus(catalog))
	mux.HandleFunc("/api/tables", handleTables(catalog))
	mux.HandleFunc("/api/scan", handleScan(catalog))
	mux.HandleFunc("/upload", handleUpload(catalog))
	return mux
}

// RunWebserver sets up routes and serves until the context gets cancelled
func RunWebserver(ctx context.Context, catalog *storage.Catalog, port int, expose bool) error {
	host := "localhost"
	if expose {
		host = ""
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))
	server := &http.Server{
		Addr:    address,
		Handler: SetupRoutes(catalog),
	}

	errs := make(chan error)
	log.Printf("listening on http://%v", address)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return server.Shutdown(context.Background())
	}
}
