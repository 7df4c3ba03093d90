package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/marsik/chunky/src/storage"
)

func newServerWithSample(t *testing.T) *httptest.Server {
	t.Helper()
	catalog := storage.GetCatalog()
	catalog.Reset()
	t.Cleanup(catalog.Reset)

	table := storage.NewTable(2)
	table.AddColumn("id", "int", false)
	table.AddColumn("name", "string", true)
	rows := [][]storage.Value{
		{storage.NewValue(int32(1)), storage.NewValue("ada")},
		{storage.NewValue(int32(2)), storage.Null},
		{storage.NewValue(int32(3)), storage.NewValue("cyd")},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.CompressChunk(0)
	catalog.Add("people", table)

	srv := httptest.NewServer(SetupRoutes(catalog))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusHandling(t *testing.T) {
	srv := newServerWithSample(t)
	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type: %v", ct)
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Status != "ok" {
		t.Errorf("unexpected status payload: %v", payload.Status)
	}
}

func TestTableListing(t *testing.T) {
	srv := newServerWithSample(t)
	resp, err := http.Get(srv.URL + "/api/tables")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listing []tableInfo
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	if len(listing) != 1 {
		t.Fatalf("expecting one table, got %d", len(listing))
	}
	info := listing[0]
	if info.Name != "people" || info.NRows != 3 || info.Chunks != 2 {
		t.Errorf("unexpected listing: %+v", info)
	}
	if info.EstimatedSize == "" {
		t.Error("expecting a humanised size estimate")
	}
}

func postScan(t *testing.T, srv *httptest.Server, payload string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/scan", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestScanHandler(t *testing.T) {
	srv := newServerWithSample(t)
	resp := postScan(t, srv, `{"table": "people", "column": "id", "op": ">=", "value": 2}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
	var payload scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.NRows != 2 {
		t.Fatalf("expecting 2 matching rows, got %d", payload.NRows)
	}
	if !reflect.DeepEqual(payload.Columns, []string{"id", "name"}) {
		t.Errorf("unexpected columns: %v", payload.Columns)
	}
	// ids decode as float64s, that's encoding/json for you
	if !reflect.DeepEqual(payload.Data["id"], []any{2.0, 3.0}) {
		t.Errorf("unexpected ids: %v", payload.Data["id"])
	}
	if !reflect.DeepEqual(payload.Data["name"], []any{nil, "cyd"}) {
		t.Errorf("unexpected names: %v", payload.Data["name"])
	}
}

func TestScanHandlerErrors(t *testing.T) {
	srv := newServerWithSample(t)
	tests := []struct {
		payload  string
		expected int
	}{
		{`{"table": "people", "column": "id", "op": "~", "value": 2}`, http.StatusBadRequest},
		{`{"table": "nope", "column": "id", "op": "=", "value": 2}`, http.StatusNotFound},
		{`{"table": "people", "column": "salary", "op": "=", "value": 2}`, http.StatusBadRequest},
		{`{"table": "people", "column": "id", "op": "=", "value": "two"}`, http.StatusBadRequest},
		{`{"table": "people", "column": "id", "op": "=", "value": 2, "extra": 1}`, http.StatusBadRequest},
	}
	for _, test := range tests {
		resp := postScan(t, srv, test.payload)
		resp.Body.Close()
		if resp.StatusCode != test.expected {
			t.Errorf("payload %v: expecting status %d, got %d", test.payload, test.expected, resp.StatusCode)
		}
	}
}

func TestScanHandlerMethod(t *testing.T) {
	srv := newServerWithSample(t)
	resp, err := http.Get(srv.URL + "/api/scan")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expecting GET scans to be refused, got %v", resp.Status)
	}
}

func TestUploadHandler(t *testing.T) {
	srv := newServerWithSample(t)
	csv := "v,w\n1,foo\n2,bar\n"
	resp, err := http.Post(srv.URL+"/upload?name=uploaded", "text/csv", bytes.NewReader([]byte(csv)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v", resp.Status)
	}
	var info tableInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Name != "uploaded" || info.NRows != 2 {
		t.Errorf("unexpected upload response: %+v", info)
	}
	if !storage.GetCatalog().Has("uploaded") {
		t.Error("expecting the uploaded table to be registered")
	}

	// a second upload under the same name has to be refused
	resp2, err := http.Post(srv.URL+fmt.Sprintf("/upload?name=%v", "uploaded"), "text/csv", bytes.NewReader([]byte(csv)))
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("expecting a conflict, got %v", resp2.Status)
	}
}
