package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PainterQubits/paramdb/pkg/codec"
	"github.com/PainterQubits/paramdb/pkg/param"
	"github.com/PainterQubits/paramdb/pkg/store"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := param.NewRegistry()
	rt, err := reg.Declare("ServeRoot", param.Field("value", param.KindFloat))
	if err != nil {
		t.Fatalf("Declare error: %v", err)
	}
	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend error: %v", err)
	}
	db := store.New(backend, store.WithCodec(codec.New(reg)))
	t.Cleanup(func() { db.Dispose() })

	root, err := rt.New(map[string]any{"value": 1.23})
	if err != nil {
		t.Fatalf("New record error: %v", err)
	}
	if _, err := db.Commit(context.Background(), "init", root); err != nil {
		t.Fatalf("Commit error: %v", err)
	}

	srv := httptest.NewServer(historyRouter(db))
	t.Cleanup(srv.Close)
	return srv
}

func TestServeCommitList(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/commits")
	if err != nil {
		t.Fatalf("GET /commits error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var entries []store.CommitEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != 1 || entries[0].Message != "init" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestServeCommitByID(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/commits/1")
	if err != nil {
		t.Fatalf("GET /commits/1 error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		ID   int64          `json:"id"`
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.ID != 1 {
		t.Errorf("id = %d", body.ID)
	}
	if body.Data["__type"] != "ServeRoot" {
		t.Errorf("data.__type = %v", body.Data["__type"])
	}
}

func TestServeCommitErrors(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/commits/42")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing commit status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/commits/banana")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", resp.StatusCode)
	}
}
