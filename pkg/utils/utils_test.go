package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.csv":
			_, _ = w.Write([]byte("a,b\n1,2\n"))
		case "/boom.csv":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr error
		anyErr  bool
	}{
		{name: "ok", path: "/ok.csv"},
		{name: "not found", path: "/missing.csv", wantErr: ErrNotFound},
		{name: "server error", path: "/boom.csv", anyErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(dir, "nested", tt.name+".csv")
			err := DownloadFile(context.Background(), srv.Client(), srv.URL+tt.path, dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
			case tt.anyErr:
				if err == nil {
					t.Error("Expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("DownloadFile failed: %v", err)
				}
				data, err := os.ReadFile(dest)
				if err != nil || string(data) != "a,b\n1,2\n" {
					t.Errorf("unexpected file content %q (%v)", data, err)
				}
			}
			if tt.wantErr != nil || tt.anyErr {
				if FileExists(dest) {
					t.Error("failed download left a file behind")
				}
			}
		})
	}

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".csv" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDownloadFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DownloadFile(ctx, nil, "http://127.0.0.1:1/never", filepath.Join(t.TempDir(), "x.csv"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
