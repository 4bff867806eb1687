package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cases.csv":
			_, _ = w.Write([]byte(casesCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	files := DefaultFiles(dir)
	if err := os.WriteFile(files.Metadata, []byte("Country Code,Region,IncomeGroup\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	urls := map[Kind]string{
		KindCases:    srv.URL + "/cases.csv",
		KindMetadata: srv.URL + "/never-requested.csv",
	}
	fetched, err := Fetch(context.Background(), srv.Client(), files, urls, zerolog.Nop())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(fetched) != 1 || fetched[0] != KindCases {
		t.Errorf("Expected only cases to be fetched, got %v", fetched)
	}
	if _, err := LoadFile(KindCases, files.Cases); err != nil {
		t.Errorf("downloaded cases file does not load: %v", err)
	}

	urls[KindVaccine] = srv.URL + "/missing.csv"
	_, err = Fetch(context.Background(), srv.Client(), files, urls, zerolog.Nop())
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Expected ErrSourceNotFound for a 404, got %v", err)
	}
}
