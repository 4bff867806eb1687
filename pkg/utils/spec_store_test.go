package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSpecStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "specstore-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Logf("Error removing temp dir: %v", err)
		}
	}()

	dbPath := filepath.Join(tmpDir, "specs")
	store, err := OpenSpecStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to open SpecStore: %v", err)
	}

	testSpecStoreBasic(t, store)
	testSpecStoreBatch(t, store)
	testSpecStorePrune(t, store)

	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	testSpecStorePersistence(t, dbPath)
}

func testSpecStoreBasic(t *testing.T, store *SpecStore) {
	val := []byte(`{"data":[]}`)
	if err := store.PutBatch(map[string][]byte{"abc/income": val}); err != nil {
		t.Errorf("PutBatch failed: %v", err)
	}
	res, err := store.Get("abc/income")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if !bytes.Equal(res, val) {
		t.Errorf("Get mismatch: got %s, want %s", res, val)
	}

	res, err = store.Get("abc/missing")
	if err != nil || res != nil {
		t.Errorf("Get of a missing key = (%s, %v), want (nil, nil)", res, err)
	}
}

func testSpecStoreBatch(t *testing.T, store *SpecStore) {
	batch := map[string][]byte{
		"abc/map": []byte("map-v1"),
		"old/map": []byte("map-v0"),
	}
	if err := store.PutBatch(batch); err != nil {
		t.Errorf("PutBatch failed: %v", err)
	}
	res, err := store.Get("old/map")
	if err != nil || !bytes.Equal(res, batch["old/map"]) {
		t.Errorf("Batch mismatch: got (%s, %v)", res, err)
	}
}

func testSpecStorePrune(t *testing.T, store *SpecStore) {
	n, err := store.Prune("abc/")
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d keys, want 1", n)
	}
	if res, _ := store.Get("old/map"); res != nil {
		t.Errorf("pruned key still readable: %s", res)
	}
	for _, key := range []string{"abc/income", "abc/map"} {
		if res, err := store.Get(key); err != nil || res == nil {
			t.Errorf("key %s under the kept prefix is gone: (%s, %v)", key, res, err)
		}
	}
}

func testSpecStorePersistence(t *testing.T, dbPath string) {
	store, err := OpenSpecStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen SpecStore: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Logf("Error closing store: %v", err)
		}
	}()

	res, err := store.Get("abc/map")
	if err != nil {
		t.Errorf("Get after reopen failed: %v", err)
	}
	if string(res) != "map-v1" {
		t.Errorf("Persistence mismatch: got %q, want map-v1", res)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	write := func(path, data string) {
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(a, "x,y\n1,2\n")
	write(b, "z\n3\n")

	base, err := Fingerprint("v1", []string{a, b})
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	again, _ := Fingerprint("v1", []string{a, b})
	if base != again {
		t.Error("Fingerprint is not stable")
	}

	tests := []struct {
		name  string
		apply func() (string, error)
	}{
		{"version", func() (string, error) { return Fingerprint("v2", []string{a, b}) }},
		{"order", func() (string, error) { return Fingerprint("v1", []string{b, a}) }},
		{"extra", func() (string, error) { return Fingerprint("v1", []string{a, b}, []byte("coords")) }},
		{"content", func() (string, error) {
			write(b, "z\n4\n")
			return Fingerprint("v1", []string{a, b})
		}},
	}
	for _, tt := range tests {
		got, err := tt.apply()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got == base {
			t.Errorf("changing the %s did not change the fingerprint", tt.name)
		}
	}

	if _, err := Fingerprint("v1", []string{filepath.Join(dir, "missing.csv")}); err == nil {
		t.Error("expected an error for a missing file")
	}
}
