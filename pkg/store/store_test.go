package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseKeepsDocumentOrder(t *testing.T) {
	s, err := Parse([]byte(`{"06276 - Cummins": {"CE": 1}, "01002 - GCOE Amravati": [1, 2], "00001 - Z": null}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"06276 - Cummins", "01002 - GCOE Amravati", "00001 - Z"}
	if got := s.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected keys.\nwant: %#v\ngot:  %#v", want, got)
	}

	v, ok := s.Get("01002 - GCOE Amravati")
	if !ok || string(v) != "[1, 2]" {
		t.Fatalf("value not carried verbatim: %q", v)
	}
}

func TestParseDuplicateKeyKeepsFirstPositionLastValue(t *testing.T) {
	s, err := Parse([]byte(`{"A": 1, "B": 2, "A": 3}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("unexpected keys: %#v", got)
	}
	if v, _ := s.Get("A"); string(v) != "3" {
		t.Fatalf("expected last value to win, got %s", v)
	}
}

func TestParseRejectsNonObjects(t *testing.T) {
	inputs := map[string]string{
		"empty":     "",
		"array":     `[{"A": 1}]`,
		"string":    `"hello"`,
		"number":    `42`,
		"truncated": `{"A": {"x": 1}`,
		"garbage":   `not json`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			var fe *DatasetFormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected DatasetFormatError, got %v", err)
			}
		})
	}
}

func TestParseStripsBOM(t *testing.T) {
	s, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"A": 1}`)...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Has("A") {
		t.Fatal("expected key A")
	}
}

func TestMarshalIndentsTwoSpaces(t *testing.T) {
	s, err := Parse([]byte(`{"A":{"x":1,"list":[1,2]},"B":"<tag>&","C":{},"D":[]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Set("E & <F>", []byte(`true`))

	got, err := s.Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{
  "A": {
    "x": 1,
    "list": [
      1,
      2
    ]
  },
  "B": "<tag>&",
  "C": {},
  "D": [],
  "E & <F>": true
}`
	if string(got) != want {
		t.Fatalf("unexpected output.\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestMarshalEmpty(t *testing.T) {
	got, err := New().Marshal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "{}" {
		t.Fatalf("expected {}, got %s", got)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cap1_2025_formatted.json")
	if err := os.WriteFile(path, []byte(`{"A": {"x": 1}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Set("B", []byte(`{"y": 3}`))
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Keys(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("unexpected keys after reload: %#v", got)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("expected original mode to be kept, got %v", fi.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	var ioErr *IoError
	if !errors.As(err, &ioErr) || ioErr.Op != "read" {
		t.Fatalf("expected read IoError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected IoError to unwrap to ErrNotExist, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	var fe *DatasetFormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected DatasetFormatError, got %v", err)
	}
	if fe.Path != bad {
		t.Fatalf("expected path %s on error, got %s", bad, fe.Path)
	}
}

func TestSaveToMissingDirectory(t *testing.T) {
	err := New().Save(filepath.Join(t.TempDir(), "nope", "out.json"))
	var ioErr *IoError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Fatalf("expected write IoError, got %v", err)
	}
}
