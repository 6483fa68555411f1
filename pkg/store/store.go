// Package store reads and writes canonical per-college cutoff documents.
//
// A document is a single JSON object mapping a college key (institution code
// plus name) to an opaque nested value. Values are carried verbatim; only the
// key order and the indentation are owned by this package.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store is an ordered college-key -> value mapping. Keys keep the order of
// their first appearance in the loaded document; new keys are appended.
type Store struct {
	keys   []string
	values map[string]json.RawMessage
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]json.RawMessage)}
}

// Load reads and parses the store document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IoError{Path: path, Op: "read", Err: err}
	}
	s, err := Parse(data)
	if err != nil {
		var fe *DatasetFormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Parse decodes a store document. Anything other than a JSON object is a
// *DatasetFormatError. A key repeated in the document keeps its first
// position and its last value.
func Parse(data []byte) (*Store, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !gjson.ValidBytes(data) {
		return nil, &DatasetFormatError{Err: errors.New("invalid JSON")}
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, &DatasetFormatError{Err: errors.New("top-level value is not an object")}
	}

	s := New()
	doc.ForEach(func(key, value gjson.Result) bool {
		s.Set(key.String(), json.RawMessage(value.Raw))
		return true
	})
	return s, nil
}

// Len returns the number of keys.
func (s *Store) Len() int { return len(s.keys) }

// Keys returns the keys in store order.
func (s *Store) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set inserts key with value, or replaces the value of an existing key in place.
func (s *Store) Set(key string, value json.RawMessage) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Marshal renders the store as 2-space indented JSON in key order, without a
// trailing newline.
func (s *Store) Marshal() ([]byte, error) {
	if len(s.keys) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range s.keys {
		buf.WriteString("  ")
		if err := writeKey(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if err := json.Indent(&buf, s.values[k], "  ", "  "); err != nil {
			return nil, &DatasetFormatError{Err: err}
		}
		if i < len(s.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Save replaces the file at path with the rendered store. The new content is
// written to a temporary file in the same directory and renamed over path, so
// readers see either the old or the new document.
func (s *Store) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IoError{Path: path, Op: "write", Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &IoError{Path: path, Op: "write", Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IoError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IoError{Path: path, Op: "write", Err: err}
	}
	return nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	var kb bytes.Buffer
	enc := json.NewEncoder(&kb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(key); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(kb.Bytes(), []byte("\n")))
	return nil
}
