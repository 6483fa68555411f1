package store

import "fmt"

// DatasetFormatError reports a store document that does not decode to a
// key -> value mapping.
type DatasetFormatError struct {
	Path string
	Err  error
}

func (e *DatasetFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dataset format error: %v", e.Err)
	}
	return fmt.Sprintf("dataset format error in %s: %v", e.Path, e.Err)
}

func (e *DatasetFormatError) Unwrap() error { return e.Err }

// IoError reports a read or write failure on a store file.
type IoError struct {
	Path string
	Op   string // read | write
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }
