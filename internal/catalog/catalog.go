// Package catalog serves the externally maintained category definition
// file. The file is advisory: the ledgers never validate categories against
// it, and the service has no write path to it.
package catalog

import (
	"fmt"
	"os"
)

// Reader reads the category catalog fresh on every call, so the file can be
// edited without restarting the service. The content is returned verbatim;
// structure is not validated.
type Reader struct {
	path string
}

func New(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the catalog file location.
func (r *Reader) Path() string {
	return r.path
}

// Read returns the raw catalog bytes. A missing or unreadable file is an
// error for this call only; the rest of the system is unaffected.
func (r *Reader) Read() ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read category catalog: %w", err)
	}
	return data, nil
}
