// Package datasource defines where raw dataset bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a dataset for reading. Implementations live in the file and
// httpds subpackages.
type Source interface {
	// Open returns a reader over the raw bytes. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is a short human-readable dataset name, e.g. the file base name.
	Name() string
}
