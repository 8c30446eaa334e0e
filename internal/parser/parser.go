// Package parser turns raw dataset bytes into a table.Table.
package parser

import (
	"io"

	"dqpipe/internal/table"
)

// Parser decodes one dataset. It returns the table and the number of input
// rows that were skipped as malformed.
type Parser interface {
	Parse(r io.Reader) (*table.Table, int, error)
}
