package csv

import (
	"bytes"
	"strings"
)

const utf8BOM = "\uFEFF"

// StripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func StripHeaderBOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	return headers
}

// stripBOM removes a leading UTF-8 BOM from raw input.
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte(utf8BOM))
}
