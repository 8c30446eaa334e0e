package ingest

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Formats understood by Load.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"
)

var extFormats = map[string]string{
	"":      FormatCSV,
	".csv":  FormatCSV,
	".txt":  FormatCSV,
	".dat":  FormatCSV,
	".tsv":  FormatTSV,
	".tab":  FormatTSV,
	".xlsx": FormatXLSX,
	".xlsm": FormatXLSX,
}

// ResolveFormat picks the parser format for a location. An explicit format
// other than "auto" wins; otherwise the extension decides.
func ResolveFormat(sourceType, location, format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "auto":
	case FormatCSV, FormatTSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: format %q", ErrUnsupportedFormat, format)
	}

	p := location
	if sourceType == TypeURL {
		if u, err := url.Parse(location); err == nil {
			p = u.Path
		}
		p = path.Base(p)
	}
	ext := strings.ToLower(filepath.Ext(p))
	f, ok := extFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}
