package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dqpipe/internal/table"
)

// RunIDColumn is prepended to every persisted table so rows from different
// runs can share one table.
const RunIDColumn = "run_id"

// ColumnDef describes one destination column.
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef is a backend-neutral CREATE TABLE model.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Names returns the column names in order.
func (d TableDef) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect holds the DDL knowledge of one backend.
type Dialect struct {
	// MapType returns the SQL type used for a column of the given kind.
	MapType func(k table.Kind) string

	// CreateTable renders an idempotent CREATE TABLE statement.
	CreateTable func(def TableDef) (string, error)
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the dialect for kind. It is
// typically called from backend init functions next to Register.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[kind] = d
}

// LookupDialect returns the dialect registered for kind.
func LookupDialect(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[kind]
	dialectMu.RUnlock()
	if !ok || d.MapType == nil || d.CreateTable == nil {
		return Dialect{}, fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// TableDefFor infers a table definition from t: a non-null run id column
// followed by one nullable column per table column.
func TableDefFor(fqn string, t *table.Table, mapType func(table.Kind) string) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("storage: table name must not be empty")
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, t.NumCols()+1)}
	def.Columns = append(def.Columns, ColumnDef{Name: RunIDColumn, SQLType: mapType(table.KindText)})
	for _, c := range t.Columns() {
		if c.Name() == RunIDColumn {
			return TableDef{}, fmt.Errorf("storage: column %q is reserved", RunIDColumn)
		}
		def.Columns = append(def.Columns, ColumnDef{Name: c.Name(), SQLType: mapType(c.Kind()), Nullable: true})
	}
	return def, nil
}

// EnsureTable renders def with the dialect for kind and applies it via repo.
func EnsureTable(ctx context.Context, kind string, repo Repository, def TableDef) error {
	d, err := LookupDialect(kind)
	if err != nil {
		return err
	}
	stmt, err := d.CreateTable(def)
	if err != nil {
		return fmt.Errorf("storage: build ddl for %s: %w", def.FQN, err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("storage: create %s: %w", def.FQN, err)
	}
	return nil
}

// QuoteIdent double-quotes an identifier, escaping embedded quotes. Both
// SQLite and Postgres accept this form.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes each dot-separated segment of fqn.
func QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTable renders the CREATE TABLE IF NOT EXISTS form shared by the
// built-in backends:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE NOT NULL,
//	  "col2" TYPE
//	);
func BuildCreateTable(def TableDef) (string, error) {
	fqn := strings.TrimSpace(def.FQN)
	if fqn == "" {
		return "", fmt.Errorf("table FQN must not be empty")
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("at least one column is required")
	}
	cols := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("column %s missing SQLType", name)
		}
		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}
