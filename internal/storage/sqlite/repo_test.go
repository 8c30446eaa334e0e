package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"dqpipe/internal/storage"
	"dqpipe/internal/table"
)

/*
Package-level test helpers (TB-aware)
*/

func tempDSN(tb testing.TB) string {
	tb.Helper()
	return filepath.Join(tb.TempDir(), "runs.db")
}

func newRepo(tb testing.TB, dsn, tbl string, cols []string) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: dsn, Table: tbl, Columns: cols})
	if err != nil {
		tb.Fatalf("NewRepository: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, stmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), stmt); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

func countRows(tb testing.TB, db *sql.DB, q string, args ...any) int {
	tb.Helper()
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		tb.Fatalf("query %q: %v", q, err)
	}
	return n
}

/*
Unit tests
*/

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestCopyFrom_InsertsRows(t *testing.T) {
	r := newRepo(t, tempDSN(t), "people", []string{"id", "name"})
	mustExec(t, r, `CREATE TABLE "people" ("id" INTEGER, "name" TEXT)`)

	n, err := r.CopyFrom(context.Background(), []string{"id", "name"}, [][]any{{1, "a"}, {2, "b"}, {3, nil}})
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted %d, want 3", n)
	}
	if got := countRows(t, r.db, `SELECT COUNT(*) FROM "people" WHERE "name" IS NULL`); got != 1 {
		t.Fatalf("null names = %d, want 1", got)
	}
}

// TestCopyFrom_RowLengthMismatchRollsBack ensures a bad row aborts the whole
// batch.
func TestCopyFrom_RowLengthMismatchRollsBack(t *testing.T) {
	r := newRepo(t, tempDSN(t), "people", []string{"id", "name"})
	mustExec(t, r, `CREATE TABLE "people" ("id" INTEGER, "name" TEXT)`)

	_, err := r.CopyFrom(context.Background(), []string{"id", "name"}, [][]any{{1, "a"}, {2}})
	if err == nil || !strings.Contains(err.Error(), "row length") {
		t.Fatalf("err = %v, want row length error", err)
	}
	if got := countRows(t, r.db, `SELECT COUNT(*) FROM "people"`); got != 0 {
		t.Fatalf("rows after rollback = %d, want 0", got)
	}
}

func TestCopyFrom_NoRows(t *testing.T) {
	r := newRepo(t, tempDSN(t), "people", []string{"id"})
	n, err := r.CopyFrom(context.Background(), []string{"id"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("CopyFrom(nil) = %d, %v; want 0, nil", n, err)
	}
	if _, err := r.CopyFrom(context.Background(), nil, [][]any{{1}}); err == nil {
		t.Fatal("expected error for empty columns")
	}
}

func TestMapType(t *testing.T) {
	cases := map[table.Kind]string{
		table.KindNumber: "REAL",
		table.KindBool:   "INTEGER",
		table.KindTime:   "TEXT",
		table.KindText:   "TEXT",
	}
	for k, want := range cases {
		if got := MapType(k); got != want {
			t.Errorf("MapType(%v) = %q, want %q", k, got, want)
		}
	}
}

// TestSink_SaveTwice persists the same stage from two runs into one table and
// checks that run ids and NULLs land as expected.
func TestSink_SaveTwice(t *testing.T) {
	ctx := context.Background()
	dsn := tempDSN(t)

	tbl := table.MustNew(
		table.NewColumn("rain_mm", []table.Value{table.Number(10), table.Number(1000), table.Number(12), table.Missing()}),
		table.NewColumn("district", []table.Value{table.Text("north"), table.Text("north"), table.Text("south"), table.Text("south")}),
		table.NewColumn("_qc_missing", []table.Value{table.Bool(false), table.Bool(false), table.Bool(false), table.Bool(true)}),
	)

	for _, run := range []string{"run-a", "run-b"} {
		sink := storage.NewSink("sqlite", dsn, "dq_", 3, run)
		n, err := sink.Save(ctx, "cleaned", tbl)
		if err != nil {
			t.Fatalf("Save(%s): %v", run, err)
		}
		if n != 4 {
			t.Fatalf("Save(%s) = %d rows, want 4", run, n)
		}
	}

	r := newRepo(t, dsn, "dq_cleaned", nil)
	if got := countRows(t, r.db, `SELECT COUNT(*) FROM "dq_cleaned"`); got != 8 {
		t.Fatalf("rows = %d, want 8", got)
	}
	if got := countRows(t, r.db, `SELECT COUNT(*) FROM "dq_cleaned" WHERE "run_id" = ? AND "rain_mm" IS NULL`, "run-b"); got != 1 {
		t.Fatalf("missing rain rows for run-b = %d, want 1", got)
	}
	if got := countRows(t, r.db, `SELECT COUNT(*) FROM "dq_cleaned" WHERE "_qc_missing" = 1`); got != 2 {
		t.Fatalf("flagged rows = %d, want 2", got)
	}
}
