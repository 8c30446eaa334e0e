package sqlite

import (
	"context"
	"reflect"
	"testing"

	"dqpipe/internal/storage"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" backend registered in init() goes through the newRepository hook
// and that wrappedRepo delegates Close.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		called bool
		gotCfg Config
		closed bool

		fakeRepo = &Repository{}
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	cfg := storage.Config{
		Kind:    "sqlite",
		DSN:     "file:test.db?mode=memory&cache=shared",
		Table:   "dq_raw",
		Columns: []string{"run_id", "name"},
	}
	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	want := Config{DSN: cfg.DSN, Table: cfg.Table, Columns: cfg.Columns}
	if !reflect.DeepEqual(gotCfg, want) {
		t.Fatalf("hook cfg = %+v, want %+v", gotCfg, want)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close() did not call closeFn")
	}
}

func TestSQLiteDialectRegistered(t *testing.T) {
	d, err := storage.LookupDialect("sqlite")
	if err != nil {
		t.Fatalf("LookupDialect: %v", err)
	}
	if d.MapType == nil || d.CreateTable == nil {
		t.Fatalf("dialect incomplete: %+v", d)
	}
}
