package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"storefront/internal/db"
)

func TestApplySQLite_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	if err := ApplySQLite(ctx, path); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplySQLite(ctx, path); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer sqlDB.Close()

	var name string
	err = sqlDB.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv_slots'`).Scan(&name)
	if err == sql.ErrNoRows {
		t.Fatalf("kv_slots table missing")
	}
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
}
