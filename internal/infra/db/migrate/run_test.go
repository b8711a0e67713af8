package migrate

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if v != 1 {
		t.Fatalf("first version = %d, want 1", v)
	}

	up, _, err := src.ReadUp(v)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer up.Close()
	b, _ := io.ReadAll(up)
	for _, table := range []string{"transactions", "refunds"} {
		if !strings.Contains(string(b), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("up migration does not create %s", table)
		}
	}
	// provider states are free-form strings of unknown length
	if !strings.Contains(string(b), "provider_status         TEXT") {
		t.Errorf("refunds.provider_status must be unbounded TEXT")
	}

	down, _, err := src.ReadDown(v)
	if err != nil {
		t.Fatalf("ReadDown: %v", err)
	}
	down.Close()
}
