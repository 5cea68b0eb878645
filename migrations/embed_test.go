package migrations

import (
	"strings"
	"testing"

	"github.com/ehr/carepath/internal/platform/db"
)

func TestEmbeddedMigrations(t *testing.T) {
	migs, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migs) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migs))
	}
	for i, m := range migs {
		if m.Version != i+1 {
			t.Errorf("migration %s: version %d, want %d", m.Name, m.Version, i+1)
		}
	}
}

func TestClinicalNoteTriggerGuardsUpdateAndDelete(t *testing.T) {
	raw, err := FS.ReadFile("002_clinical_note_append_only.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	sql := string(raw)
	for _, want := range []string{"BEFORE UPDATE OR DELETE ON clinical_note", "pg_trigger_depth() > 1", "RAISE EXCEPTION"} {
		if !strings.Contains(sql, want) {
			t.Errorf("trigger migration missing %q", want)
		}
	}
}
