package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/crystaldolphin/tomekeeper/internal/character"
)

func newTestStore(t *testing.T, maxBackups int) *YAMLStore {
	t.Helper()
	s, err := NewYAMLStore(t.TempDir(), maxBackups, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewYAMLStore: %v", err)
	}
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := newTestStore(t, 3)
	c := character.New("Aria Swift", "Bard", "Half-Elf")
	c.Spellcasting.Slots[1] = &character.SpellSlot{Total: 2, Used: 1}
	c.Equipment.Items = []character.InventoryItem{{Name: "Lute", Quantity: 1, Weight: 2}}

	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("Aria Swift")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ID != c.ID || got.Class.Name != "Bard" {
		t.Errorf("expected %s/Bard, got %s/%s", c.ID, got.ID, got.Class.Name)
	}
	if got.Spellcasting.Slots[1].Remaining() != 1 {
		t.Errorf("expected 1 slot remaining, got %+v", got.Spellcasting.Slots[1])
	}
	if len(got.Equipment.Items) != 1 || got.Equipment.Items[0].Name != "Lute" {
		t.Errorf("unexpected items: %+v", got.Equipment.Items)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := newTestStore(t, 0)
	if _, err := s.Load("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSave_RotatesBackups(t *testing.T) {
	s := newTestStore(t, 2)
	c := character.New("Korr", "Barbarian", "Half-Orc")
	for i := 0; i < 5; i++ {
		c.Combat.HitPoints.Current = i
		if err := s.Save(c); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	backups, err := s.Backups("Korr")
	if err != nil {
		t.Fatalf("Backups: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Save(character.New("Tam", "Rogue", "Halfling")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tmps, _ := filepath.Glob(filepath.Join(s.Dir(), ".tmp-*"))
	if len(tmps) != 0 {
		t.Errorf("expected no temp files, got %v", tmps)
	}
}

func TestSummaries(t *testing.T) {
	s := newTestStore(t, 0)
	for _, n := range []string{"Zed", "Alma", "Mira"} {
		if err := s.Save(character.New(n, "Cleric", "Human")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	sums, err := s.Summaries(context.Background())
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("expected 3, got %d", len(sums))
	}
	if sums[0].Name != "Alma" || sums[2].Name != "Zed" {
		t.Errorf("expected sorted by slug, got %s..%s", sums[0].Name, sums[2].Name)
	}
}

func TestSummaries_BadFileFails(t *testing.T) {
	s := newTestStore(t, 0)
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.yaml"), []byte("name: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Summaries(context.Background()); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, 0)
	if err := s.Save(character.New("Ivo", "Monk", "Human")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("Ivo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("Ivo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Aria Swift":      "aria-swift",
		"  Ser  Bors!!  ": "ser-bors",
		"Zoë-7":           "zo-7",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q): expected %q, got %q", in, want, got)
		}
	}
}
