// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := DefaultCatalog().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestPublicExcludesSecretBadges(t *testing.T) {
	c := DefaultCatalog()
	for _, b := range c.Public() {
		if b.Secret {
			t.Errorf("secret badge %s listed publicly", b.ID)
		}
	}
	if len(c.Public()) != len(c.Badges)-3 {
		t.Errorf("expected %d public badges, got %d", len(c.Badges)-3, len(c.Public()))
	}
	if got := c.ByCategory(CategorySecret); len(got) != 0 {
		t.Errorf("secret category should list nothing publicly, got %d", len(got))
	}
	if got := c.ByCategory(CategoryCommunity); len(got) != 4 {
		t.Errorf("expected 4 community badges, got %d", len(got))
	}
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
levels:
  - {level: 1, title: Reader, points: 0}
  - {level: 2, title: Patron, points: 100}
badges:
  - id: big-spender
    name: Big Spender
    category: mecenatge
    points: 5
    requires:
      min_total: 20
      min_obres: 2
`)
	c, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(c.Levels) != 2 || c.Levels[1].PointsThreshold != 100 {
		t.Errorf("unexpected levels: %+v", c.Levels)
	}
	b, ok := c.Badge("big-spender")
	if !ok {
		t.Fatal("badge not found")
	}

	p := models.Profile{}
	p.TotalContributed = models.Euros(20)
	p.DistinctWorksCount = 1
	if b.Requires.Satisfied(p) {
		t.Error("expected both thresholds to be required")
	}
	p.DistinctWorksCount = 2
	if !b.Requires.Satisfied(p) {
		t.Error("expected badge to qualify")
	}
}

func TestParseCatalogFallsBackToDefaults(t *testing.T) {
	c, err := ParseCatalog([]byte("badges: []\n"))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(c.Levels) != len(DefaultLevels) || len(c.Badges) != len(DefaultBadges) {
		t.Error("expected default tables")
	}
}

func TestParseCatalogRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "first threshold not zero",
			yaml: "levels:\n  - {level: 1, points: 10}\n",
			want: "threshold 0",
		},
		{
			name: "thresholds not increasing",
			yaml: "levels:\n  - {level: 1, points: 0}\n  - {level: 2, points: 50}\n  - {level: 3, points: 50}\n",
			want: "not greater",
		},
		{
			name: "badge without requirements",
			yaml: "badges:\n  - {id: empty, name: Empty}\n",
			want: "declares no requirements",
		},
		{
			name: "duplicate badge",
			yaml: "badges:\n  - {id: a, requires: {min_vots: 1}}\n  - {id: a, requires: {min_vots: 2}}\n",
			want: "duplicate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("levels:\n  - {level: 1, title: Solo, points: 0}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if NewEngine(c).LevelForPoints(99999).Title != "Solo" {
		t.Error("expected single-level table")
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
