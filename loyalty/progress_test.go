// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

func TestProgress(t *testing.T) {
	e := newTestEngine()

	p := e.Progress(100)
	if p.Current.Level != 2 || p.Next == nil || p.Next.Level != 3 {
		t.Fatalf("unexpected levels: %+v", p)
	}
	if p.PointsInLevel != 50 || p.PointsForLevel != 100 || p.PointsRemaining != 50 {
		t.Errorf("unexpected point split: %+v", p)
	}
	if p.Percentage != 50 {
		t.Errorf("expected 50%%, got %d", p.Percentage)
	}

	top := e.Progress(3000)
	if top.Next != nil || top.Percentage != 100 || top.PointsRemaining != 0 {
		t.Errorf("unexpected top progress: %+v", top)
	}
}

func TestProgressForBadge(t *testing.T) {
	c := DefaultCatalog()
	silver, _ := c.Badge("mecenes-plata")

	p := models.Profile{}
	p.TotalContributed = models.Euros(25)
	got, ok := ProgressFor(silver, p)
	if !ok {
		t.Fatal("expected progress")
	}
	if got.Actual != 25 || got.Target != 50 || got.Percentage != 50 {
		t.Errorf("unexpected progress: %+v", got)
	}

	founder, _ := c.Badge("fundador")
	if _, ok := ProgressFor(founder, p); ok {
		t.Error("member-number cap has no progress")
	}
}
