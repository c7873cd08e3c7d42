// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"math"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

// LevelProgress describes how far a point total is into its level.
type LevelProgress struct {
	Current         LevelEntry  `json:"current"`
	Next            *LevelEntry `json:"next,omitempty"`
	Percentage      int         `json:"percentage"`
	PointsInLevel   int         `json:"points_in_level"`
	PointsForLevel  int         `json:"points_for_level,omitempty"`
	PointsRemaining int         `json:"points_remaining"`
}

// Progress computes the progress toward the next level. At the top level the
// percentage is 100 and nothing remains.
func (e *Engine) Progress(points int) LevelProgress {
	cur := e.LevelForPoints(points)
	next, ok := e.catalog.Levels.Next(cur.Level)
	if !ok {
		return LevelProgress{Current: cur, Percentage: 100, PointsInLevel: points}
	}

	inLevel := points - cur.PointsThreshold
	span := next.PointsThreshold - cur.PointsThreshold
	return LevelProgress{
		Current:         cur,
		Next:            &next,
		Percentage:      percent(float64(inLevel), float64(span)),
		PointsInLevel:   inLevel,
		PointsForLevel:  span,
		PointsRemaining: next.PointsThreshold - points,
	}
}

// BadgeProgress reports progress on the first declared threshold of b.
type BadgeProgress struct {
	BadgeID    string  `json:"badge_id"`
	Field      string  `json:"field"`
	Actual     float64 `json:"actual"`
	Target     float64 `json:"target"`
	Percentage int     `json:"percentage"`
}

// ProgressFor returns progress toward b for p, or false when the first
// declared threshold is not a minimum (e.g. a member-number cap).
func ProgressFor(b Badge, p models.Profile) (BadgeProgress, bool) {
	ts := b.Requires.thresholds()
	if len(ts) == 0 || ts[0].atMost {
		return BadgeProgress{}, false
	}
	t := ts[0]
	actual, target := t.actual(p), t.target
	if t.field == "min_total" {
		// report euros rather than cents
		actual, target = actual/100, target/100
	}
	return BadgeProgress{
		BadgeID:    b.ID,
		Field:      t.field,
		Actual:     actual,
		Target:     target,
		Percentage: percent(actual, target),
	}, true
}

func percent(v, total float64) int {
	if total <= 0 {
		return 100
	}
	return int(math.Min(100, math.Round(v/total*100)))
}
