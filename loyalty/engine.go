// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"fmt"
	"sort"
	"time"

	"github.com/polTorrent/biblioteca-universal-arion/models"
)

// Point awards
const (
	PointsPerEuro          = 10
	FirstContributionBonus = 25
	PointsPerVote          = 2
	PointsPerProposal      = 15
	PointsPerShare         = 5
	PointsPerCorrection    = 10
	PointsPerWorkRead      = 0
)

// Engine evaluates points, levels and badges against a catalog.
// It performs no I/O.
type Engine struct {
	catalog Catalog
}

func NewEngine(c Catalog) *Engine {
	return &Engine{catalog: c}
}

func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// PointsForContribution returns floor(amount*10), plus the first-contribution
// bonus. amount must be positive.
func PointsForContribution(amount models.Money, isFirst bool) int {
	if amount <= 0 {
		panic(fmt.Sprintf("loyalty: non-positive contribution amount %d", amount))
	}
	points := int(amount) * PointsPerEuro / 100
	if isFirst {
		points += FirstContributionBonus
	}
	return points
}

// PointsForActivity returns the award for one activity of the given kind.
func PointsForActivity(kind string) (int, bool) {
	switch kind {
	case models.ActivityVote:
		return PointsPerVote, true
	case models.ActivityProposal:
		return PointsPerProposal, true
	case models.ActivityShare:
		return PointsPerShare, true
	case models.ActivityCorrection:
		return PointsPerCorrection, true
	case models.ActivityRead:
		return PointsPerWorkRead, true
	}
	return 0, false
}

func (e *Engine) LevelForPoints(points int) LevelEntry {
	return e.catalog.Levels.ForPoints(points)
}

// BadgesEarned returns the catalog badges p newly qualifies for, in
// declaration order. Badges already held are skipped.
func (e *Engine) BadgesEarned(p models.Profile) []Badge {
	var out []Badge
	for _, b := range e.catalog.Badges {
		if p.HasBadge(b.ID) {
			continue
		}
		if b.Requires.Satisfied(p) {
			out = append(out, b)
		}
	}
	return out
}

// Derive recomputes the aggregates of p from its full contribution history and
// activity counters. Points never go below the stored total.
func (e *Engine) Derive(p models.Profile, history []models.Contribution) models.Stats {
	s := p.Stats
	s.TotalContributed = 0
	s.ContributionCount = len(history)

	works := make(map[string]bool)
	fullyFunded := make(map[string]bool)
	days := make(map[time.Time]bool)
	points := 0
	for _, c := range history {
		s.TotalContributed += c.Amount
		works[c.WorkID] = true
		if c.Kind == models.KindIndividual {
			fullyFunded[c.WorkID] = true
		}
		days[dayOf(c.CreatedAt)] = true
		if c.Amount > 0 {
			points += PointsForContribution(c.Amount, false)
		}
	}
	if len(history) > 0 {
		points += FirstContributionBonus
	}
	s.DistinctWorksCount = len(works)
	s.FullyFundedCount = len(fullyFunded)
	s.LongestStreakDays = longestStreak(days)

	points += ActivityPoints(s)
	if points < p.PointsTotal {
		points = p.PointsTotal
	}
	s.PointsTotal = points
	lvl := e.LevelForPoints(points)
	s.Level = lvl.Level
	s.Title = lvl.Title
	return s
}

// ActivityPoints is the share of the point total earned through activities.
func ActivityPoints(s models.Stats) int {
	return s.VoteCount*PointsPerVote +
		s.ProposalCount*PointsPerProposal +
		s.ShareCount*PointsPerShare +
		s.CorrectionCount*PointsPerCorrection +
		s.WorksReadCount*PointsPerWorkRead
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// longestStreak returns the longest run of consecutive calendar days.
func longestStreak(days map[time.Time]bool) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sub(sorted[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
