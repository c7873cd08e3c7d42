// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"github.com/polTorrent/biblioteca-universal-arion/models"
)

// Badge categories
const (
	CategoryPatronage = "mecenatge"
	CategoryCommunity = "comunitat"
	CategorySecret    = "secreta"
)

// Requirements declares the thresholds a badge needs. Nil fields are not
// declared and are ignored; every declared field must be satisfied.
type Requirements struct {
	MinContributions *int     `json:"min_aportacions,omitempty" yaml:"min_aportacions,omitempty"`
	MinTotal         *float64 `json:"min_total,omitempty" yaml:"min_total,omitempty"` // euros
	MinWorks         *int     `json:"min_obres,omitempty" yaml:"min_obres,omitempty"`
	MinVotes         *int     `json:"min_vots,omitempty" yaml:"min_vots,omitempty"`
	MinProposals     *int     `json:"min_propostes,omitempty" yaml:"min_propostes,omitempty"`
	MinCorrections   *int     `json:"min_correccions,omitempty" yaml:"min_correccions,omitempty"`
	MinShares        *int     `json:"min_compartits,omitempty" yaml:"min_compartits,omitempty"`
	MinWorksRead     *int     `json:"obres_llegides,omitempty" yaml:"obres_llegides,omitempty"`
	MinStreakDays    *int     `json:"dies_seguits,omitempty" yaml:"dies_seguits,omitempty"`
	MaxMemberNumber  *int     `json:"max_numero_soci,omitempty" yaml:"max_numero_soci,omitempty"`
	FullFunding      *bool    `json:"financament_complet,omitempty" yaml:"financament_complet,omitempty"`
}

type Badge struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Description   string       `json:"description" yaml:"description"`
	Icon          string       `json:"icon" yaml:"icon"`
	Category      string       `json:"category" yaml:"category"`
	PointsAwarded int          `json:"points_awarded" yaml:"points"`
	Requires      Requirements `json:"requires" yaml:"requires"`
	Secret        bool         `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// threshold is one declared requirement resolved against a profile statistic.
type threshold struct {
	field  string
	target float64
	actual func(models.Profile) float64
	atMost bool
}

func (t threshold) met(p models.Profile) bool {
	v := t.actual(p)
	if t.atMost {
		// zero means the statistic is unknown
		return v > 0 && v <= t.target
	}
	return v >= t.target
}

func intStat(f func(models.Stats) int) func(models.Profile) float64 {
	return func(p models.Profile) float64 { return float64(f(p.Stats)) }
}

func (r Requirements) thresholds() []threshold {
	var out []threshold
	add := func(field string, target *int, f func(models.Stats) int) {
		if target != nil {
			out = append(out, threshold{field: field, target: float64(*target), actual: intStat(f)})
		}
	}
	add("min_aportacions", r.MinContributions, func(s models.Stats) int { return s.ContributionCount })
	if r.MinTotal != nil {
		out = append(out, threshold{
			field:  "min_total",
			target: float64(models.Euros(*r.MinTotal)),
			actual: func(p models.Profile) float64 { return float64(p.TotalContributed) },
		})
	}
	add("min_obres", r.MinWorks, func(s models.Stats) int { return s.DistinctWorksCount })
	add("min_vots", r.MinVotes, func(s models.Stats) int { return s.VoteCount })
	add("min_propostes", r.MinProposals, func(s models.Stats) int { return s.ProposalCount })
	add("min_correccions", r.MinCorrections, func(s models.Stats) int { return s.CorrectionCount })
	add("min_compartits", r.MinShares, func(s models.Stats) int { return s.ShareCount })
	add("obres_llegides", r.MinWorksRead, func(s models.Stats) int { return s.WorksReadCount })
	add("dies_seguits", r.MinStreakDays, func(s models.Stats) int { return s.LongestStreakDays })
	if r.MaxMemberNumber != nil {
		out = append(out, threshold{
			field:  "max_numero_soci",
			target: float64(*r.MaxMemberNumber),
			actual: func(p models.Profile) float64 { return float64(p.MemberNumber) },
			atMost: true,
		})
	}
	if r.FullFunding != nil && *r.FullFunding {
		out = append(out, threshold{
			field:  "financament_complet",
			target: 1,
			actual: intStat(func(s models.Stats) int { return s.FullyFundedCount }),
		})
	}
	return out
}

// Declared reports whether at least one threshold is declared.
func (r Requirements) Declared() bool {
	return len(r.thresholds()) > 0
}

// Satisfied reports whether p meets every declared threshold. A badge with
// nothing declared never qualifies.
func (r Requirements) Satisfied(p models.Profile) bool {
	ts := r.thresholds()
	if len(ts) == 0 {
		return false
	}
	for _, t := range ts {
		if !t.met(p) {
			return false
		}
	}
	return true
}

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool { return &v }

// DefaultBadges is the badge catalog in declaration order.
var DefaultBadges = []Badge{
	{ID: "primera-gota", Name: "Primera Gota", Description: "Has fet la teva primera aportació", Icon: "💧",
		Category: CategoryPatronage, PointsAwarded: 10, Requires: Requirements{MinContributions: intp(1)}},
	{ID: "mecenes-bronze", Name: "Mecenes de Bronze", Description: "Has aportat més de 10€", Icon: "🥉",
		Category: CategoryPatronage, PointsAwarded: 25, Requires: Requirements{MinTotal: floatp(10)}},
	{ID: "mecenes-plata", Name: "Mecenes de Plata", Description: "Has aportat més de 50€", Icon: "🥈",
		Category: CategoryPatronage, PointsAwarded: 50, Requires: Requirements{MinTotal: floatp(50)}},
	{ID: "mecenes-or", Name: "Mecenes d'Or", Description: "Has aportat més de 100€", Icon: "🥇",
		Category: CategoryPatronage, PointsAwarded: 100, Requires: Requirements{MinTotal: floatp(100)}},
	{ID: "mecenes-diamant", Name: "Mecenes de Diamant", Description: "Has aportat més de 500€", Icon: "💎",
		Category: CategoryPatronage, PointsAwarded: 250, Requires: Requirements{MinTotal: floatp(500)}},
	{ID: "colleccionista", Name: "Col·leccionista", Description: "Has patrocinat 5 obres diferents", Icon: "🗃️",
		Category: CategoryPatronage, PointsAwarded: 75, Requires: Requirements{MinWorks: intp(5)}},
	{ID: "patrocinador-exclusiu", Name: "Patrocinador Exclusiu", Description: "Has finançat una traducció sencera", Icon: "🌟",
		Category: CategoryPatronage, PointsAwarded: 200, Requires: Requirements{FullFunding: boolp(true)}},

	{ID: "veu-activa", Name: "Veu Activa", Description: "Has votat 10 propostes", Icon: "🗳️",
		Category: CategoryCommunity, PointsAwarded: 20, Requires: Requirements{MinVotes: intp(10)}},
	{ID: "proposador", Name: "Proposador", Description: "Has proposat una traducció", Icon: "💡",
		Category: CategoryCommunity, PointsAwarded: 30, Requires: Requirements{MinProposals: intp(1)}},
	{ID: "ull-atent", Name: "Ull Atent", Description: "Has reportat un error de traducció", Icon: "👁️",
		Category: CategoryCommunity, PointsAwarded: 15, Requires: Requirements{MinCorrections: intp(1)}},
	{ID: "influencer", Name: "Influencer", Description: "Has compartit 5 obres a xarxes socials", Icon: "📢",
		Category: CategoryCommunity, PointsAwarded: 25, Requires: Requirements{MinShares: intp(5)}},

	{ID: "fundador", Name: "Fundador", Description: "Ets dels primers 100 usuaris registrats", Icon: "🏆",
		Category: CategorySecret, PointsAwarded: 100, Requires: Requirements{MaxMemberNumber: intp(100)}, Secret: true},
	{ID: "maratonista", Name: "Maratonista", Description: "Has aportat 7 dies seguits", Icon: "🏃",
		Category: CategorySecret, PointsAwarded: 50, Requires: Requirements{MinStreakDays: intp(7)}, Secret: true},
	{ID: "filolog", Name: "Fil·lòleg", Description: "Has llegit més de 10 obres completes", Icon: "📜",
		Category: CategorySecret, PointsAwarded: 60, Requires: Requirements{MinWorksRead: intp(10)}, Secret: true},
}
