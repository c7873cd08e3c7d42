// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the ledger.

# Domain Types

  - Profile: per-user loyalty state; embeds Stats (derived aggregates)
  - Contribution: one immutable monetary pledge toward a work
  - EarnedBadge: a badge awarded to a profile, at most once
  - Favorite, CartItem: per-profile collections
  - RankingEntry: one row of the remote points ranking

# Money

Amounts are stored as Money (int64 euro cents). Request types carry decimal
euros and are converted with Euros:

	models.Euros(12.5) // 1250

Money.String renders a grouped euro amount such as "1,250.5 €".

# Patches

ProfilePatch describes a partial update. Display fields are pointers, so a
nil field is left untouched. Stats replaces all aggregates at once and is
never accepted from JSON. ExpectedVersion enables optimistic concurrency.

# Constants

Contribution kinds:

	KindIndividual = "individual"
	KindCollective = "collective"

Activity kinds:

	ActivityVote, ActivityProposal, ActivityShare, ActivityCorrection, ActivityRead
*/
package models
