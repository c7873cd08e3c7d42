// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records contributions and community activity against a profile.

# Recording a contribution

	res, err := proc.RecordContribution(ctx, profileID, models.RecordContributionRequest{
		WorkID: "odissea", WorkTitle: "L'Odissea", Amount: 12.5, Kind: models.KindCollective,
	})

The contribution row is written first. Only once it is durable are the profile
aggregates re-derived from the full history (loyalty.Engine.Derive) and written
back with the version that was read. Badges are then awarded one row at a time.

# Failures

  - ErrInvalidInput: rejected before any write
  - store.ErrStoreUnavailable on the contribution write: nothing changed
  - ErrPartialFailure: the contribution is stored but the aggregates are not;
    Reconcile (or the next contribution) repairs them without double counting
  - version conflicts are retried internally

Badge writes never fail the operation. A duplicate means the badge is already
held; any other error is logged and the badge is awarded on the next
evaluation.

# Events

Every successful operation publishes ProfileChanged, one BadgeEarned per new
badge, and LevelChanged when the level went up.
*/
package ledger
