// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package migration moves a device's local history into the remote store the
first time its owner signs in remotely.

# State machine

Two states, NotMigrated and Migrated, persisted as the device-local flag
FlagKey. Transition is the only place the rules live:

	NotMigrated + SignedIn (local profile, same email) -> RunMigration
	NotMigrated + Completed                            -> Migrated, PersistFlag
	NotMigrated + anything else                        -> no action
	Migrated    + anything                             -> no action

# A run

  - display fields (name, surname, bio, newsletter) are copied when set locally
  - activity counters are merged by maximum
  - every local contribution is inserted remotely with its original id and
    timestamp; rows already present count as copied
  - favorites are copied the same way
  - the remote profile is reconciled, which derives points, level and badges

The flag is written only after all of that succeeded. Any failure returns
ErrMigrationIncomplete and the next sign-in starts again from the top.
*/
package migration
