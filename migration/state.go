// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package migration

type State int

const (
	NotMigrated State = iota
	Migrated
)

func (s State) String() string {
	if s == Migrated {
		return "migrated"
	}
	return "not_migrated"
}

// Event drives the state machine.
type Event int

const (
	SignedIn Event = iota
	SignedOut
	Completed
	Failed
)

// Action is the side effect the coordinator must perform.
type Action int

const (
	NoAction Action = iota
	RunMigration
	PersistFlag
)

// Input is an event with the guard facts known when it happened.
type Input struct {
	Event        Event
	LocalProfile bool
	EmailMatches bool
}

// Transition is the whole migration protocol. Once Migrated nothing happens
// again; a failed run leaves the state untouched so the next sign-in retries.
func Transition(s State, in Input) (State, Action) {
	if s == Migrated {
		return Migrated, NoAction
	}
	switch in.Event {
	case SignedIn:
		if in.LocalProfile && in.EmailMatches {
			return NotMigrated, RunMigration
		}
	case Completed:
		return Migrated, PersistFlag
	}
	return NotMigrated, NoAction
}
