// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package events delivers fire-and-forget domain notifications.
package events

import (
	"log/slog"
	"sync"

	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/models"
)

type Kind string

const (
	ProfileChanged Kind = "profile_changed"
	BadgeEarned    Kind = "badge_earned"
	LevelChanged   Kind = "level_changed"
)

// Event carries the payload for its kind. Badge is set for BadgeEarned;
// OldLevel and NewLevel for LevelChanged.
type Event struct {
	Kind     Kind
	Profile  models.Profile
	Badge    loyalty.Badge
	OldLevel int
	NewLevel int
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Bus fans events out to listeners synchronously, in subscription order.
// A panicking listener is logged and does not affect the others.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every listener. Publishing on a nil Bus is a no-op.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		deliver(s.fn, e)
	}
}

func deliver(fn Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("event listener panicked", "kind", e.Kind, "panic", r)
		}
	}()
	fn(e)
}

// LogListener records every event at info level.
func LogListener(e Event) {
	switch e.Kind {
	case BadgeEarned:
		slog.Info("badge earned", "profile_id", e.Profile.ID, "badge_id", e.Badge.ID)
	case LevelChanged:
		slog.Info("level changed", "profile_id", e.Profile.ID, "old_level", e.OldLevel, "new_level", e.NewLevel)
	default:
		slog.Debug("profile changed", "profile_id", e.Profile.ID, "points_total", e.Profile.PointsTotal)
	}
}
