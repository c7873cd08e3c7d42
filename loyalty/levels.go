// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"errors"
	"fmt"
)

// LevelEntry is one row of the level table.
type LevelEntry struct {
	Level           int    `json:"level" yaml:"level"`
	Name            string `json:"name" yaml:"name"`
	Title           string `json:"title" yaml:"title"`
	PointsThreshold int    `json:"points_threshold" yaml:"points"`
	Icon            string `json:"icon" yaml:"icon"`
	Color           string `json:"color" yaml:"color"`
}

// LevelTable is sorted ascending by threshold; the first entry has threshold 0.
type LevelTable []LevelEntry

// DefaultLevels is the level table shipped with the ledger.
var DefaultLevels = LevelTable{
	{Level: 1, Name: "Lector", Title: "Lector Curiós", PointsThreshold: 0, Icon: "📖", Color: "#8B7355"},
	{Level: 2, Name: "Descobridor", Title: "Descobridor de Clàssics", PointsThreshold: 50, Icon: "🔍", Color: "#6B8E23"},
	{Level: 3, Name: "Bibliòfil", Title: "Bibliòfil Dedicat", PointsThreshold: 150, Icon: "📚", Color: "#4682B4"},
	{Level: 4, Name: "Mecenes", Title: "Mecenes de les Lletres", PointsThreshold: 300, Icon: "🎭", Color: "#9370DB"},
	{Level: 5, Name: "Patrocinador", Title: "Patrocinador Cultural", PointsThreshold: 500, Icon: "🏛️", Color: "#DAA520"},
	{Level: 6, Name: "Benefactor", Title: "Benefactor de la Cultura", PointsThreshold: 1000, Icon: "👑", Color: "#CD853F"},
	{Level: 7, Name: "Llegenda", Title: "Llegenda d'Arion", PointsThreshold: 2500, Icon: "⭐", Color: "#FFD700"},
}

// ForPoints returns the entry with the greatest threshold not exceeding points.
// The table is scanned from the top down and the first match wins.
func (t LevelTable) ForPoints(points int) LevelEntry {
	for i := len(t) - 1; i >= 0; i-- {
		if points >= t[i].PointsThreshold {
			return t[i]
		}
	}
	return t[0]
}

// Next returns the entry following level, or false at the top of the table.
func (t LevelTable) Next(level int) (LevelEntry, bool) {
	for i, e := range t {
		if e.Level == level && i+1 < len(t) {
			return t[i+1], true
		}
	}
	return LevelEntry{}, false
}

// Validate checks the ordering invariants of the table.
func (t LevelTable) Validate() error {
	if len(t) == 0 {
		return errors.New("level table is empty")
	}
	if t[0].PointsThreshold != 0 {
		return fmt.Errorf("level %d must have threshold 0, got %d", t[0].Level, t[0].PointsThreshold)
	}
	if t[0].Level != 1 {
		return fmt.Errorf("first level must be 1, got %d", t[0].Level)
	}
	for i := 1; i < len(t); i++ {
		if t[i].Level <= t[i-1].Level {
			return fmt.Errorf("level %d is not greater than level %d", t[i].Level, t[i-1].Level)
		}
		if t[i].PointsThreshold <= t[i-1].PointsThreshold {
			return fmt.Errorf("threshold of level %d (%d) is not greater than %d",
				t[i].Level, t[i].PointsThreshold, t[i-1].PointsThreshold)
		}
	}
	return nil
}
