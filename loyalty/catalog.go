// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loyalty

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog bundles the level table and the badge catalog.
type Catalog struct {
	Levels LevelTable `json:"levels" yaml:"levels"`
	Badges []Badge    `json:"badges" yaml:"badges"`
}

// DefaultCatalog returns the built-in tables.
func DefaultCatalog() Catalog {
	return Catalog{Levels: DefaultLevels, Badges: DefaultBadges}
}

// LoadCatalog reads a YAML catalog file. Sections missing from the file fall
// back to the built-in tables.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Levels) == 0 {
		c.Levels = DefaultLevels
	}
	if len(c.Badges) == 0 {
		c.Badges = DefaultBadges
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks the level table and badge definitions.
func (c Catalog) Validate() error {
	if err := c.Levels.Validate(); err != nil {
		return fmt.Errorf("invalid level table: %w", err)
	}
	seen := make(map[string]bool, len(c.Badges))
	for _, b := range c.Badges {
		if b.ID == "" {
			return fmt.Errorf("badge %q has no id", b.Name)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = true
		if !b.Requires.Declared() {
			return fmt.Errorf("badge %q declares no requirements", b.ID)
		}
	}
	return nil
}

// Badge looks up a badge by id.
func (c Catalog) Badge(id string) (Badge, bool) {
	for _, b := range c.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Public lists the badges that are not secret, in declaration order.
func (c Catalog) Public() []Badge {
	out := make([]Badge, 0, len(c.Badges))
	for _, b := range c.Badges {
		if !b.Secret {
			out = append(out, b)
		}
	}
	return out
}

// ByCategory lists the public badges of one category.
func (c Catalog) ByCategory(category string) []Badge {
	var out []Badge
	for _, b := range c.Public() {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}
