// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package loyalty implements points, levels and badges.

Nothing in this package performs I/O or returns runtime errors. Invalid
input (a non-positive contribution amount) is a caller bug and panics.

# Points

	floor(amount * 10)       per contribution (amount in euros)
	+25                      on the first contribution
	+2 / +15 / +5 / +10      per vote / proposal / share / correction

Points are fully derivable from the contribution history plus the activity
counters, which is what Engine.Derive does.

# Levels

LevelTable.ForPoints scans from the highest threshold down and returns the
first entry whose threshold does not exceed the points.

# Badges

Each badge declares a set of thresholds (Requirements). A badge qualifies
when every declared threshold is met; undeclared fields are ignored. Secret
badges are evaluated exactly like public ones and are only hidden from
Catalog.Public.

# Catalog Files

The built-in tables can be replaced with a YAML file:

	levels:
	  - {level: 1, title: Lector Curiós, points: 0}
	  - {level: 2, title: Descobridor de Clàssics, points: 50}
	badges:
	  - id: mecenes-plata
	    name: Mecenes de Plata
	    category: mecenatge
	    points: 50
	    requires: {min_total: 50}
*/
package loyalty
