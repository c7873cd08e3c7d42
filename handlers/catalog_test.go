// Copyright (c) 2025 Biblioteca Universal Arion.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/polTorrent/biblioteca-universal-arion/loyalty"
	"github.com/polTorrent/biblioteca-universal-arion/testutil"
)

func TestLevels(t *testing.T) {
	handler := NewCatalogHandler(loyalty.NewEngine(loyalty.DefaultCatalog()))

	w := call(handler.Levels, testutil.MakeRequest("GET", "/levels", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var levels []loyalty.LevelEntry
	testutil.AssertJSON(t, w, &levels)
	if len(levels) != 7 {
		t.Fatalf("Expected 7 levels, got %d", len(levels))
	}
	if levels[0].PointsThreshold != 0 || levels[6].PointsThreshold != 2500 {
		t.Errorf("Unexpected level bounds: %+v ... %+v", levels[0], levels[6])
	}
}

func TestBadges(t *testing.T) {
	handler := NewCatalogHandler(loyalty.NewEngine(loyalty.DefaultCatalog()))

	testCases := []struct {
		name     string
		query    string
		expected int
		count    int
	}{
		{"all public", "", http.StatusOK, 11},
		{"patronage", "?category=" + loyalty.CategoryPatronage, http.StatusOK, 7},
		{"community", "?category=" + loyalty.CategoryCommunity, http.StatusOK, 4},
		{"secret stays hidden", "?category=" + loyalty.CategorySecret, http.StatusOK, 0},
		{"unknown category", "?category=misc", http.StatusBadRequest, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(handler.Badges, testutil.MakeRequest("GET", "/badges"+tc.query, nil, nil))
			testutil.AssertStatus(t, w, tc.expected)
			if tc.count < 0 {
				return
			}

			var badges []loyalty.Badge
			testutil.AssertJSON(t, w, &badges)
			if len(badges) != tc.count {
				t.Errorf("Expected %d badges, got %d", tc.count, len(badges))
			}
			for _, b := range badges {
				if b.Secret {
					t.Errorf("Secret badge %s listed", b.ID)
				}
			}
		})
	}
}
