package types

import "testing"

func TestDirectionWindowContains(t *testing.T) {
	t.Run("wrapping window through north", func(t *testing.T) {
		w := DirectionWindow{From: 315, To: 135}
		if !w.Wraps() {
			t.Fatal("expected window to wrap")
		}
		for _, deg := range []int{315, 350, 359, 0, 10, 135} {
			if !w.Contains(deg) {
				t.Errorf("Contains(%d): got false, want true", deg)
			}
		}
		for _, deg := range []int{136, 200, 314} {
			if w.Contains(deg) {
				t.Errorf("Contains(%d): got true, want false", deg)
			}
		}
	})

	t.Run("plain window, bounds inclusive", func(t *testing.T) {
		w := DirectionWindow{From: 90, To: 180}
		if w.Wraps() {
			t.Fatal("expected window not to wrap")
		}
		for _, deg := range []int{90, 135, 180} {
			if !w.Contains(deg) {
				t.Errorf("Contains(%d): got false, want true", deg)
			}
		}
		for _, deg := range []int{89, 181, 0, 359} {
			if w.Contains(deg) {
				t.Errorf("Contains(%d): got true, want false", deg)
			}
		}
	})

	t.Run("out-of-range degrees are normalized", func(t *testing.T) {
		w := DirectionWindow{From: 90, To: 180}
		if !w.Contains(450) { // 450 -> 90
			t.Error("Contains(450): got false, want true")
		}
		if !w.Contains(-270) { // -270 -> 90
			t.Error("Contains(-270): got false, want true")
		}
	})
}

func TestSiteSupportsSport(t *testing.T) {
	site := &Site{ID: "tarifa", Sports: []Sport{SportWingfoil, SportKitesurfing}}
	if !site.SupportsSport(SportWingfoil) {
		t.Error("expected wingfoil to be supported")
	}
	if site.SupportsSport(SportSurfing) {
		t.Error("expected surfing not to be supported")
	}
}

func TestParseSport(t *testing.T) {
	tests := []struct {
		raw  string
		want Sport
	}{
		{"wingfoil", SportWingfoil},
		{"kitesurfing", SportKitesurfing},
		{"windsurfing", SportWindsurfing},
		{"surfing", SportSurfing},
		{"", DefaultSport},
		{"snowboarding", DefaultSport},
		{"WINGFOIL", DefaultSport}, // tags are case sensitive
	}
	for _, tt := range tests {
		if got := ParseSport(tt.raw); got != tt.want {
			t.Errorf("ParseSport(%q): got %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestAllSportsMatchesClosedSet(t *testing.T) {
	sports := AllSports()
	if len(sports) != len(allSports) {
		t.Fatalf("AllSports returned %d sports, closed set has %d", len(sports), len(allSports))
	}
	for _, sport := range sports {
		if _, ok := allSports[sport]; !ok {
			t.Errorf("AllSports returned %q which is not in the closed set", sport)
		}
	}
}
