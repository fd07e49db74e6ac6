package classify

import (
	"testing"
	"time"

	"ndz_monitor/internal/geofence"
	"ndz_monitor/internal/storage"
)

func fp(v float64) *float64     { return &v }
func sp(v string) *string       { return &v }
func tp(v time.Time) *time.Time { return &v }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name  string
		drone storage.Drone
		want  Category
	}{
		{
			name:  "violating without pilot link",
			drone: storage.Drone{SerialNumber: "D1", IsViolatingNDZ: true},
			want:  CategoryCurrentlyViolating,
		},
		{
			name:  "not violating without pilot link",
			drone: storage.Drone{SerialNumber: "D2", IsViolatingNDZ: false},
			want:  CategoryRecentlyViolating,
		},
		{
			name:  "pilot link wins over clear flag",
			drone: storage.Drone{SerialNumber: "D3", IsViolatingNDZ: false, ViolatedPilotID: sp("P1")},
			want:  CategoryAttributed,
		},
		{
			name:  "pilot link wins over set flag",
			drone: storage.Drone{SerialNumber: "D4", IsViolatingNDZ: true, ViolatedPilotID: sp("P2")},
			want:  CategoryAttributed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.drone); got != tt.want {
				t.Errorf("Categorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Every drone must land in exactly one category: counts must sum to the
// input size and the position partitions must not share points.
func TestBuild_PartitionComplete(t *testing.T) {
	drones := []storage.Drone{
		{SerialNumber: "A", IsViolatingNDZ: true, PositionX: fp(250000), PositionY: fp(250000)},
		{SerialNumber: "B", IsViolatingNDZ: false, PositionX: fp(400000), PositionY: fp(100000)},
		{SerialNumber: "C", IsViolatingNDZ: true, ViolatedPilotID: sp("P1"), PositionX: fp(300000), PositionY: fp(250000)},
		{SerialNumber: "D", IsViolatingNDZ: false, ViolatedPilotID: sp("P2"), PositionX: fp(100000), PositionY: fp(100000)},
		{SerialNumber: "E", IsViolatingNDZ: true}, // no telemetry yet
	}

	snap := Classifier{Zone: geofence.Default()}.Build(drones, nil, time.Now())

	if got := snap.Counts.Total(); got != len(drones) {
		t.Fatalf("Counts.Total() = %d, want %d", got, len(drones))
	}
	if snap.Counts.CurrentlyViolating != 2 {
		t.Errorf("CurrentlyViolating = %d, want 2", snap.Counts.CurrentlyViolating)
	}
	if snap.Counts.RecentlyViolating != 1 {
		t.Errorf("RecentlyViolating = %d, want 1", snap.Counts.RecentlyViolating)
	}
	if snap.Counts.Attributed != 2 {
		t.Errorf("Attributed = %d, want 2", snap.Counts.Attributed)
	}

	if len(snap.Drones) != len(drones) {
		t.Fatalf("len(Drones) = %d, want %d", len(snap.Drones), len(drones))
	}

	// Each drone appears exactly once in the table output.
	seen := map[string]int{}
	for _, d := range snap.Drones {
		seen[d.SerialNumber]++
	}
	for _, d := range drones {
		if seen[d.SerialNumber] != 1 {
			t.Errorf("drone %s appears %d times, want 1", d.SerialNumber, seen[d.SerialNumber])
		}
	}

	// Position partitions: E has no coordinates and is plotted nowhere.
	gotPos := len(snap.Positions.CurrentlyViolating) +
		len(snap.Positions.RecentlyViolating) +
		len(snap.Positions.Attributed)
	if gotPos != 4 {
		t.Errorf("plotted positions = %d, want 4", gotPos)
	}
}

func TestBuild_Scenarios(t *testing.T) {
	drones := []storage.Drone{
		{SerialNumber: "D1", PositionX: fp(250000), PositionY: fp(250000), IsViolatingNDZ: true},
		{SerialNumber: "D2", PositionX: fp(350000), PositionY: fp(250000), IsViolatingNDZ: false, ViolatedPilotID: sp("P1")},
	}

	snap := Classifier{Zone: geofence.Default()}.Build(drones, nil, time.Now())

	byID := map[string]DroneView{}
	for _, d := range snap.Drones {
		byID[d.SerialNumber] = d
	}

	d1 := byID["D1"]
	if d1.DistanceFromNestM == nil || *d1.DistanceFromNestM != 0 {
		t.Errorf("D1 distance = %v, want 0", d1.DistanceFromNestM)
	}
	if d1.Category != "currently_violating" {
		t.Errorf("D1 category = %q, want %q", d1.Category, "currently_violating")
	}

	d2 := byID["D2"]
	if d2.DistanceFromNestM == nil || *d2.DistanceFromNestM != 100 {
		t.Errorf("D2 distance = %v, want 100", d2.DistanceFromNestM)
	}
	if d2.Category != "attributed" {
		t.Errorf("D2 category = %q, want %q", d2.Category, "attributed")
	}
	if !d2.Attributed {
		t.Error("D2 not marked attributed")
	}
}

func TestBuild_DroneSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	drones := []storage.Drone{
		{SerialNumber: "old", UpdatedAt: base.Add(-time.Hour)},
		{SerialNumber: "new", UpdatedAt: base},
		{SerialNumber: "mid", UpdatedAt: base.Add(-time.Minute)},
	}

	snap := Classifier{Zone: geofence.Default()}.Build(drones, nil, base)

	want := []string{"new", "mid", "old"}
	for i, w := range want {
		if snap.Drones[i].SerialNumber != w {
			t.Errorf("Drones[%d] = %q, want %q", i, snap.Drones[i].SerialNumber, w)
		}
	}
}

func TestBuild_PilotSortOldestViolationFirst(t *testing.T) {
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	pilots := []storage.ViolatedPilot{
		{PilotID: "recent", LastViolationAt: tp(base)},
		{PilotID: "none"}, // no violation timestamp sorts last
		{PilotID: "oldest", LastViolationAt: tp(base.Add(-time.Hour))},
	}

	snap := Classifier{Zone: geofence.Default()}.Build(nil, pilots, base)

	want := []string{"oldest", "recent", "none"}
	for i, w := range want {
		if snap.Pilots[i].PilotID != w {
			t.Errorf("Pilots[%d] = %q, want %q", i, snap.Pilots[i].PilotID, w)
		}
	}
}

func TestBuild_PilotDistances(t *testing.T) {
	pilots := []storage.ViolatedPilot{
		{
			PilotID:           "P1",
			LastViolationX:    fp(350000),
			LastViolationY:    fp(250000),
			NearestViolationX: fp(250000),
			NearestViolationY: fp(250000),
		},
		{PilotID: "P2"}, // positions never recorded
	}

	snap := Classifier{Zone: geofence.Default()}.Build(nil, pilots, time.Now())

	p1 := snap.Pilots[0]
	if p1.LastViolationDistanceM == nil || *p1.LastViolationDistanceM != 100 {
		t.Errorf("P1 last violation distance = %v, want 100", p1.LastViolationDistanceM)
	}
	if p1.NearestViolationDistanceM == nil || *p1.NearestViolationDistanceM != 0 {
		t.Errorf("P1 nearest violation distance = %v, want 0", p1.NearestViolationDistanceM)
	}

	p2 := snap.Pilots[1]
	if p2.LastViolationDistanceM != nil || p2.NearestViolationDistanceM != nil {
		t.Error("P2 distances should be missing, not computed")
	}

	if len(snap.Positions.LastViolations) != 1 || len(snap.Positions.NearestViolations) != 1 {
		t.Errorf("violation positions = %d/%d, want 1/1",
			len(snap.Positions.LastViolations), len(snap.Positions.NearestViolations))
	}
}
