// Package classify partitions drone records by their relationship to
// violation state and assembles the per-cycle snapshot handed to the
// presentation boundary.
package classify

import (
	"sort"
	"time"

	"ndz_monitor/internal/geofence"
	"ndz_monitor/internal/storage"
)

// Category identifies which of the three disjoint classes a drone falls in.
// Every drone belongs to exactly one category at any read.
type Category int

const (
	// CategoryCurrentlyViolating: inside the zone right now, violation not
	// yet attributed to a pilot record.
	CategoryCurrentlyViolating Category = iota
	// CategoryRecentlyViolating: violation not yet attributed and the drone
	// has left the zone.
	CategoryRecentlyViolating
	// CategoryAttributed: linked to a pilot record, regardless of the
	// current violation flag.
	CategoryAttributed
)

// String returns the category name used in logs and the snapshot feed.
func (c Category) String() string {
	switch c {
	case CategoryCurrentlyViolating:
		return "currently_violating"
	case CategoryRecentlyViolating:
		return "recently_violating"
	case CategoryAttributed:
		return "attributed"
	}
	return "unknown"
}

// Categorize places a drone in its category. The pilot link wins over the
// present-tense flag; unlinked drones split on the flag alone.
func Categorize(d storage.Drone) Category {
	if d.ViolatedPilotID != nil {
		return CategoryAttributed
	}
	if d.IsViolatingNDZ {
		return CategoryCurrentlyViolating
	}
	return CategoryRecentlyViolating
}

// DroneView is a drone record annotated for presentation.
type DroneView struct {
	storage.Drone
	DistanceFromNestM *float64 `json:"current_distance_from_nest_in_meter,omitempty"`
	Category          string   `json:"category"`
	Attributed        bool     `json:"attributed"`
}

// PilotView is a pilot violation record annotated for presentation.
type PilotView struct {
	storage.ViolatedPilot
	LastViolationDistanceM    *float64 `json:"last_violation_distance_in_meter,omitempty"`
	NearestViolationDistanceM *float64 `json:"nearest_violation_distance_in_meter,omitempty"`
}

// Point is a plottable position in native units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionSets holds the spatial views: the three classification partitions
// plus all recorded pilot violation positions. Records missing a coordinate
// are omitted here (they cannot be plotted) but still appear in the tables.
type PositionSets struct {
	CurrentlyViolating []Point `json:"currently_violating"`
	RecentlyViolating  []Point `json:"recently_violating"`
	Attributed         []Point `json:"attributed"`
	LastViolations     []Point `json:"last_violations"`
	NearestViolations  []Point `json:"nearest_violations"`
}

// Counts is the per-category drone tally.
type Counts struct {
	CurrentlyViolating int `json:"currently_violating"`
	RecentlyViolating  int `json:"recently_violating"`
	Attributed         int `json:"attributed"`
}

// Total returns the number of classified drones.
func (c Counts) Total() int {
	return c.CurrentlyViolating + c.RecentlyViolating + c.Attributed
}

// Snapshot is the complete output of one refresh cycle.
type Snapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Counts      Counts       `json:"counts"`
	Pilots      []PilotView  `json:"pilots"`
	Drones      []DroneView  `json:"drones"`
	Positions   PositionSets `json:"positions"`
}

// Classifier builds snapshots against a fixed zone.
type Classifier struct {
	Zone geofence.Zone
}

// Build classifies the drone set, annotates both record sets with distances
// from the nest, and returns the assembled snapshot. Drones come out sorted
// by update time descending, pilots by last violation time ascending
// (records without a violation timestamp sort last).
func (c Classifier) Build(drones []storage.Drone, pilots []storage.ViolatedPilot, at time.Time) Snapshot {
	snap := Snapshot{
		GeneratedAt: at,
		Pilots:      make([]PilotView, 0, len(pilots)),
		Drones:      make([]DroneView, 0, len(drones)),
	}

	for _, d := range drones {
		cat := Categorize(d)
		switch cat {
		case CategoryCurrentlyViolating:
			snap.Counts.CurrentlyViolating++
		case CategoryRecentlyViolating:
			snap.Counts.RecentlyViolating++
		case CategoryAttributed:
			snap.Counts.Attributed++
		}

		if d.HasPosition() {
			pt := Point{X: *d.PositionX, Y: *d.PositionY}
			switch cat {
			case CategoryCurrentlyViolating:
				snap.Positions.CurrentlyViolating = append(snap.Positions.CurrentlyViolating, pt)
			case CategoryRecentlyViolating:
				snap.Positions.RecentlyViolating = append(snap.Positions.RecentlyViolating, pt)
			case CategoryAttributed:
				snap.Positions.Attributed = append(snap.Positions.Attributed, pt)
			}
		}

		snap.Drones = append(snap.Drones, DroneView{
			Drone:             d,
			DistanceFromNestM: c.Zone.DistanceMetersPtr(d.PositionX, d.PositionY),
			Category:          cat.String(),
			Attributed:        cat == CategoryAttributed,
		})
	}

	for _, p := range pilots {
		if p.LastViolationX != nil && p.LastViolationY != nil {
			snap.Positions.LastViolations = append(snap.Positions.LastViolations,
				Point{X: *p.LastViolationX, Y: *p.LastViolationY})
		}
		if p.NearestViolationX != nil && p.NearestViolationY != nil {
			snap.Positions.NearestViolations = append(snap.Positions.NearestViolations,
				Point{X: *p.NearestViolationX, Y: *p.NearestViolationY})
		}

		snap.Pilots = append(snap.Pilots, PilotView{
			ViolatedPilot:             p,
			LastViolationDistanceM:    c.Zone.DistanceMetersPtr(p.LastViolationX, p.LastViolationY),
			NearestViolationDistanceM: c.Zone.DistanceMetersPtr(p.NearestViolationX, p.NearestViolationY),
		})
	}

	sort.SliceStable(snap.Drones, func(i, j int) bool {
		return snap.Drones[i].UpdatedAt.After(snap.Drones[j].UpdatedAt)
	})

	sort.SliceStable(snap.Pilots, func(i, j int) bool {
		a, b := snap.Pilots[i].LastViolationAt, snap.Pilots[j].LastViolationAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	return snap
}
