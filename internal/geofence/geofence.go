// Package geofence provides the no-fly-zone geometry: a fixed circular zone
// in the backing store's planar coordinate system and distance math against
// its center (the "nest").
package geofence

import "math"

// Zone describes a circular no-fly zone. Coordinates and radius are in the
// store's native units, which are display meters multiplied by Scale.
type Zone struct {
	CenterX float64
	CenterY float64
	Radius  float64
	Scale   float64
}

// Default returns the monitored zone: a 100 m radius circle centered at
// (250000, 250000) native units, 1000 native units to the meter.
func Default() Zone {
	return Zone{CenterX: 250000, CenterY: 250000, Radius: 100000, Scale: 1000}
}

// DistanceMeters returns the Euclidean distance from (x, y) to the zone
// center, converted to meters.
func (z Zone) DistanceMeters(x, y float64) float64 {
	return math.Hypot(x-z.CenterX, y-z.CenterY) / z.Scale
}

// DistanceMetersPtr is DistanceMeters over nullable coordinates. A missing
// coordinate yields a missing distance rather than an error; a single
// record without telemetry must not abort a refresh cycle.
func (z Zone) DistanceMetersPtr(x, y *float64) *float64 {
	if x == nil || y == nil {
		return nil
	}
	d := z.DistanceMeters(*x, *y)
	return &d
}

// RadiusMeters returns the zone radius in meters.
func (z Zone) RadiusMeters() float64 {
	return z.Radius / z.Scale
}
