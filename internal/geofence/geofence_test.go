package geofence

import (
	"math"
	"testing"
)

func TestDistanceMeters_Center(t *testing.T) {
	z := Default()
	if got := z.DistanceMeters(z.CenterX, z.CenterY); got != 0 {
		t.Errorf("DistanceMeters(center) = %v, want 0", got)
	}
}

func TestDistanceMeters(t *testing.T) {
	z := Default()

	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"east of nest", 350000, 250000, 100},
		{"west of nest", 150000, 250000, 100},
		{"north of nest", 250000, 350000, 100},
		{"diagonal", 253000, 254000, 5},
		{"inside zone", 260000, 240000, math.Hypot(10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := z.DistanceMeters(tt.x, tt.y)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DistanceMeters(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDistanceMeters_ReflectionSymmetry(t *testing.T) {
	z := Default()

	points := [][2]float64{
		{310000, 270000},
		{120000, 480000},
		{250000, 0},
	}

	for _, p := range points {
		x, y := p[0], p[1]
		rx := 2*z.CenterX - x
		ry := 2*z.CenterY - y
		d1 := z.DistanceMeters(x, y)
		d2 := z.DistanceMeters(rx, ry)
		if math.Abs(d1-d2) > 1e-9 {
			t.Errorf("distance not symmetric about center: (%v,%v)=%v, (%v,%v)=%v", x, y, d1, rx, ry, d2)
		}
		if d1 < 0 {
			t.Errorf("distance negative: %v", d1)
		}
	}
}

func TestDistanceMetersPtr(t *testing.T) {
	z := Default()
	x, y := 350000.0, 250000.0

	if got := z.DistanceMetersPtr(&x, &y); got == nil || *got != 100 {
		t.Errorf("DistanceMetersPtr(&x, &y) = %v, want 100", got)
	}
	if got := z.DistanceMetersPtr(nil, &y); got != nil {
		t.Errorf("DistanceMetersPtr(nil, &y) = %v, want nil", *got)
	}
	if got := z.DistanceMetersPtr(&x, nil); got != nil {
		t.Errorf("DistanceMetersPtr(&x, nil) = %v, want nil", *got)
	}
	if got := z.DistanceMetersPtr(nil, nil); got != nil {
		t.Errorf("DistanceMetersPtr(nil, nil) = %v, want nil", *got)
	}
}

func TestRadiusMeters(t *testing.T) {
	if got := Default().RadiusMeters(); got != 100 {
		t.Errorf("RadiusMeters() = %v, want 100", got)
	}
}
