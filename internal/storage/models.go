package storage

import "time"

// Drone represents a row in the drones relation. Position and altitude are
// nullable in the schema (a sighting may arrive before telemetry does), so
// they are pointers here; a nil coordinate must flow through as a missing
// derived value, never as zero.
type Drone struct {
	SerialNumber    string    `json:"serial_number"`
	Manufacturer    string    `json:"manufacturer,omitempty"`
	MAC             string    `json:"mac,omitempty"`
	IPv4            string    `json:"ipv4,omitempty"`
	IPv6            string    `json:"ipv6,omitempty"`
	Firmware        string    `json:"firmware,omitempty"`
	PositionX       *float64  `json:"position_x,omitempty"`
	PositionY       *float64  `json:"position_y,omitempty"`
	Altitude        *float64  `json:"altitude,omitempty"`
	IsViolatingNDZ  bool      `json:"is_violating_ndz"`
	ViolatedPilotID *string   `json:"violated_pilot_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Attributed reports whether the drone's violation has been linked to a
// pilot record.
func (d *Drone) Attributed() bool {
	return d.ViolatedPilotID != nil
}

// HasPosition reports whether both coordinates are present.
func (d *Drone) HasPosition() bool {
	return d.PositionX != nil && d.PositionY != nil
}

// ViolatedPilot represents a row in the violated_pilots relation. At most
// one drone references a given pilot (violated_pilot_id is UNIQUE), and the
// storage layer cascades pilot deletion when the owning drone is removed.
type ViolatedPilot struct {
	PilotID           string     `json:"pilot_id"`
	FirstName         string     `json:"first_name,omitempty"`
	LastName          string     `json:"last_name,omitempty"`
	PhoneNumber       string     `json:"phone_number,omitempty"`
	Email             string     `json:"email,omitempty"`
	CreatedDt         time.Time  `json:"created_dt"`
	LastViolationAt   *time.Time `json:"last_violation_at,omitempty"`
	LastViolationX    *float64   `json:"last_violation_x,omitempty"`
	LastViolationY    *float64   `json:"last_violation_y,omitempty"`
	NearestViolationX *float64   `json:"nearest_violation_x,omitempty"`
	NearestViolationY *float64   `json:"nearest_violation_y,omitempty"`
}
