package scene

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// Relation is the position of object2 relative to object1.
type Relation int

// Relations in their canonical order. The order walks counter-clockwise
// around the vertical axis, so adding one is a quarter turn.
const (
	Front Relation = iota
	Right
	Behind
	Left
)

// Relations lists all relations in canonical order.
var Relations = []Relation{Front, Right, Behind, Left}

var relationNames = [...]string{"front", "right", "behind", "left"}

// ParseRelation parses a relation name case-insensitively.
func ParseRelation(s string) (Relation, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range relationNames {
		if n == name {
			return Relation(i), nil
		}
	}
	return 0, fmt.Errorf("invalid relation %q (must be one of %s)", s, strings.Join(relationNames[:], ", "))
}

// String returns the lower-case relation name.
func (r Relation) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Relation(%d)", int(r))
	}
	return relationNames[r]
}

// Valid reports whether r is one of the four relations.
func (r Relation) Valid() bool { return r >= Front && r <= Left }

// Opposite returns the reversed relation (left <-> right, front <-> behind).
func (r Relation) Opposite() Relation { return r.Turn(2) }

// Turn rotates the relation by n counter-clockwise quarter turns.
func (r Relation) Turn(n int) Relation {
	return Relation(((int(r)+n)%4 + 4) % 4)
}

// Axis returns the unit world-frame direction of the relation.
func (r Relation) Axis() r3.Vector {
	switch r {
	case Front:
		return r3.Vector{X: 0, Y: -1, Z: 0}
	case Right:
		return r3.Vector{X: 1, Y: 0, Z: 0}
	case Behind:
		return r3.Vector{X: 0, Y: 1, Z: 0}
	case Left:
		return r3.Vector{X: -1, Y: 0, Z: 0}
	}
	return r3.Vector{}
}

// Lateral reports whether the relation is left or right.
func (r Relation) Lateral() bool { return r == Left || r == Right }

// MarshalText implements encoding.TextMarshaler.
func (r Relation) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid relation %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Relation) UnmarshalText(b []byte) error {
	v, err := ParseRelation(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
