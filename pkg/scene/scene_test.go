package scene

import (
	"encoding/json"
	"testing"
)

func TestParseRelation(t *testing.T) {
	tests := []struct {
		in      string
		want    Relation
		wantErr bool
	}{
		{"left", Left, false},
		{"RIGHT", Right, false},
		{" front ", Front, false},
		{"behind", Behind, false},
		{"above", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRelation(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRelation(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRelation(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRelationTurnAndOpposite(t *testing.T) {
	if Front.Turn(1) != Right || Right.Turn(1) != Behind || Left.Turn(1) != Front {
		t.Error("Turn(1) should walk front, right, behind, left")
	}
	if Front.Turn(-1) != Left {
		t.Errorf("Front.Turn(-1) = %v, want left", Front.Turn(-1))
	}
	for _, r := range Relations {
		if r.Opposite().Opposite() != r {
			t.Errorf("%v.Opposite().Opposite() = %v", r, r.Opposite().Opposite())
		}
		if r.Axis().Add(r.Opposite().Axis()).Norm() != 0 {
			t.Errorf("%v axis should cancel its opposite", r)
		}
	}
	if Left.Opposite() != Right || Front.Opposite() != Behind {
		t.Error("unexpected opposite relation")
	}
}

func TestRelationJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Relation{"relation": Behind})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"relation":"behind"}` {
		t.Errorf("got %s", data)
	}

	var out map[string]Relation
	if err := json.Unmarshal([]byte(`{"relation":"Left"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out["relation"] != Left {
		t.Errorf("got %v, want left", out["relation"])
	}
}

func TestNormalizeYaw(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-360, 0},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		if got := NormalizeYaw(tt.in); got != tt.want {
			t.Errorf("NormalizeYaw(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCombinationValidate(t *testing.T) {
	ok := Combination{Object1: "puma", Object2: "shoe", Relation: Left}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if ok.Bucket() != "puma_shoe_left" {
		t.Errorf("Bucket() = %q", ok.Bucket())
	}

	same := Combination{Object1: "shoe", Object2: "shoe", Relation: Left}
	if same.Validate() == nil {
		t.Error("identical objects should be rejected")
	}
	bad := Combination{Object1: "a", Object2: "b", Relation: Relation(9)}
	if bad.Validate() == nil {
		t.Error("invalid relation should be rejected")
	}
}

func TestCameraConfigEqual(t *testing.T) {
	a := CameraConfig{Tilt: 90, Pan: 45, Height: 1, FocalLength: 50}
	b := a
	b.Pan += 1e-9
	if !a.Equal(b) {
		t.Error("configs within tolerance should be equal")
	}
	b.Pan += 0.01
	if a.Equal(b) {
		t.Error("configs outside tolerance should differ")
	}
}
