package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-9

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r3.Vec
		want    float64
	}{
		{
			name: "straight line",
			a:    r3.Vec{X: 0, Y: 0},
			b:    r3.Vec{X: 0, Y: 1},
			c:    r3.Vec{X: 0, Y: 2},
			want: 180,
		},
		{
			name: "right angle",
			a:    r3.Vec{X: 0, Y: 0},
			b:    r3.Vec{X: 0, Y: 1},
			c:    r3.Vec{X: 1, Y: 1},
			want: 90,
		},
		{
			name: "folded back",
			a:    r3.Vec{X: 1, Y: 0},
			b:    r3.Vec{X: 0, Y: 0},
			c:    r3.Vec{X: 2, Y: 0},
			want: 0,
		},
		{
			name: "depth is ignored",
			a:    r3.Vec{X: 0, Y: 0, Z: 5},
			b:    r3.Vec{X: 0, Y: 1, Z: -3},
			c:    r3.Vec{X: 1, Y: 1, Z: 9},
			want: 90,
		},
		{
			name: "a equals b",
			a:    r3.Vec{X: 0.4, Y: 0.4},
			b:    r3.Vec{X: 0.4, Y: 0.4},
			c:    r3.Vec{X: 1, Y: 1},
			want: 180,
		},
		{
			name: "c equals b",
			a:    r3.Vec{X: 0, Y: 0},
			b:    r3.Vec{X: 0.4, Y: 0.4},
			c:    r3.Vec{X: 0.4, Y: 0.4},
			want: 180,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Angle() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAngle_Symmetric(t *testing.T) {
	points := []r3.Vec{
		{X: 0.1, Y: 0.2},
		{X: 0.7, Y: 0.3},
		{X: 0.45, Y: 0.9},
		{X: 0.33, Y: 0.33},
	}

	for i, a := range points {
		for j, b := range points {
			for k, c := range points {
				if i == j || j == k {
					continue
				}
				ac := Angle(a, b, c)
				ca := Angle(c, b, a)
				if math.Abs(ac-ca) > epsilon {
					t.Errorf("Angle(%d,%d,%d) = %f, Angle(%d,%d,%d) = %f", i, j, k, ac, k, j, i, ca)
				}
			}
		}
	}
}

func TestAngle_ClampsOvershoot(t *testing.T) {
	// Nearly collinear rays can push the cosine past 1 in floating point.
	a := r3.Vec{X: 0.1 + 1e-17, Y: 0.1}
	b := r3.Vec{X: 0, Y: 0}
	c := r3.Vec{X: 0.3, Y: 0.3 + 1e-17}

	got := Angle(a, b, c)
	if math.IsNaN(got) {
		t.Fatal("Angle() returned NaN")
	}
	if got > 1e-3 {
		t.Errorf("Angle() = %f, want ~0", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		diff float64
		want Rotation
	}{
		{diff: 0.2, want: RotationExternal},
		{diff: -0.2, want: RotationInternal},
		{diff: 0.01, want: RotationNeutral},
		{diff: -0.01, want: RotationNeutral},
		{diff: 0, want: RotationNeutral},
		{diff: 0.05, want: RotationNeutral},
		{diff: -0.05, want: RotationNeutral},
	}

	for _, tt := range tests {
		if got := Classify(tt.diff, 0.05); got != tt.want {
			t.Errorf("Classify(%f) = %s, want %s", tt.diff, got, tt.want)
		}
	}
}

func TestCompare_Antisymmetric(t *testing.T) {
	flip := map[Rotation]Rotation{
		RotationExternal: RotationInternal,
		RotationInternal: RotationExternal,
		RotationNeutral:  RotationNeutral,
	}

	pairs := [][2]float64{
		{0.6, 0.3},
		{0.3, 0.6},
		{0.51, 0.5},
		{0.5, 0.5},
		{0.1, 0.9},
	}

	for _, p := range pairs {
		d1, r1 := Compare(p[0], p[1], 0.05)
		d2, r2 := Compare(p[1], p[0], 0.05)

		if math.Abs(d1+d2) > epsilon {
			t.Errorf("Compare(%v): differentials %f and %f are not negations", p, d1, d2)
		}
		if flip[r1] != r2 {
			t.Errorf("Compare(%v): %s swapped to %s, want %s", p, r1, r2, flip[r1])
		}
		if math.Abs(d1) <= 0.05 && (r1 != RotationNeutral || r2 != RotationNeutral) {
			t.Errorf("Compare(%v): in-band values must be neutral, got %s/%s", p, r1, r2)
		}
	}
}

func TestClassifyPair(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		wantL       Rotation
		wantR       Rotation
		opposed     bool
	}{
		{
			name: "left forward right back", left: 0.2, right: -0.2,
			wantL: RotationExternal, wantR: RotationInternal, opposed: true,
		},
		{
			name: "left forward right centered", left: 0.2, right: 0,
			wantL: RotationExternal, wantR: RotationInternal, opposed: true,
		},
		{
			name: "right forward left centered", left: 0.01, right: 0.3,
			wantL: RotationInternal, wantR: RotationExternal, opposed: true,
		},
		{
			name: "both forward", left: 0.2, right: 0.2,
			wantL: RotationExternal, wantR: RotationExternal, opposed: false,
		},
		{
			name: "both centered", left: 0.01, right: -0.01,
			wantL: RotationNeutral, wantR: RotationNeutral, opposed: false,
		},
		{
			name: "both back", left: -0.2, right: -0.3,
			wantL: RotationInternal, wantR: RotationInternal, opposed: false,
		},
		{
			name: "back and centered", left: -0.2, right: 0,
			wantL: RotationInternal, wantR: RotationNeutral, opposed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := ClassifyPair(tt.left, tt.right, 0.05)
			if l != tt.wantL || r != tt.wantR {
				t.Errorf("ClassifyPair() = %s/%s, want %s/%s", l, r, tt.wantL, tt.wantR)
			}
			if got := Opposed(l, r); got != tt.opposed {
				t.Errorf("Opposed() = %v, want %v", got, tt.opposed)
			}
		})
	}
}

func TestRotation_Label(t *testing.T) {
	labels := map[Rotation]string{
		RotationInternal: "内旋",
		RotationExternal: "外旋",
		RotationNeutral:  "中立",
		RotationUnknown:  "不明",
	}
	for r, want := range labels {
		if got := r.Label(); got != want {
			t.Errorf("%s.Label() = %q, want %q", r, got, want)
		}
	}
}
