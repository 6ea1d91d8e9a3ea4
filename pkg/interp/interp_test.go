package interp

import (
	"math"
	"testing"
)

func pts(xy ...float64) []Point {
	out := make([]Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestResampleEmptyInput(t *testing.T) {
	out, err := Resample(nil, Options{Step: 0.5})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d points from empty input, want 0", len(out))
	}
}

func TestResampleRejectsBadStep(t *testing.T) {
	for _, step := range []float64{0, -1} {
		if _, err := Resample(pts(0, 0, 1, 1), Options{Step: step}); err == nil {
			t.Errorf("Resample() accepted step %v", step)
		}
	}
}

func TestResampleLinearGrid(t *testing.T) {
	// y = x, so every grid point must land exactly on the line.
	out, err := Resample(pts(0, 0, 2, 2), Options{Step: 0.5})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}

	wantX := []float64{0, 0.5, 1, 1.5, 2}
	if len(out) != len(wantX) {
		t.Fatalf("got %d points, want %d", len(out), len(wantX))
	}
	for i, p := range out {
		if math.Abs(p.X-wantX[i]) > 1e-12 || math.Abs(p.Y-wantX[i]) > 1e-12 {
			t.Errorf("point %d = (%v, %v), want (%v, %v)", i, p.X, p.Y, wantX[i], wantX[i])
		}
	}
}

func TestResampleDecreasingRunKeepsDirection(t *testing.T) {
	out, err := Resample(pts(3, 4.0, 2, 3.5, 1, 3.2, 0, 3.0), Options{Step: 1})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}

	want := pts(3, 4.0, 2, 3.5, 1, 3.2, 0, 3.0)
	if len(out) != len(want) {
		t.Fatalf("got %d points, want %d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(out[i].X-want[i].X) > 1e-12 || math.Abs(out[i].Y-want[i].Y) > 1e-12 {
			t.Errorf("point %d = (%v, %v), want (%v, %v)",
				i, out[i].X, out[i].Y, want[i].X, want[i].Y)
		}
	}
}

func TestResamplePreservesPlateau(t *testing.T) {
	// A constant-voltage taper shows up as repeated capacity values. The
	// plateau points must pass through verbatim, never be collapsed or
	// interpolated across.
	points := pts(
		0, 3.0, 1, 3.5, 2, 4.2, // constant-current ramp
		2, 4.2, 2, 4.2, // taper holds capacity
		3, 4.4, // next ramp
	)

	out, err := Resample(points, Options{Step: 0.5})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}

	wantX := []float64{0, 0.5, 1, 1.5, 2, 2, 2, 3}
	if len(out) != len(wantX) {
		t.Fatalf("got %d points, want %d", len(out), len(wantX))
	}
	for i, p := range out {
		if math.Abs(p.X-wantX[i]) > 1e-12 {
			t.Errorf("point %d x = %v, want %v", i, p.X, wantX[i])
		}
	}

	plateau := 0
	for _, p := range out {
		if p.X == 2 {
			plateau++
		}
	}
	if plateau != 3 {
		t.Errorf("plateau retained %d points at x=2, want 3", plateau)
	}
}

func TestResamplePlateauOnlyInputPassesThrough(t *testing.T) {
	points := pts(2, 4.0, 2, 4.1, 2, 4.2, 2, 4.3, 2, 4.4)
	out, err := Resample(points, Options{Step: 0.5})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	if len(out) != len(points) {
		t.Fatalf("got %d points, want %d", len(out), len(points))
	}
	for i := range points {
		if out[i] != points[i] {
			t.Errorf("point %d = %v, want %v", i, out[i], points[i])
		}
	}
}

func TestResampleIdempotent(t *testing.T) {
	points := pts(
		0, 3.0, 0.7, 3.4, 1.9, 4.0, 2.5, 4.2,
		2.5, 4.2, 2.5, 4.2,
		2.2, 4.0, 1.1, 3.5, 0.3, 3.1,
	)
	opts := Options{Step: 0.25}

	once, err := Resample(points, opts)
	if err != nil {
		t.Fatalf("first Resample() error: %v", err)
	}
	twice, err := Resample(once, opts)
	if err != nil {
		t.Fatalf("second Resample() error: %v", err)
	}

	if len(twice) != len(once) {
		t.Fatalf("second pass produced %d points, first %d", len(twice), len(once))
	}
	for i := range once {
		if math.Abs(once[i].X-twice[i].X) > 1e-9 || math.Abs(once[i].Y-twice[i].Y) > 1e-9 {
			t.Errorf("point %d drifted: first (%v, %v), second (%v, %v)",
				i, once[i].X, once[i].Y, twice[i].X, twice[i].Y)
		}
	}
}

func TestResampleAkimaHitsKnotEndpoints(t *testing.T) {
	points := pts(0, 3.0, 1, 3.3, 2, 3.7, 3, 4.0, 4, 4.2)
	out, err := Resample(points, Options{Step: 0.5, Order: 3})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
	first, last := out[0], out[len(out)-1]
	if math.Abs(first.X) > 1e-12 || math.Abs(first.Y-3.0) > 1e-9 {
		t.Errorf("first point = (%v, %v), want (0, 3.0)", first.X, first.Y)
	}
	if math.Abs(last.X-4) > 1e-12 || math.Abs(last.Y-4.2) > 1e-9 {
		t.Errorf("last point = (%v, %v), want (4, 4.2)", last.X, last.Y)
	}
}

func TestResampleShortSegmentPassesThrough(t *testing.T) {
	// A direction change right after a single point leaves a one-point
	// segment, which must survive untouched.
	points := pts(0, 3.0, 1, 3.5, 0.5, 3.2)
	out, err := Resample(points, Options{Step: 0.25})
	if err != nil {
		t.Fatalf("Resample() error: %v", err)
	}
	last := out[len(out)-1]
	if last.X != 0.5 || last.Y != 3.2 {
		t.Errorf("last point = (%v, %v), want (0.5, 3.2)", last.X, last.Y)
	}
}
