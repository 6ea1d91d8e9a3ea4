// Package interp resamples 2-D curves (typically capacity versus voltage)
// onto a regular grid without destroying structural features. The curve is
// split into maximal strictly-monotonic runs and plateaus; monotonic runs
// are interpolated, plateaus (constant-voltage taper segments and the like)
// pass through verbatim so the non-invertible mapping is never interpolated
// across.
package interp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/interp"
)

// errBadStep rejects non-positive grid spacings.
var errBadStep = errors.New("interp: resampling step must be positive")

// Point is one (x, y) sample of a curve.
type Point struct {
	X float64
	Y float64
}

// Options controls resampling.
type Options struct {
	// Step is the x spacing of the output grid. Must be positive.
	Step float64
	// Order selects the interpolant: 1 (default) is piecewise linear,
	// 3 is an Akima spline. Segments too short for the requested order
	// fall back to linear.
	Order int
}

// segKind tags a segment of the input curve.
type segKind int

const (
	segIncreasing segKind = iota
	segDecreasing
	segPlateau
)

type segment struct {
	kind   segKind
	points []Point
}

// Resample splits the curve into monotonic runs and plateaus and resamples
// each monotonic run onto a regular grid at opts.Step. Plateau segments and
// segments with fewer than two points are passed through unchanged. The
// number of segment boundaries in the input is preserved in the output, and
// resampling an already-resampled curve with the same options is a no-op up
// to floating-point identity. An empty input yields an empty output.
func Resample(points []Point, opts Options) ([]Point, error) {
	if len(points) == 0 {
		return nil, nil
	}
	if opts.Step <= 0 {
		return nil, errBadStep
	}

	var out []Point
	for _, seg := range split(points) {
		resampled := resampleSegment(seg, opts)
		out = append(out, resampled...)
	}
	return out, nil
}

// split scans left to right and starts a new segment whenever the sign of
// consecutive x deltas changes or a delta hits zero (entering or leaving a
// plateau). Each input point lands in exactly one segment, so running the
// resampler over its own output re-derives the same segmentation.
func split(points []Point) []segment {
	var segs []segment
	cur := segment{points: []Point{points[0]}}
	kindSet := false

	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		kind := segIncreasing
		switch {
		case dx == 0:
			kind = segPlateau
		case dx < 0:
			kind = segDecreasing
		}

		if !kindSet || kind == cur.kind {
			cur.kind = kind
			kindSet = true
			cur.points = append(cur.points, points[i])
			continue
		}

		segs = append(segs, cur)
		cur = segment{kind: kind, points: []Point{points[i]}}
	}
	return append(segs, cur)
}

// resampleSegment interpolates one strictly monotonic segment onto a
// regular grid. Plateaus and degenerate segments pass through verbatim.
func resampleSegment(seg segment, opts Options) []Point {
	if seg.kind == segPlateau || len(seg.points) < 2 {
		return seg.points
	}

	xs := make([]float64, len(seg.points))
	ys := make([]float64, len(seg.points))
	for i, p := range seg.points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	// gonum predictors require increasing xs; decreasing runs are
	// reversed in, then the grid is emitted in original direction.
	if seg.kind == segDecreasing {
		reverse(xs)
		reverse(ys)
	}

	pred := fit(xs, ys, opts.Order)
	grid := gridOver(xs[0], xs[len(xs)-1], opts.Step)

	out := make([]Point, len(grid))
	for i, x := range grid {
		out[i] = Point{X: x, Y: pred.Predict(x)}
	}
	if seg.kind == segDecreasing {
		reversePoints(out)
	}
	return out
}

// fit selects the interpolant for a segment. Akima needs enough support
// points; short segments degrade to linear.
func fit(xs, ys []float64, order int) interp.Predictor {
	if order >= 3 && len(xs) >= 5 {
		var ak interp.AkimaSpline
		if err := ak.Fit(xs, ys); err == nil {
			return &ak
		}
	}
	var pl interp.PiecewiseLinear
	// Fit only fails on malformed xs, which split already excludes.
	_ = pl.Fit(xs, ys)
	return &pl
}

// gridOver builds the regular grid [lo, lo+step, ...] and always includes
// the segment's upper endpoint so boundaries survive resampling.
func gridOver(lo, hi, step float64) []float64 {
	var grid []float64
	for x := lo; x < hi; x += step {
		grid = append(grid, x)
	}
	// Guard against accumulation error duplicating the endpoint.
	if n := len(grid); n > 0 && math.Abs(grid[n-1]-hi) < step*1e-9 {
		grid = grid[:n-1]
	}
	return append(grid, hi)
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

func reversePoints(v []Point) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
