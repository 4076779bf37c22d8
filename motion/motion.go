package motion

import (
	"fmt"
	"sort"

	"github.com/quartzray/pathtrace/math32"
)

// ErrInvalidMotion is returned when a knot sequence is malformed: not
// strictly increasing in time, or a segment's endpoint matrix is singular.
type ErrInvalidMotion struct {
	Reason string
}

func (e *ErrInvalidMotion) Error() string {
	return fmt.Sprintf("motion: invalid motion sequence: %s", e.Reason)
}

// boundSamples is the number of equal time steps a segment is split into
// when bounding a swept box (boundSamples+1 samples, both endpoints
// included); the spec requires N >= 1024.
const boundSamples = 1024

// InterpolatedTransform interpolates between two knot transforms over
// [startTime, endTime]. A segment whose start and end transforms (and
// decompositions) are identical is "static" and Sample takes the fast path
// of returning the start matrix unchanged.
type InterpolatedTransform struct {
	startTime, endTime float32
	start, end         math32.Matrix4
	startT, endT       DecomposedTransform
	startQ, endQ       math32.Quaternion

	hasRotation                                  bool
	hasTranslationX, hasTranslationY, hasTranslationZ bool
	hasScaleX, hasScaleY, hasScaleZ              bool
	isActive                                     bool
}

// NewInterpolatedTransform decomposes both endpoint matrices and determines
// which components of the transform actually vary across the segment.
// Returns ErrInvalidMotion if either endpoint decomposition is singular.
func NewInterpolatedTransform(startTime, endTime float32, start, end math32.Matrix4) (*InterpolatedTransform, error) {

	it := &InterpolatedTransform{startTime: startTime, endTime: endTime, start: start, end: end}

	if startTime == endTime {
		return it, nil
	}

	it.startT = Decompose(&start)
	if !it.startT.Valid {
		return nil, &ErrInvalidMotion{Reason: "singular start matrix"}
	}
	it.endT = Decompose(&end)
	if !it.endT.Valid {
		return nil, &ErrInvalidMotion{Reason: "singular end matrix"}
	}

	it.startQ.SetFromRotationMatrix(&it.startT.R).Normalize()
	it.endQ.SetFromRotationMatrix(&it.endT.R).Normalize()

	it.hasTranslationX = it.startT.Tx != it.endT.Tx
	it.hasTranslationY = it.startT.Ty != it.endT.Ty
	it.hasTranslationZ = it.startT.Tz != it.endT.Tz

	it.hasScaleX = it.startT.Sx != it.endT.Sx
	it.hasScaleY = it.startT.Sy != it.endT.Sy
	it.hasScaleZ = it.startT.Sz != it.endT.Sz

	dot := it.startQ.Dot(&it.endQ)
	it.hasRotation = math32.Abs(dot-1) >= 1e-6

	it.isActive = it.hasTranslationX || it.hasTranslationY || it.hasTranslationZ ||
		it.hasScaleX || it.hasScaleY || it.hasScaleZ || it.hasRotation
	return it, nil
}

// IsStatic reports whether this segment's start and end transforms coincide,
// i.e. Sample always returns the same matrix regardless of time.
func (it *InterpolatedTransform) IsStatic() bool {
	return !it.isActive
}

// Sample evaluates the interpolated transform at time, clamped to this
// segment's [startTime, endTime].
func (it *InterpolatedTransform) Sample(time float32) math32.Matrix4 {

	if !it.isActive {
		return it.start
	}
	if time <= it.startTime {
		return it.start
	}
	if time >= it.endTime {
		return it.end
	}

	u := (time - it.startTime) / (it.endTime - it.startTime)

	var rot math32.Matrix4
	if it.hasRotation {
		var q math32.Quaternion
		q.Copy(&it.startQ).Slerp(&it.endQ, u)
		rot.MakeRotationFromQuaternion(&q)
	} else {
		rot = it.startT.R
	}

	sx, sy, sz := it.startT.Sx, it.startT.Sy, it.startT.Sz
	if it.hasScaleX {
		sx = lerp(u, it.startT.Sx, it.endT.Sx)
	}
	if it.hasScaleY {
		sy = lerp(u, it.startT.Sy, it.endT.Sy)
	}
	if it.hasScaleZ {
		sz = lerp(u, it.startT.Sz, it.endT.Sz)
	}

	// Apply the per-axis scale to the rotation's rows (T * S * R ordering,
	// scale folded into the rotation rows before translation is written).
	for _, col := range [3]int{0, 4, 8} {
		rot[col] *= sx
	}
	for _, col := range [3]int{1, 5, 9} {
		rot[col] *= sy
	}
	for _, col := range [3]int{2, 6, 10} {
		rot[col] *= sz
	}

	tx, ty, tz := it.startT.Tx, it.startT.Ty, it.startT.Tz
	if it.hasTranslationX {
		tx = lerp(u, it.startT.Tx, it.endT.Tx)
	}
	if it.hasTranslationY {
		ty = lerp(u, it.startT.Ty, it.endT.Ty)
	}
	if it.hasTranslationZ {
		tz = lerp(u, it.startT.Tz, it.endT.Tz)
	}
	rot[12], rot[13], rot[14] = tx, ty, tz
	rot[15] = 1

	return rot
}

// Bound returns the union of box transformed by boundSamples+1 uniformly
// spaced samples of this segment, a safe (if conservative) approximation of
// the true swept bounding volume.
func (it *InterpolatedTransform) Bound(box math32.Box3) math32.Box3 {

	var result math32.Box3
	result.MakeEmpty()
	for i := 0; i <= boundSamples; i++ {
		t := lerp(float32(i)/float32(boundSamples), it.startTime, it.endTime)
		m := it.Sample(t)
		sampled := box
		sampled.ApplyMatrix4(&m)
		result.Union(&sampled)
	}
	return result
}

func lerp(t, a, b float32) float32 {
	return a + t*(b-a)
}

// Motion is an ordered sequence of (time, transform) knots. Between
// consecutive knots an InterpolatedTransform governs sampling; outside the
// first/last knot the boundary transform is held constant.
type Motion struct {
	times    []float32
	segments []*InterpolatedTransform
}

// NewMotion builds a Motion from parallel times/transforms slices. times
// must be strictly increasing and the same length as transforms (at least
// 1 knot). Returns ErrInvalidMotion on a non-monotone or duplicate-time
// sequence, or if any segment's decomposition is singular.
func NewMotion(times []float32, transforms []math32.Matrix4) (*Motion, error) {

	if len(times) == 0 || len(times) != len(transforms) {
		return nil, &ErrInvalidMotion{Reason: "times and transforms length mismatch"}
	}
	if !sort.SliceIsSorted(times, func(i, j int) bool { return times[i] < times[j] }) {
		return nil, &ErrInvalidMotion{Reason: "times not strictly increasing"}
	}
	for i := 1; i < len(times); i++ {
		if times[i] == times[i-1] {
			return nil, &ErrInvalidMotion{Reason: "duplicate knot time"}
		}
	}

	m := &Motion{times: append([]float32(nil), times...)}

	if len(times) == 1 {
		it, err := NewInterpolatedTransform(times[0], times[0], transforms[0], transforms[0])
		if err != nil {
			return nil, err
		}
		m.segments = []*InterpolatedTransform{it}
		return m, nil
	}

	m.segments = make([]*InterpolatedTransform, 0, len(times))
	for i := 1; i < len(times); i++ {
		it, err := NewInterpolatedTransform(times[i-1], times[i], transforms[i-1], transforms[i])
		if err != nil {
			return nil, err
		}
		m.segments = append(m.segments, it)
	}
	return m, nil
}

// NewStaticMotion builds a single-knot, time-independent Motion.
func NewStaticMotion(transform math32.Matrix4) *Motion {

	m, _ := NewMotion([]float32{0}, []math32.Matrix4{transform})
	return m
}

// IsStatic reports whether this Motion has a single knot (time-independent).
func (m *Motion) IsStatic() bool {
	return len(m.times) <= 1
}

// StartTime returns the time of the first knot.
func (m *Motion) StartTime() float32 { return m.times[0] }

// EndTime returns the time of the last knot.
func (m *Motion) EndTime() float32 { return m.times[len(m.times)-1] }

// Sample evaluates the transform at the given time. Times outside
// [StartTime(), EndTime()] are clamped to the nearest endpoint.
func (m *Motion) Sample(time float32) math32.Matrix4 {

	if m.IsStatic() {
		return m.segments[0].Sample(time)
	}

	// Locate the segment via upper-bound on times: the first knot index
	// strictly greater than time; segments[idx-1] covers [times[idx-1], times[idx]].
	idx := sort.Search(len(m.times), func(i int) bool { return m.times[i] > time })
	if idx == 0 {
		idx = 1
	}
	if idx >= len(m.times) {
		idx = len(m.times) - 1
	}
	return m.segments[idx-1].Sample(time)
}

// Bound returns the union, over every segment, of box swept through that
// segment's time range.
func (m *Motion) Bound(box math32.Box3) math32.Box3 {

	var result math32.Box3
	result.MakeEmpty()
	for _, seg := range m.segments {
		b := seg.Bound(box)
		result.Union(&b)
	}
	return result
}

// Concatenate composes this motion with other (result(t) = this.Sample(t) *
// other.Sample(t); since Matrix4 transforms column vectors, a point is
// transformed by other first and then by this) across the
// union of both knot sets, resampling whichever side lacks a knot at a given
// time via its own Sample.
func (m *Motion) Concatenate(other *Motion) *Motion {

	if m.IsStatic() && other.IsStatic() {
		composed := m.segments[0].Sample(0)
		o := other.segments[0].Sample(0)
		var result math32.Matrix4
		result.MultiplyMatrices(&composed, &o)
		return NewStaticMotion(result)
	}

	merged := mergeTimes(m.times, other.times)
	transforms := make([]math32.Matrix4, len(merged))
	for i, t := range merged {
		a := m.Sample(t)
		b := other.Sample(t)
		transforms[i].MultiplyMatrices(&a, &b)
	}
	out, err := NewMotion(merged, transforms)
	if err != nil {
		// A singular composed matrix at a sampled knot; fall back to a
		// static motion holding the first composed transform only. The
		// remaining knots are dropped.
		return NewStaticMotion(transforms[0])
	}
	return out
}

func mergeTimes(a, b []float32) []float32 {

	out := make([]float32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
