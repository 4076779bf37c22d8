// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Ray represents an oriented 3D line segment defined by an origin point and
// a direction vector, together with the parametric range [TMin, TMax] over
// which intersections are considered valid and the Time at which it was
// sampled (used to resolve motion-blurred transforms).
type Ray struct {
	origin    Vector3
	direction Vector3
	TMin      float32
	TMax      float32
	Time      float32
}

// NewRay creates and returns a pointer to a Ray object with
// the specified origin and direction vectors.
// If a nil pointer is supplied for any of the parameters,
// the zero vector will be used. TMin/TMax default to [0, +Inf), Time to 0.
func NewRay(origin *Vector3, direction *Vector3) *Ray {

	ray := new(Ray)
	if origin != nil {
		ray.origin = *origin
	}
	if direction != nil {
		ray.direction = *direction
	}
	ray.TMin = 0
	ray.TMax = Infinity
	return ray
}

// SetRange sets the valid parametric range of this ray.
func (ray *Ray) SetRange(tMin, tMax float32) *Ray {

	ray.TMin = tMin
	ray.TMax = tMax
	return ray
}

// Origin returns a copy of this ray current origin.
func (ray *Ray) Origin() Vector3 {

	return ray.origin
}

// Direction returns a copy of this ray current direction.
func (ray *Ray) Direction() Vector3 {

	return ray.direction
}

// At calculates the point in the ray which is at the specified t distance from the origin
// along its direction.
// The calculated point is stored in optionalTarget, if not nil, and also returned.
func (ray *Ray) At(t float32, optionalTarget *Vector3) *Vector3 {

	var result *Vector3
	if optionalTarget != nil {
		result = optionalTarget
	} else {
		result = &Vector3{}
	}
	return result.Copy(&ray.direction).MultiplyScalar(t).Add(&ray.origin)
}

// IntersectBoxRange tests this ray's bounding-box slab intersection,
// restricted to [ray.TMin, ray.TMax].
// Returns whether the box is hit within that range; a degenerate box with
// Empty() true never intersects.
func (ray *Ray) IntersectBoxRange(box *Box3) bool {

	if box.Empty() {
		return false
	}

	tmin := ray.TMin
	tmax := ray.TMax

	for axis := 0; axis < 3; axis++ {
		var origin, dir, bmin, bmax float32
		switch axis {
		case 0:
			origin, dir, bmin, bmax = ray.origin.X, ray.direction.X, box.Min.X, box.Max.X
		case 1:
			origin, dir, bmin, bmax = ray.origin.Y, ray.direction.Y, box.Min.Y, box.Max.Y
		default:
			origin, dir, bmin, bmax = ray.origin.Z, ray.direction.Z, box.Min.Z, box.Max.Z
		}
		invDir := 1 / dir
		t0 := (bmin - origin) * invDir
		t1 := (bmax - origin) * invDir
		if invDir < 0 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmax < tmin {
			return false
		}
	}
	return true
}

// IntersectTriangleBary tests this ray against the triangle (a, b, c) and, on
// hit, returns the hit distance t and barycentric coordinates (b1, b2) such
// that the hit point equals (1-b1-b2)*a + b1*b + b2*c. Only hits within
// [ray.TMin, ray.TMax] are reported. Degenerate (zero-area) triangles never
// report a hit. This is the triangle test the bvh package's traversal uses.
func (ray *Ray) IntersectTriangleBary(a, b, c *Vector3) (t, b1, b2 float32, hit bool) {

	var edge1, edge2, pvec, tvec, qvec Vector3
	edge1.SubVectors(b, a)
	edge2.SubVectors(c, a)

	pvec.CrossVectors(&ray.direction, &edge2)
	det := edge1.Dot(&pvec)

	// Ray parallel to the triangle plane, or triangle has zero area.
	if Abs(det) < 1e-20 {
		return 0, 0, 0, false
	}
	invDet := 1 / det

	tvec.SubVectors(&ray.origin, a)
	u := tvec.Dot(&pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec.CrossVectors(&tvec, &edge1)
	v := ray.direction.Dot(&qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	tHit := edge2.Dot(&qvec) * invDet
	if tHit < ray.TMin || tHit > ray.TMax {
		return 0, 0, 0, false
	}
	if IsNaN(tHit) || IsNaN(u) || IsNaN(v) {
		return 0, 0, 0, false
	}

	return tHit, u, v, true
}
