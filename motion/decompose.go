// Package motion implements the interpolated-transform system used to
// animate mesh instances over a shutter interval: transform decomposition
// ("unmatrix"), quaternion/lerp segment sampling, bounding-box sweep, and
// knot-set concatenation.
//
// The decomposition follows the "unmatrix" procedure from Graphics Gems II
// (normalize by m[3][3], solve perspective, extract translation, then
// Gram-Schmidt orthogonalize the upper 3x3 recording scale and shear). The
// full procedure is used rather than a shortcut that ignores shear and
// perspective, because a general scene transform may carry shear.
package motion

import "github.com/quartzray/pathtrace/math32"

// DecomposedTransform is a matrix split into scale, shear, rotation,
// translation and perspective components, following T*S*K*R*P.
type DecomposedTransform struct {
	// Scale factors.
	Sx, Sy, Sz float32
	// Shear factors (xy, xz, yz).
	Sxy, Sxz, Syz float32
	// Pure rotation, stored as a 4x4 with only the upper-left 3x3 populated
	// and the rest identity.
	R math32.Matrix4
	// Translation.
	Tx, Ty, Tz float32
	// Perspective row.
	Px, Py, Pz, Pw float32
	// Valid is false when the upper 3x3 of the source matrix is singular;
	// callers must reject such segments (treat as a static/identity fallback
	// or surface InvalidMotion, depending on context).
	Valid bool
}

// Decompose factors m into T*S*K*R*P using the unmatrix procedure.
func Decompose(m *math32.Matrix4) DecomposedTransform {

	var d DecomposedTransform

	r := *m
	if r[15] == 0 {
		return d
	}
	for i := 0; i < 16; i++ {
		r[i] /= r[15]
	}

	// pmat: upper-left 3x3 of r plus identity last row/col, used to test
	// singularity and to solve the perspective row.
	pmat := r
	pmat[3] = 0
	pmat[7] = 0
	pmat[11] = 0
	pmat[15] = 1
	if pmat.Determinant() == 0 {
		return d
	}

	// Isolate perspective, if any (row 3 in column-major storage is indices 3,7,11,15).
	if r[3] != 0 || r[7] != 0 || r[11] != 0 {
		var inv math32.Matrix4
		err := inv.GetInverse(&pmat)
		if err != nil {
			return d
		}
		tinv := *inv.Transpose()
		prhs := [4]float32{r[3], r[7], r[11], r[15]}
		var psol [4]float32
		for i := 0; i < 4; i++ {
			psol[i] = tinv[i]*prhs[0] + tinv[i+4]*prhs[1] + tinv[i+8]*prhs[2] + tinv[i+12]*prhs[3]
		}
		d.Px, d.Py, d.Pz, d.Pw = psol[0], psol[1], psol[2], psol[3]
		r[3], r[7], r[11] = 0, 0, 0
		r[15] = 1
	}

	// Translation (column-major Matrix4: column 3 holds the translation = indices 12,13,14).
	d.Tx, d.Ty, d.Tz = r[12], r[13], r[14]
	r[12], r[13], r[14] = 0, 0, 0

	// Rows of the upper-left 3x3, read as the basis vectors m applies to
	// local axes: row i is (r[i], r[i+4], r[i+8]).
	row0 := math32.Vector3{X: r[0], Y: r[4], Z: r[8]}
	row1 := math32.Vector3{X: r[1], Y: r[5], Z: r[9]}
	row2 := math32.Vector3{X: r[2], Y: r[6], Z: r[10]}

	d.Sx = row0.Length()
	if d.Sx == 0 {
		return d
	}
	row0.MultiplyScalar(1 / d.Sx)

	d.Sxy = row0.Dot(&row1)
	row1.Sub(scaled(&row0, d.Sxy))

	d.Sy = row1.Length()
	if d.Sy == 0 {
		return d
	}
	row1.MultiplyScalar(1 / d.Sy)
	d.Sxy /= d.Sy

	d.Sxz = row0.Dot(&row2)
	row2.Sub(scaled(&row0, d.Sxz))
	d.Syz = row1.Dot(&row2)
	row2.Sub(scaled(&row1, d.Syz))

	d.Sz = row2.Length()
	if d.Sz == 0 {
		return d
	}
	row2.MultiplyScalar(1 / d.Sz)
	d.Sxz /= d.Sz
	d.Syz /= d.Sz

	// Flip handedness if the basis is left-handed.
	var cross math32.Vector3
	cross.CrossVectors(&row1, &row2)
	if row0.Dot(&cross) < 0 {
		d.Sx, d.Sy, d.Sz = -d.Sx, -d.Sy, -d.Sz
		row0.MultiplyScalar(-1)
		row1.MultiplyScalar(-1)
		row2.MultiplyScalar(-1)
	}

	d.R.Identity()
	d.R[0], d.R[4], d.R[8] = row0.X, row0.Y, row0.Z
	d.R[1], d.R[5], d.R[9] = row1.X, row1.Y, row1.Z
	d.R[2], d.R[6], d.R[10] = row2.X, row2.Y, row2.Z

	d.Valid = true
	return d
}

func scaled(v *math32.Vector3, s float32) *math32.Vector3 {

	r := *v
	r.MultiplyScalar(s)
	return &r
}
