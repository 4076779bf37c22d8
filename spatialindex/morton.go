package spatialindex

import "github.com/quartzray/pathtrace/math32"

const mortonScale = (1 << 10) - 1

func mortonCode(bound *math32.Box3, center math32.Vector3) uint32 {

	sx := bound.Max.X - bound.Min.X
	sy := bound.Max.Y - bound.Min.Y
	sz := bound.Max.Z - bound.Min.Z

	qx := quantizeAxis(center.X-bound.Min.X, sx)
	qy := quantizeAxis(center.Y-bound.Min.Y, sy)
	qz := quantizeAxis(center.Z-bound.Min.Z, sz)

	return interleave3(qx) | (interleave3(qy) << 1) | (interleave3(qz) << 2)
}

func quantizeAxis(offset, extent float32) uint32 {
	if extent <= 0 {
		return 0
	}
	u := offset / extent
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	return uint32(u * float32(mortonScale))
}

func interleave3(v uint32) uint32 {
	v &= mortonScale
	v = (v | (v << 16)) & 0x030000FF
	v = (v | (v << 8)) & 0x0300F00F
	v = (v | (v << 4)) & 0x030C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}
