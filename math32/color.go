// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Color is a linear RGB radiance/reflectance triple. Mesh vertex color
// channels and photon-GI accumulation buffers carry values in this type;
// no tone mapping or gamma correction happens in this layer.
type Color struct {
	R float32
	G float32
	B float32
}
