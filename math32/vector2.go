// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Vector2 is a 2D UV coordinate. Mesh surfaces carry one per texture
// channel; nothing in this core transforms or samples it directly.
type Vector2 struct {
	X float32
	Y float32
}
