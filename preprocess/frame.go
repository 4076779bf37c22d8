// Package preprocess wires the scene-visibility driver (scenevis) to the
// cache layers it feeds (lightstrategy's DLS cache, envcache's ELVC): one
// Hook implementation per cache decides what a camera path's hit points
// are worth keeping, and a Build* function turns the resulting particles
// into the frozen, query-ready cache the render loop actually consults.
package preprocess

import "github.com/quartzray/pathtrace/math32"

// tangentBasis builds an orthonormal frame with tz aligned to n, matching
// envcache's own construction (up-vector swap near the poles to avoid a
// degenerate cross product).
func tangentBasis(n math32.Vector3) (tx, ty, tz math32.Vector3) {
	tz = n
	tz.Normalize()
	up := math32.Vector3{X: 0, Y: 1, Z: 0}
	if math32.Abs(tz.Y) > 0.99 {
		up = math32.Vector3{X: 1, Y: 0, Z: 0}
	}
	tx.CrossVectors(&up, &tz)
	tx.Normalize()
	ty.CrossVectors(&tz, &tx)
	return tx, ty, tz
}

func worldToLocal(tx, ty, tz, w math32.Vector3) math32.Vector3 {
	return math32.Vector3{X: w.Dot(&tx), Y: w.Dot(&ty), Z: w.Dot(&tz)}
}
