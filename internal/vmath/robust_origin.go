package vmath

// RobustRayOrigin offsets a hit position along the geometric normal to
// avoid self-intersection on the next ray cast from that point, per
// spec.md §6. The offset is pushed to whichever side of the surface the
// outgoing direction points into, scaled by the position's numerical
// error bound (posErr), which the geometry reports with each hit and the
// tracer passes through unchanged.
func RobustRayOrigin(pos Point, posErr Vector, geomNormal Normal, direction Vector) Point {
	// A conservative offset: the largest component of the error bound,
	// raised to a small floor so exactly-zero error still moves off the
	// surface.
	const floor = 1e-6
	offset := 0.0
	for i := 0; i < 3; i++ {
		if e := posErr[i]; e > offset {
			offset = e
		}
	}
	if offset < floor {
		offset = floor
	}

	n := geomNormal
	if n.Dot(direction) < 0 {
		n = n.Mul(-1)
	}
	return pos.Add(n.Mul(offset))
}
