package vmath

import "github.com/go-gl/mathgl/mgl64"

// Transform wraps a 4x4 matrix (and its inverse-transpose, used for
// normals) the way spec.md §3 describes assembly instance transforms.
type Transform struct {
	M    mgl64.Mat4
	Norm mgl64.Mat4 // inverse-transpose, for transforming normals
}

// Identity returns the identity transform.
func Identity() Transform {
	id := mgl64.Ident4()
	return Transform{M: id, Norm: id}
}

// NewTransform builds a Transform from a raw matrix, deriving the
// inverse-transpose needed for normal transformation.
func NewTransform(m mgl64.Mat4) Transform {
	return Transform{M: m, Norm: m.Inv().Transpose()}
}

// Mul composes two transforms: applying the result is equivalent to
// applying t first, then other.
func (t Transform) Mul(other Transform) Transform {
	return Transform{M: other.M.Mul4(t.M), Norm: other.Norm.Mul4(t.Norm)}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	return Transform{M: t.M.Inv(), Norm: t.Norm.Inv()}
}

// TransformPoint applies the transform to a position.
func (t Transform) TransformPoint(p Point) Point {
	return t.M.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformVector applies the transform to a direction, ignoring
// translation.
func (t Transform) TransformVector(v Vector) Vector {
	return t.M.Mul4x1(v.Vec4(0)).Vec3()
}

// TransformNormal applies the inverse-transpose to a shading/geometric
// normal, preserving orthogonality to the surface under non-uniform scale.
func (t Transform) TransformNormal(n Normal) Normal {
	return SafeNormalize(t.Norm.Mul4x1(n.Vec4(0)).Vec3())
}

// TransformAABB transforms an AABB by projecting its 8 corners and
// re-enclosing them — the standard approach for keeping an
// axis-aligned box axis-aligned under an arbitrary transform.
func (t Transform) TransformAABB(box AABB) AABB {
	corners := [8]Point{
		{box.Min[0], box.Min[1], box.Min[2]},
		{box.Max[0], box.Min[1], box.Min[2]},
		{box.Min[0], box.Max[1], box.Min[2]},
		{box.Max[0], box.Max[1], box.Min[2]},
		{box.Min[0], box.Min[1], box.Max[2]},
		{box.Max[0], box.Min[1], box.Max[2]},
		{box.Min[0], box.Max[1], box.Max[2]},
		{box.Max[0], box.Max[1], box.Max[2]},
	}
	out := EmptyAABB()
	for _, c := range corners {
		out = out.UnionPoint(t.TransformPoint(c))
	}
	return out
}

// TransformSequence is an ordered sequence of transforms, one per time
// sample, exactly mirroring BoundsSequence.
type TransformSequence []Transform

// InterpolateAt returns the transform interpolated to time t. Rather than
// lerping the 16 matrix entries directly (which skews a rotating instance
// through an intermediate shear instead of an intermediate rotation), each
// keyframe is decomposed into translation/rotation/scale; translation and
// scale are lerped and the rotation is slerped, then recomposed.
func (ts TransformSequence) InterpolateAt(t float64) Transform {
	if len(ts) == 0 {
		return Identity()
	}
	if len(ts) == 1 || t <= 0 {
		return ts[0]
	}
	if t >= 1 {
		return ts[len(ts)-1]
	}
	seg := t * float64(len(ts)-1)
	i := int(seg)
	if i >= len(ts)-1 {
		return ts[len(ts)-1]
	}
	frac := seg - float64(i)
	return lerpDecomposed(ts[i], ts[i+1], frac)
}

// decomposedTransform is a translation/rotation/scale split of a 4x4
// affine matrix, recovered by normalizing the basis columns before they're
// handed to mgl64's matrix-to-quaternion conversion.
type decomposedTransform struct {
	translate mgl64.Vec3
	rotate    mgl64.Quat
	scale     mgl64.Vec3
}

func decompose(t Transform) decomposedTransform {
	col := func(i int) mgl64.Vec3 {
		return mgl64.Vec3{t.M[i*4+0], t.M[i*4+1], t.M[i*4+2]}
	}
	cx, cy, cz := col(0), col(1), col(2)
	sx, sy, sz := cx.Len(), cy.Len(), cz.Len()
	rot := mgl64.Ident4()
	setCol := func(m *mgl64.Mat4, i int, v mgl64.Vec3) {
		m[i*4+0], m[i*4+1], m[i*4+2] = v[0], v[1], v[2]
	}
	if sx > 1e-12 {
		setCol(&rot, 0, cx.Mul(1/sx))
	}
	if sy > 1e-12 {
		setCol(&rot, 1, cy.Mul(1/sy))
	}
	if sz > 1e-12 {
		setCol(&rot, 2, cz.Mul(1/sz))
	}
	return decomposedTransform{
		translate: mgl64.Vec3{t.M[12], t.M[13], t.M[14]},
		rotate:    mgl64.Mat4ToQuat(rot),
		scale:     mgl64.Vec3{sx, sy, sz},
	}
}

func lerpDecomposed(a, b Transform, frac float64) Transform {
	da, db := decompose(a), decompose(b)
	translate := da.translate.Mul(1 - frac).Add(db.translate.Mul(frac))
	scale := da.scale.Mul(1 - frac).Add(db.scale.Mul(frac))
	rot := mgl64.QuatSlerp(da.rotate, db.rotate, frac)

	m := rot.Mat4()
	m[0], m[1], m[2] = m[0]*scale[0], m[1]*scale[0], m[2]*scale[0]
	m[4], m[5], m[6] = m[4]*scale[1], m[5]*scale[1], m[6]*scale[1]
	m[8], m[9], m[10] = m[8]*scale[2], m[9]*scale[2], m[10]*scale[2]
	m[12], m[13], m[14] = translate[0], translate[1], translate[2]
	return NewTransform(m)
}
