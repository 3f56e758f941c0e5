// Package tracer implements the recursive, assembly-instanced ray
// dispatcher: it pushes/pops instance transforms, re-derives accel rays
// across them, and routes batches down to leaf geometry (spec.md §4.3).
package tracer

import (
	"math"

	"github.com/duskforge/spectra/internal/bvh"
	"github.com/duskforge/spectra/internal/scene"
	"github.com/duskforge/spectra/internal/shading"
	"github.com/duskforge/spectra/internal/vmath"
)

// HitState distinguishes a confirmed hit from a miss.
type HitState int

const (
	Miss HitState = iota
	Hit
)

// Intersection is the tracer's output for one ray: either Miss, or a Hit
// carrying world-space position/normals, the robust position error bound,
// and the resolved shading closure (spec.md §4.3's output contract).
type Intersection struct {
	State    HitState
	T        float64
	Position vmath.Point
	Ns, Ng   vmath.Normal
	PosErr   vmath.Vector
	Closure  shading.Closure
}

// Emitted returns the closure's emitted color and true if it is an
// Emitter; returns (black, false) otherwise. Callers (the integrator)
// use this to decide whether a hit terminates the path with light.
func (isect Intersection) Emitted() (color [4]float64, ok bool) {
	e, isEmitter := isect.Closure.(shading.Emitter)
	if !isEmitter {
		return [4]float64{}, false
	}
	s := e.EmittedColor()
	return [4]float64(s), true
}

// Trace traces a batch of world rays through root, returning one
// Intersection per input ray in the same order. Rays are first grouped
// into the 8 direction-sign octants (spec.md §4.3), then each octant's
// whole working subset travels together: one BVH traversal culls nodes
// for the entire subset at once, and a subset recursing into a nested
// assembly is re-partitioned and descended as a group rather than one
// ray at a time.
func Trace(root *scene.Assembly, rays []vmath.Ray) []Intersection {
	out := make([]Intersection, len(rays))

	accel := make([]vmath.AccelRay, len(rays))
	for i, r := range rays {
		accel[i] = vmath.NewAccelRay(i, r)
	}

	for _, group := range octantPartition(accel) {
		traceGroup(root, group, out, vmath.Identity())
	}
	return out
}

// octantPartition groups accel-rays into the 8 buckets produced by their
// direction-sign bits, exactly as spec.md §4.3 describes.
func octantPartition(accel []vmath.AccelRay) [8][]vmath.AccelRay {
	var groups [8][]vmath.AccelRay
	for _, ar := range accel {
		octant := ar.Sign[0] | ar.Sign[1]<<1 | ar.Sign[2]<<2
		groups[octant] = append(groups[octant], ar)
	}
	return groups
}

// pendingInstance accumulates every ray in the current group that needs
// to recurse into the same nested-assembly instance under a
// time-invariant transform, so the instance is descended into once as a
// batch rather than once per ray.
type pendingInstance struct {
	child     *scene.Assembly
	instXform vmath.Transform
	rays      []vmath.AccelRay
}

// traceGroup dispatches the working subset group (world-space rays
// sharing parentToWorld) through assembly a: one BVH traversal culls
// nodes for every ray in the group at once, each leaf's instances are
// tested against the subset of the group still live at that leaf, and
// results are written directly into best, indexed by each ray's ID.
func traceGroup(a *scene.Assembly, group []vmath.AccelRay, best []Intersection, parentToWorld vmath.Transform) {
	if len(group) == 0 || a.ObjectAccel == nil || a.ObjectAccel.Empty() {
		return
	}

	toLocal := parentToWorld.Inverse()
	n := len(group)
	origin := make([]vmath.Point, n)
	invDir := make([]vmath.Vector, n)
	sign := make([][3]int, n)
	timeArr := make([]float64, n)
	maxT := make([]float64, n)
	live := make([]int, n)
	for i, ar := range group {
		origin[i] = toLocal.TransformPoint(ar.Origin)
		invDir[i] = vmath.InvDir(toLocal.TransformVector(ar.Direction))
		sign[i] = vmath.DirSign(invDir[i])
		timeArr[i] = ar.Time
		maxT[i] = ar.MaxT
		live[i] = i
	}
	batch := &bvh.RayBatch{Origin: origin, InvDir: invDir, Sign: sign, Time: timeArr, MaxT: maxT, Live: live}

	pending := map[int]*pendingInstance{}

	bvh.Traverse(a.ObjectAccel, batch, func(lo, hi int, liveIdx []int) {
		if len(liveIdx) == 0 {
			return
		}
		for instIdx := lo; instIdx < hi; instIdx++ {
			inst := a.Instances[instIdx]
			// A transform range of 0 or 1 samples is time-invariant: every
			// ray in the group (whatever its sampled time) resolves to the
			// same instXform, so the whole live subset can share one
			// composed transform and one batched descent.
			static := inst.TransformHi-inst.TransformLo <= 1

			var sharedXform, sharedToLocal vmath.Transform
			if static {
				sharedXform = parentToWorld
				if inst.TransformHi > inst.TransformLo {
					sharedXform = parentToWorld.Mul(a.Transforms[inst.TransformLo])
				}
				sharedToLocal = sharedXform.Inverse()
			}

			switch inst.Kind {
			case scene.InstanceObject:
				obj := a.Objects[inst.DataIndex]
				shaderIdx := inst.ShaderIdx
				if shaderIdx < 0 {
					shaderIdx = obj.DefaultIdx
				}
				for _, ri := range liveIdx {
					ar := group[ri]
					objToWorld, objToLocal := sharedXform, sharedToLocal
					if !static {
						seq := vmath.TransformSequence(a.Transforms[inst.TransformLo:inst.TransformHi])
						objToWorld = parentToWorld.Mul(seq.InterpolateAt(ar.Time))
						objToLocal = objToWorld.Inverse()
					}
					localO := objToLocal.TransformPoint(ar.Origin)
					localD := objToLocal.TransformVector(ar.Direction)
					hit, ok := obj.Geometry.Intersect(localO, localD, ar.Time, batch.MaxT[ri])
					if !ok || (best[ar.ID].State == Hit && best[ar.ID].T <= hit.T) {
						continue
					}
					if hit.T < batch.MaxT[ri] {
						batch.MaxT[ri] = hit.T
					}
					best[ar.ID] = Intersection{
						State:    Hit,
						T:        hit.T,
						Position: objToWorld.TransformPoint(hit.Position),
						Ns:       objToWorld.TransformNormal(hit.Ns),
						Ng:       objToWorld.TransformNormal(hit.Ng),
						PosErr:   hit.PosErr,
						Closure:  a.Shader(shaderIdx),
					}
				}

			case scene.InstanceAssembly:
				child := a.Assemblies[inst.DataIndex]
				if static {
					p, ok := pending[instIdx]
					if !ok {
						p = &pendingInstance{child: child, instXform: sharedXform}
						pending[instIdx] = p
					}
					// Rays carried into a nested assembly stay in world
					// space, exactly like the world rays handed to Trace:
					// the recursive traceGroup call derives the child's
					// local frame itself from instXform, the same way
					// every other traceGroup call does.
					for _, ri := range liveIdx {
						ar := group[ri]
						ar.MaxT = batch.MaxT[ri]
						p.rays = append(p.rays, ar)
					}
					continue
				}

				// A time-varying instance transform gives each ray its
				// own instXform, so this subset can't share one BVH
				// descent into the child; it recurses one ray at a time,
				// still through the same batched traceGroup machinery.
				for _, ri := range liveIdx {
					ar := group[ri]
					seq := vmath.TransformSequence(a.Transforms[inst.TransformLo:inst.TransformHi])
					instXform := parentToWorld.Mul(seq.InterpolateAt(ar.Time))
					ar.MaxT = batch.MaxT[ri]
					traceGroup(child, []vmath.AccelRay{ar}, best, instXform)
					if best[ar.ID].State == Hit && best[ar.ID].T < batch.MaxT[ri] {
						batch.MaxT[ri] = best[ar.ID].T
					}
				}
			}
		}
	})

	for _, p := range pending {
		traceGroup(p.child, p.rays, best, p.instXform)
	}
}

// Occluded reports whether ray hits any geometry nearer than its MaxT. It
// runs the same closest-hit search as Trace (no early exit on the first
// hit) and discards the resolved closure.
func Occluded(root *scene.Assembly, ray vmath.Ray) bool {
	best := []Intersection{{State: Miss}}
	traceGroup(root, []vmath.AccelRay{vmath.NewAccelRay(0, ray)}, best, vmath.Identity())
	return best[0].State == Hit && best[0].T < math.Inf(1)
}
