package export

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nexus-export/pkg/scene"
)

// BakeTransforms folds each object's world transform into its mesh data and
// resets every transform in the set to identity. World matrices are composed
// through parents that are themselves in the set, so a child keeps its
// composed position when its parent's transform is cleared. Both the
// transform values and the original mesh data blocks are registered for
// restoration.
func (p *Pass) BakeTransforms(set []scene.ObjectID) {
	inSet := map[scene.ObjectID]bool{}
	for _, id := range set {
		inSet[id] = true
	}

	// Compute every world matrix before any transform is touched; resetting
	// a parent first would corrupt its children's matrices.
	world := map[scene.ObjectID]mgl32.Mat4{}
	for _, id := range set {
		o := p.sc.Object(id)
		if o == nil {
			continue
		}
		m := localMat(o)
		for pid := o.Parent; pid != scene.NoObject && inSet[pid]; {
			po := p.sc.Object(pid)
			if po == nil {
				break
			}
			m = localMat(po).Mul4(m)
			pid = po.Parent
		}
		world[id] = m
	}

	baked := map[scene.MeshID]bool{}
	for _, id := range set {
		o := p.sc.Object(id)
		if o == nil {
			continue
		}
		w, ok := world[id]
		if !ok {
			continue
		}

		isMesh := o.Type == scene.ObjectMesh && o.Mesh != scene.NoMesh

		// A mesh shared by several objects can only carry one object's
		// transform; the first wins, the rest keep theirs.
		if isMesh && baked[o.Mesh] {
			continue
		}

		// Every transform in the set is cleared, empties included, or the
		// exported node hierarchy would apply them a second time.
		if !isIdentity(o) {
			loc, rot, scl := o.Location, o.RotationEuler, o.Scale
			obj := o
			p.record("transform", o.Name, func() error {
				obj.Location, obj.RotationEuler, obj.Scale = loc, rot, scl
				return nil
			})
			o.Location = mgl32.Vec3{}
			o.RotationEuler = mgl32.Vec3{}
			o.Scale = mgl32.Vec3{1, 1, 1}
		}

		if !isMesh || w == mgl32.Ident4() {
			continue
		}
		baked[o.Mesh] = true

		mid := o.Mesh
		orig := p.sc.Mesh(mid)
		p.record("mesh", orig.Name, func() error {
			p.sc.SwapMesh(mid, orig)
			return nil
		})

		nm := w.Mat3().Inv().Transpose()
		work := orig.Clone()
		for i, v := range work.Vertices {
			t := w.Mul4x1(mgl32.Vec4{v[0], v[1], v[2], 1})
			work.Vertices[i] = [3]float32{t.X(), t.Y(), t.Z()}
		}
		for i, n := range work.Normals {
			v3 := nm.Mul3x1(mgl32.Vec3{n[0], n[1], n[2]})
			if l := v3.Len(); l > 0 {
				v3 = v3.Mul(1 / l)
			}
			work.Normals[i] = [3]float32{v3.X(), v3.Y(), v3.Z()}
		}
		p.sc.SwapMesh(mid, work)
	}
}

func localMat(o *scene.Object) mgl32.Mat4 {
	return mgl32.Translate3D(o.Location.X(), o.Location.Y(), o.Location.Z()).
		Mul4(mgl32.AnglesToQuat(o.RotationEuler.X(), o.RotationEuler.Y(), o.RotationEuler.Z(), mgl32.XYZ).Mat4()).
		Mul4(mgl32.Scale3D(o.Scale.X(), o.Scale.Y(), o.Scale.Z()))
}

func isIdentity(o *scene.Object) bool {
	return o.Location == (mgl32.Vec3{}) &&
		o.RotationEuler == (mgl32.Vec3{}) &&
		o.Scale == (mgl32.Vec3{1, 1, 1})
}
