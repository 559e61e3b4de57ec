package export

import (
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Resolve computes the export set for one queued root: the root itself plus
// all visible descendants in depth-first order. A hidden object prunes its
// whole subtree.
func Resolve(sc *scene.Scene, root scene.ObjectID) []scene.ObjectID {
	out := []scene.ObjectID{root}
	return append(out, sc.Descendants(root, true)...)
}

// distinctMaterials returns the materials referenced by the set, each once,
// in first-reference order.
func distinctMaterials(sc *scene.Scene, set []scene.ObjectID) []scene.MaterialID {
	seen := map[scene.MaterialID]bool{}
	var out []scene.MaterialID
	for _, id := range set {
		o := sc.Object(id)
		if o == nil {
			continue
		}
		for _, mid := range o.Materials {
			if seen[mid] || sc.Material(mid) == nil {
				continue
			}
			seen[mid] = true
			out = append(out, mid)
		}
	}
	return out
}

// distinctImages returns the texture images referenced by the set's
// materials, each once. Shared images are resized once per pass, not once
// per reference.
func distinctImages(sc *scene.Scene, set []scene.ObjectID) []scene.ImageID {
	seen := map[scene.ImageID]bool{}
	var out []scene.ImageID
	for _, mid := range distinctMaterials(sc, set) {
		for _, iid := range sc.Material(mid).TexImages() {
			if seen[iid] || sc.Image(iid) == nil {
				continue
			}
			seen[iid] = true
			out = append(out, iid)
		}
	}
	return out
}

// setTriangles sums triangle counts over the set's mesh objects.
func setTriangles(sc *scene.Scene, set []scene.ObjectID) int {
	counted := map[scene.MeshID]bool{}
	n := 0
	for _, id := range set {
		o, ok := meshObject(sc, id)
		if !ok || counted[o.Mesh] {
			continue
		}
		counted[o.Mesh] = true
		n += sc.Mesh(o.Mesh).TriangleCount()
	}
	return n
}

// meshObject returns the object if it is a mesh object with live mesh data.
func meshObject(sc *scene.Scene, id scene.ObjectID) (*scene.Object, bool) {
	o := sc.Object(id)
	if o == nil || o.Type != scene.ObjectMesh || o.Mesh == scene.NoMesh {
		return nil, false
	}
	if sc.Mesh(o.Mesh) == nil {
		return nil, false
	}
	return o, true
}
