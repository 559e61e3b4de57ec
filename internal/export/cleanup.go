package export

import (
	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/internal/meshops"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// CleanupMeshes swaps each mesh in the set for a cleaned working copy. The
// original data block is registered for restoration first, so the swap is
// reversed and the copy discarded when the pass ends. Shared meshes are
// cleaned once.
func (p *Pass) CleanupMeshes(set []scene.ObjectID, cs config.CleanupSettings) {
	done := map[scene.MeshID]bool{}
	for _, id := range set {
		o, ok := meshObject(p.sc, id)
		if !ok || done[o.Mesh] {
			continue
		}
		done[o.Mesh] = true

		mid := o.Mesh
		orig := p.sc.Mesh(mid)
		p.record("mesh", orig.Name, func() error {
			p.sc.SwapMesh(mid, orig)
			return nil
		})

		w := meshops.Load(orig)
		if cs.RemoveDoubles {
			w.MergeByDistance(cs.DoublesDistance)
		}
		if cs.DeleteLoose {
			// Vertices first; removing edges earlier could leave new
			// loose vertices behind.
			w.RemoveLooseVerts()
			w.RemoveLooseEdges()
		}
		if cs.FixNormals {
			w.RecalcNormals()
		}
		if cs.Triangulate {
			w.Triangulate()
		}
		p.sc.SwapMesh(mid, w.Commit())
	}
}
