// Package meshops implements mesh cleanup operations. All operations run on
// a disposable working copy; the authoritative mesh data block is never
// touched until the caller swaps in the committed result.
package meshops

import (
	gomath "math"

	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Working wraps a private clone of a mesh for destructive cleanup.
type Working struct {
	mesh *scene.Mesh
}

// Load creates a working copy of the given mesh.
func Load(src *scene.Mesh) *Working {
	return &Working{mesh: src.Clone()}
}

// Commit returns the cleaned mesh data block. The caller owns it from here.
func (w *Working) Commit() *scene.Mesh {
	return w.mesh
}

// Mesh exposes the working data for inspection.
func (w *Working) Mesh() *scene.Mesh {
	return w.mesh
}

// MergeByDistance merges vertices closer than dist (duplicate removal, not
// simplification). Faces that collapse below three distinct vertices are
// dropped, degenerate edges removed.
func (w *Working) MergeByDistance(dist float64) {
	m := w.mesh
	if len(m.Vertices) == 0 {
		return
	}

	cell := dist
	if cell <= 0 {
		cell = 1e-9
	}

	// Spatial hash: each vertex maps to the first vertex found within dist
	// in its own or a neighboring cell.
	type cellKey [3]int
	grid := map[cellKey][]int{}
	keyOf := func(v [3]float32) cellKey {
		return cellKey{
			int(gomath.Floor(float64(v[0]) / cell)),
			int(gomath.Floor(float64(v[1]) / cell)),
			int(gomath.Floor(float64(v[2]) / cell)),
		}
	}

	remap := make([]int, len(m.Vertices))
	var keepVerts [][3]float32
	var keepNormals [][3]float32
	var keepUVs [][2]float32

	for i, v := range m.Vertices {
		k := keyOf(v)
		target := -1
		for dx := -1; dx <= 1 && target < 0; dx++ {
			for dy := -1; dy <= 1 && target < 0; dy++ {
				for dz := -1; dz <= 1 && target < 0; dz++ {
					nk := cellKey{k[0] + dx, k[1] + dy, k[2] + dz}
					for _, j := range grid[nk] {
						if sqDist(v, keepVerts[j]) <= dist*dist {
							target = j
							break
						}
					}
				}
			}
		}
		if target >= 0 {
			remap[i] = target
			continue
		}
		idx := len(keepVerts)
		keepVerts = append(keepVerts, v)
		if i < len(m.Normals) {
			keepNormals = append(keepNormals, m.Normals[i])
		}
		if i < len(m.UVs) {
			keepUVs = append(keepUVs, m.UVs[i])
		}
		grid[keyOf(v)] = append(grid[keyOf(v)], idx)
		remap[i] = idx
	}

	m.Vertices = keepVerts
	if len(keepNormals) > 0 {
		m.Normals = keepNormals
	} else {
		m.Normals = nil
	}
	if len(keepUVs) > 0 {
		m.UVs = keepUVs
	} else {
		m.UVs = nil
	}

	var faces [][]int
	for _, f := range m.Faces {
		nf := make([]int, 0, len(f))
		for _, vi := range f {
			nv := remap[vi]
			if len(nf) == 0 || nf[len(nf)-1] != nv {
				nf = append(nf, nv)
			}
		}
		// Closing duplicate after remap.
		if len(nf) > 1 && nf[0] == nf[len(nf)-1] {
			nf = nf[:len(nf)-1]
		}
		if len(distinct(nf)) >= 3 {
			faces = append(faces, nf)
		}
	}
	m.Faces = faces

	var edges [][2]int
	for _, e := range m.Edges {
		a, b := remap[e[0]], remap[e[1]]
		if a != b {
			edges = append(edges, [2]int{a, b})
		}
	}
	m.Edges = edges
	m.RebuildEdges()
}

// RemoveLooseVerts deletes vertices with no connected edges or faces.
// Run this before RemoveLooseEdges so edge removal cannot re-create loose
// vertices that would then be missed.
func (w *Working) RemoveLooseVerts() {
	m := w.mesh
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, vi := range f {
			used[vi] = true
		}
	}
	for _, e := range m.Edges {
		used[e[0]] = true
		used[e[1]] = true
	}

	remap := make([]int, len(m.Vertices))
	var keepVerts [][3]float32
	var keepNormals [][3]float32
	var keepUVs [][2]float32
	for i := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(keepVerts)
		keepVerts = append(keepVerts, m.Vertices[i])
		if i < len(m.Normals) {
			keepNormals = append(keepNormals, m.Normals[i])
		}
		if i < len(m.UVs) {
			keepUVs = append(keepUVs, m.UVs[i])
		}
	}
	m.Vertices = keepVerts
	m.Normals = keepNormals
	m.UVs = keepUVs

	for fi, f := range m.Faces {
		for i, vi := range f {
			m.Faces[fi][i] = remap[vi]
		}
	}
	for ei, e := range m.Edges {
		m.Edges[ei] = [2]int{remap[e[0]], remap[e[1]]}
	}
}

// RemoveLooseEdges deletes wire edges that border no face.
func (w *Working) RemoveLooseEdges() {
	m := w.mesh
	faceEdge := map[[2]int]bool{}
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if a > b {
				a, b = b, a
			}
			faceEdge[[2]int{a, b}] = true
		}
	}

	var edges [][2]int
	for _, e := range m.Edges {
		a, b := e[0], e[1]
		if a > b {
			a, b = b, a
		}
		if faceEdge[[2]int{a, b}] {
			edges = append(edges, e)
		}
	}
	m.Edges = edges
}

// RecalcNormals flips faces whose geometric normal points inward (toward the
// mesh centroid) and recomputes area-weighted vertex normals.
func (w *Working) RecalcNormals() {
	m := w.mesh
	if len(m.Vertices) == 0 {
		return
	}

	var centroid [3]float32
	for _, v := range m.Vertices {
		centroid[0] += v[0]
		centroid[1] += v[1]
		centroid[2] += v[2]
	}
	n := float32(len(m.Vertices))
	centroid[0] /= n
	centroid[1] /= n
	centroid[2] /= n

	for fi, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		fn := faceNormal(m, f)
		fc := faceCenter(m, f)
		out := [3]float32{fc[0] - centroid[0], fc[1] - centroid[1], fc[2] - centroid[2]}
		if dot(fn, out) < 0 {
			reverse(m.Faces[fi])
		}
	}

	normals := make([][3]float32, len(m.Vertices))
	for _, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		fn := faceNormal(m, f)
		for _, vi := range f {
			normals[vi][0] += fn[0]
			normals[vi][1] += fn[1]
			normals[vi][2] += fn[2]
		}
	}
	for i := range normals {
		normals[i] = normalize(normals[i])
	}
	m.Normals = normals
}

// Triangulate fan-triangulates every polygonal face.
func (w *Working) Triangulate() {
	m := w.mesh
	var faces [][]int
	for _, f := range m.Faces {
		if len(f) <= 3 {
			faces = append(faces, f)
			continue
		}
		for i := 1; i < len(f)-1; i++ {
			faces = append(faces, []int{f[0], f[i], f[i+1]})
		}
	}
	m.Faces = faces
	m.RebuildEdges()
}

func sqDist(a, b [3]float32) float64 {
	dx := float64(a[0] - b[0])
	dy := float64(a[1] - b[1])
	dz := float64(a[2] - b[2])
	return dx*dx + dy*dy + dz*dz
}

func distinct(f []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range f {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func faceNormal(m *scene.Mesh, f []int) [3]float32 {
	v0 := m.Vertices[f[0]]
	v1 := m.Vertices[f[1]]
	v2 := m.Vertices[f[2]]
	e1 := [3]float32{v1[0] - v0[0], v1[1] - v0[1], v1[2] - v0[2]}
	e2 := [3]float32{v2[0] - v0[0], v2[1] - v0[1], v2[2] - v0[2]}
	return normalize(cross(e1, e2))
}

func faceCenter(m *scene.Mesh, f []int) [3]float32 {
	var c [3]float32
	for _, vi := range f {
		c[0] += m.Vertices[vi][0]
		c[1] += m.Vertices[vi][1]
		c[2] += m.Vertices[vi][2]
	}
	n := float32(len(f))
	return [3]float32{c[0] / n, c[1] / n, c[2] / n}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func normalize(v [3]float32) [3]float32 {
	l := float32(gomath.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 1e-8 {
		return [3]float32{}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

func reverse(f []int) {
	for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
		f[i], f[j] = f[j], f[i]
	}
}
