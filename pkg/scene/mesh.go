package scene

// Mesh holds polygon mesh data. Faces index into Vertices; Edges carries both
// face edges and standalone wire edges so loose-geometry detection works the
// same way it does in a modeling kernel.
type Mesh struct {
	Name     string
	Vertices [][3]float32
	Normals  [][3]float32
	UVs      [][2]float32
	Faces    [][]int
	Edges    [][2]int
}

// TriangleCount returns the triangle count after fan triangulation: a face
// with n vertices contributes n-2 triangles.
func (m *Mesh) TriangleCount() int {
	total := 0
	for _, f := range m.Faces {
		if len(f) >= 3 {
			total += len(f) - 2
		}
	}
	return total
}

// Clone returns a deep copy of the mesh data.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:     m.Name,
		Vertices: make([][3]float32, len(m.Vertices)),
		Normals:  make([][3]float32, len(m.Normals)),
		UVs:      make([][2]float32, len(m.UVs)),
		Faces:    make([][]int, len(m.Faces)),
		Edges:    make([][2]int, len(m.Edges)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Normals, m.Normals)
	copy(c.UVs, m.UVs)
	copy(c.Edges, m.Edges)
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	return c
}

// RebuildEdges regenerates the edge list from faces, keeping any wire edge
// that still references valid vertices.
func (m *Mesh) RebuildEdges() {
	seen := map[[2]int]bool{}
	var edges [][2]int
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if !seen[key] {
			seen[key] = true
			edges = append(edges, key)
		}
	}
	for _, f := range m.Faces {
		for i := range f {
			add(f[i], f[(i+1)%len(f)])
		}
	}
	for _, e := range m.Edges {
		if e[0] < len(m.Vertices) && e[1] < len(m.Vertices) {
			add(e[0], e[1])
		}
	}
	m.Edges = edges
}
