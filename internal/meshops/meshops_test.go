package meshops

import (
	"testing"

	"github.com/Faultbox/nexus-export/pkg/scene"
)

// quad builds a unit quad with duplicated corner vertices so merge has work
// to do: vertices 4 and 5 duplicate 0 and 2.
func quad() *scene.Mesh {
	m := &scene.Mesh{
		Vertices: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 0}, {1, 1, 0},
		},
		Faces: [][]int{{0, 1, 2, 3}, {4, 1, 5}},
	}
	m.RebuildEdges()
	return m
}

func TestLoad_DoesNotTouchSource(t *testing.T) {
	src := quad()
	w := Load(src)
	w.MergeByDistance(0.001)
	w.Triangulate()

	if len(src.Vertices) != 6 {
		t.Errorf("source mesh mutated: %d vertices", len(src.Vertices))
	}
	if len(src.Faces) != 2 {
		t.Errorf("source mesh mutated: %d faces", len(src.Faces))
	}
}

func TestMergeByDistance_RemovesDoubles(t *testing.T) {
	w := Load(quad())
	w.MergeByDistance(0.0001)
	m := w.Commit()

	if len(m.Vertices) != 4 {
		t.Errorf("expected 4 vertices after merge, got %d", len(m.Vertices))
	}
	// Both faces survive; the triangle now shares the quad's corners.
	if len(m.Faces) != 2 {
		t.Errorf("expected 2 faces, got %d", len(m.Faces))
	}
	for _, f := range m.Faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(m.Vertices) {
				t.Fatalf("face references out-of-range vertex %d", vi)
			}
		}
	}
}

func TestMergeByDistance_DropsCollapsedFaces(t *testing.T) {
	m := &scene.Mesh{
		Vertices: [][3]float32{{0, 0, 0}, {0.00001, 0, 0}, {0, 0.00001, 0}},
		Faces:    [][]int{{0, 1, 2}},
	}
	w := Load(m)
	w.MergeByDistance(0.001)

	if len(w.Mesh().Faces) != 0 {
		t.Errorf("fully collapsed face should be dropped, got %d faces", len(w.Mesh().Faces))
	}
	if len(w.Mesh().Vertices) != 1 {
		t.Errorf("expected 1 vertex, got %d", len(w.Mesh().Vertices))
	}
}

func TestRemoveLoose_VertsThenEdges(t *testing.T) {
	m := &scene.Mesh{
		Vertices: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, // face
			{5, 5, 5},                       // loose vertex
			{7, 0, 0}, {8, 0, 0},            // wire edge
		},
		Faces: [][]int{{0, 1, 2}},
		Edges: [][2]int{{0, 1}, {1, 2}, {0, 2}, {4, 5}},
	}
	w := Load(m)
	w.RemoveLooseVerts()
	w.RemoveLooseEdges()
	got := w.Mesh()

	// The loose vertex goes; wire-edge endpoints survive vertex removal
	// because the edge still existed at that point.
	if len(got.Vertices) != 5 {
		t.Errorf("expected 5 vertices after loose vertex removal, got %d", len(got.Vertices))
	}
	for _, e := range got.Edges {
		a, b := e[0], e[1]
		if a > b {
			a, b = b, a
		}
		if a == 3 && b == 4 {
			t.Error("wire edge should have been removed")
		}
	}
	if len(got.Edges) != 3 {
		t.Errorf("expected 3 face edges, got %d", len(got.Edges))
	}
}

func TestRecalcNormals_OutwardAndUnit(t *testing.T) {
	// Unit cube as triangles with one face wound inward.
	m := cubeMesh()
	reverse(m.Faces[0])

	w := Load(m)
	w.RecalcNormals()
	got := w.Mesh()

	if len(got.Normals) != len(got.Vertices) {
		t.Fatalf("expected %d normals, got %d", len(got.Vertices), len(got.Normals))
	}
	for i, n := range got.Normals {
		l := n[0]*n[0] + n[1]*n[1] + n[2]*n[2]
		if l < 0.99 || l > 1.01 {
			t.Errorf("normal %d not unit length: %v", i, n)
		}
	}
	// Every face normal must now point away from the centroid.
	for fi, f := range got.Faces {
		fn := faceNormal(got, f)
		fc := faceCenter(got, f)
		if dot(fn, [3]float32{fc[0] - 0.5, fc[1] - 0.5, fc[2] - 0.5}) < 0 {
			t.Errorf("face %d still points inward", fi)
		}
	}
}

func TestTriangulate(t *testing.T) {
	w := Load(quad())
	w.Triangulate()
	m := w.Commit()

	for _, f := range m.Faces {
		if len(f) != 3 {
			t.Errorf("expected only triangles, got face with %d vertices", len(f))
		}
	}
	// Quad -> 2 triangles, plus the existing triangle.
	if len(m.Faces) != 3 {
		t.Errorf("expected 3 faces, got %d", len(m.Faces))
	}
	if m.TriangleCount() != 3 {
		t.Errorf("expected 3 triangles, got %d", m.TriangleCount())
	}
}

func cubeMesh() *scene.Mesh {
	m := &scene.Mesh{
		Vertices: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		},
		Faces: [][]int{
			{0, 3, 2, 1}, // bottom (z=0), outward is -Z
			{4, 5, 6, 7}, // top
			{0, 1, 5, 4}, // front
			{2, 3, 7, 6}, // back
			{1, 2, 6, 5}, // right
			{3, 0, 4, 7}, // left
		},
	}
	m.RebuildEdges()
	return m
}
