package export

import (
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// unlitScene builds one mesh object with a lit principled material.
func unlitScene(t *testing.T) (*scene.Scene, scene.ObjectID, scene.MaterialID) {
	t.Helper()
	s := scene.New()

	mat := scene.NewMaterial("Lit")
	out := mat.NewNode(scene.NodeOutputMaterial, "Material Output")
	out.ActiveOutput = true
	bsdf := mat.NewNode(scene.NodeBSDFPrincipled, "Principled BSDF")
	bsdf.SetDefault("Base Color", [4]float32{0.2, 0.4, 0.6, 1})
	mat.Connect(bsdf, "BSDF", out, "Surface")
	mid := s.AddMaterial(mat)

	mesh := s.AddMesh(&scene.Mesh{
		Name:     "Tri",
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][]int{{0, 1, 2}},
	})
	o := scene.NewObject("Tri", scene.ObjectMesh)
	o.Mesh = mesh
	o.Materials = []scene.MaterialID{mid}
	oid := s.AddObject(o)
	return s, oid, mid
}

func TestApplyUnlit_RewiresAndRestores(t *testing.T) {
	s, oid, mid := unlitScene(t)
	mat := s.Material(mid)

	p := newPass(s)
	p.ApplyUnlit([]scene.ObjectID{oid})

	out := mat.ActiveOutput()
	link := mat.InputLink(out, "Surface")
	if link == nil || link.FromNode.Type != scene.NodeEmission {
		t.Fatal("surface not rewired to emission")
	}
	if v, ok := link.FromNode.Default("Color"); !ok || v[0] != 0.2 {
		t.Fatalf("emission color = %v, want lifted base color", v)
	}

	p.Restore()
	link = mat.InputLink(out, "Surface")
	if link == nil || link.FromNode.Type != scene.NodeBSDFPrincipled {
		t.Fatal("surface not restored to principled shader")
	}
	if mat.FindNode(tempEmissionName) != nil {
		t.Fatal("temporary emission node not deleted")
	}

	// Double restore must be harmless.
	p.Restore()
	if mat.FindNode(tempEmissionName) != nil {
		t.Fatal("second restore recreated state damage")
	}
}

func TestApplyUnlit_LiftsTextureLink(t *testing.T) {
	s, oid, _ := texScene(t, 64, 64)
	mat := s.Material(s.Object(oid).Materials[0])

	p := newPass(s)
	p.ApplyUnlit([]scene.ObjectID{oid})

	out := mat.ActiveOutput()
	em := mat.InputLink(out, "Surface").FromNode
	clink := mat.InputLink(em, "Color")
	if clink == nil || clink.FromNode.Type != scene.NodeTexImage {
		t.Fatal("texture link not lifted into emission input")
	}
	p.Restore()
}

func TestApplyUnlit_SkipsNonStandardGraphs(t *testing.T) {
	s := scene.New()

	// Emission-driven material: upstream is not a principled shader.
	mat := scene.NewMaterial("Flat")
	out := mat.NewNode(scene.NodeOutputMaterial, "Material Output")
	out.ActiveOutput = true
	em := mat.NewNode(scene.NodeEmission, "Emission")
	mat.Connect(em, "Emission", out, "Surface")
	mid := s.AddMaterial(mat)

	// Material with no output node at all.
	bare := scene.NewMaterial("Bare")
	bare.NewNode(scene.NodeBSDFPrincipled, "Principled BSDF")
	bid := s.AddMaterial(bare)

	mesh := s.AddMesh(&scene.Mesh{
		Name:     "Tri",
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][]int{{0, 1, 2}},
	})
	o := scene.NewObject("Tri", scene.ObjectMesh)
	o.Mesh = mesh
	o.Materials = []scene.MaterialID{mid, bid}
	oid := s.AddObject(o)

	p := newPass(s)
	p.ApplyUnlit([]scene.ObjectID{oid})
	if len(p.undo) != 0 {
		t.Fatalf("non-standard graphs touched: %d undo entries", len(p.undo))
	}
}

func TestApplyUnlit_SharedMaterialOnce(t *testing.T) {
	s, oid, mid := unlitScene(t)

	o2 := scene.NewObject("Tri2", scene.ObjectMesh)
	o2.Mesh = s.Object(oid).Mesh
	o2.Materials = []scene.MaterialID{mid}
	oid2 := s.AddObject(o2)
	s.SetParent(oid2, oid)

	p := newPass(s)
	p.ApplyUnlit(Resolve(s, oid))
	if len(p.undo) != 1 {
		t.Fatalf("shared material rewired %d times, want 1", len(p.undo))
	}
	p.Restore()
}

func TestCleanupMeshes_SwapAndRestore(t *testing.T) {
	s, oid, _ := unlitScene(t)
	o := s.Object(oid)
	orig := s.Mesh(o.Mesh)
	// Duplicate vertex to give the merge something to do.
	orig.Vertices = append(orig.Vertices, [3]float32{0, 0, 0})
	origVerts := len(orig.Vertices)

	p := newPass(s)
	p.CleanupMeshes([]scene.ObjectID{oid}, config.CleanupSettings{
		Enabled:         true,
		RemoveDoubles:   true,
		DoublesDistance: 0.0001,
		Triangulate:     true,
	})

	cleaned := s.Mesh(o.Mesh)
	if cleaned == orig {
		t.Fatal("live mesh was not swapped for a working copy")
	}
	if len(cleaned.Vertices) >= origVerts {
		t.Fatalf("merge did not drop the duplicate: %d verts", len(cleaned.Vertices))
	}
	if len(orig.Vertices) != origVerts {
		t.Fatal("original data block was mutated")
	}

	p.Restore()
	if s.Mesh(o.Mesh) != orig {
		t.Fatal("original mesh not swapped back")
	}
}

func TestBakeTransforms_Restores(t *testing.T) {
	s, oid, _ := unlitScene(t)
	o := s.Object(oid)
	o.Location = mgl32.Vec3{1, 2, 3}
	o.Scale = mgl32.Vec3{2, 2, 2}
	orig := s.Mesh(o.Mesh)

	p := newPass(s)
	p.BakeTransforms([]scene.ObjectID{oid})

	if !isIdentity(o) {
		t.Fatal("transform not reset after bake")
	}
	baked := s.Mesh(o.Mesh)
	if baked == orig {
		t.Fatal("mesh not swapped for baked copy")
	}
	// Vertex 1 was (1,0,0): scaled to (2,0,0), translated to (3,2,3).
	if v := baked.Vertices[1]; v != [3]float32{3, 2, 3} {
		t.Fatalf("baked vertex = %v, want (3 2 3)", v)
	}

	p.Restore()
	if o.Location != (mgl32.Vec3{1, 2, 3}) || o.Scale != (mgl32.Vec3{2, 2, 2}) {
		t.Fatal("transform not restored")
	}
	if s.Mesh(o.Mesh) != orig {
		t.Fatal("mesh not restored")
	}
}

func TestBakeTransforms_ParentContribution(t *testing.T) {
	s, child, _ := unlitScene(t)
	parent := s.AddObject(scene.NewObject("Rig", scene.ObjectEmpty))
	s.SetParent(child, parent)
	po := s.Object(parent)
	po.Location = mgl32.Vec3{1, 0, 0}
	co := s.Object(child)
	origMesh := s.Mesh(co.Mesh)

	p := newPass(s)
	p.BakeTransforms([]scene.ObjectID{parent, child})

	if !isIdentity(po) || !isIdentity(co) {
		t.Fatal("transforms not reset after bake")
	}
	// Child vertex 0 was at the origin; the parent's offset carries it to
	// (1,0,0) in world space.
	if v := s.Mesh(co.Mesh).Vertices[0]; v != [3]float32{1, 0, 0} {
		t.Fatalf("baked child vertex = %v, want (1 0 0)", v)
	}

	p.Restore()
	if po.Location != (mgl32.Vec3{1, 0, 0}) {
		t.Fatal("parent transform not restored")
	}
	if s.Mesh(co.Mesh) != origMesh {
		t.Fatal("child mesh not restored")
	}
}

// TestPass_FullRestorationIdempotence runs every mutation stage and checks
// the scene is back to its pre-pass state afterward.
func TestPass_FullRestorationIdempotence(t *testing.T) {
	s, oid, iid := texScene(t, 1000, 600)
	o := s.Object(oid)
	o.Location = mgl32.Vec3{5, 0, 0}
	mat := s.Material(o.Materials[0])
	orig := s.Mesh(o.Mesh)
	origVerts := append([][3]float32(nil), orig.Vertices...)

	p := newPass(s)
	p.BakeTransforms([]scene.ObjectID{oid})
	p.CleanupMeshes([]scene.ObjectID{oid}, config.CleanupSettings{
		Enabled: true, RemoveDoubles: true, DoublesDistance: 0.0001, Triangulate: true,
	})
	p.ApplyUnlit([]scene.ObjectID{oid})
	p.ResizeTextures([]scene.ObjectID{oid},
		config.ResizeSettings{Enabled: true, MaxSize: 512},
		config.POTSettings{Enabled: true, Method: config.POTNearest})
	p.Restore()

	if o.Location != (mgl32.Vec3{5, 0, 0}) {
		t.Error("transform changed by pass")
	}
	if got := s.Mesh(o.Mesh); got != orig || !reflect.DeepEqual(got.Vertices, origVerts) {
		t.Error("mesh data changed by pass")
	}
	if link := mat.InputLink(mat.ActiveOutput(), "Surface"); link == nil || link.FromNode.Type != scene.NodeBSDFPrincipled {
		t.Error("material graph changed by pass")
	}
	if mat.FindNode(tempEmissionName) != nil {
		t.Error("temporary node survived the pass")
	}
	if w, h := s.Image(iid).Size(); w != 1000 || h != 600 {
		t.Errorf("image = %dx%d, want original 1000x600", w, h)
	}
}
