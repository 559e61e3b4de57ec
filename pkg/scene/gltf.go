package scene

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// LoadGLB reads a glTF/GLB file into a fresh scene.
func LoadGLB(path string) (*Scene, error) {
	s := New()
	if _, err := s.ImportGLB(path); err != nil {
		return nil, err
	}
	return s, nil
}

// ImportGLB imports a glTF/GLB file into the scene and returns the IDs of the
// newly created objects. Existing objects are untouched, which is what the
// roundtrip optimization relies on to tell imported temporaries apart.
func (s *Scene) ImportGLB(path string) ([]ObjectID, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	imp := &gltfImporter{scene: s, doc: doc}

	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = int(*doc.Scene)
	}
	if sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("glTF document %s has no scene", path)
	}

	for _, ni := range doc.Scenes[sceneIdx].Nodes {
		if _, err := imp.importNode(ni, NoObject); err != nil {
			return nil, err
		}
	}
	return imp.created, nil
}

type gltfImporter struct {
	scene   *Scene
	doc     *gltf.Document
	created []ObjectID

	meshCache map[uint32]meshImport
	matCache  map[uint32]MaterialID
	imgCache  map[uint32]ImageID
}

type meshImport struct {
	mesh      MeshID
	materials []MaterialID
}

func (imp *gltfImporter) importNode(idx uint32, parent ObjectID) (ObjectID, error) {
	if int(idx) >= len(imp.doc.Nodes) {
		return NoObject, fmt.Errorf("node index %d out of range", idx)
	}
	gn := imp.doc.Nodes[idx]

	typ := ObjectEmpty
	if gn.Mesh != nil {
		typ = ObjectMesh
	}
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("Node.%03d", idx)
	}

	obj := NewObject(name, typ)
	tr := gn.TranslationOrDefault()
	rot := gn.RotationOrDefault()
	sc := gn.ScaleOrDefault()
	obj.Location = mgl32.Vec3{tr[0], tr[1], tr[2]}
	obj.RotationEuler = eulerFromQuat(rot)
	obj.Scale = mgl32.Vec3{sc[0], sc[1], sc[2]}

	if gn.Mesh != nil {
		mi, err := imp.importMesh(*gn.Mesh)
		if err != nil {
			return NoObject, err
		}
		obj.Mesh = mi.mesh
		obj.Materials = append(obj.Materials, mi.materials...)
	}

	id := imp.scene.AddObject(obj)
	imp.created = append(imp.created, id)
	if parent != NoObject {
		imp.scene.SetParent(id, parent)
	}

	for _, ci := range gn.Children {
		if _, err := imp.importNode(ci, id); err != nil {
			return NoObject, err
		}
	}
	return id, nil
}

func (imp *gltfImporter) importMesh(idx uint32) (meshImport, error) {
	if imp.meshCache == nil {
		imp.meshCache = map[uint32]meshImport{}
	}
	if mi, ok := imp.meshCache[idx]; ok {
		return mi, nil
	}
	if int(idx) >= len(imp.doc.Meshes) {
		return meshImport{}, fmt.Errorf("mesh index %d out of range", idx)
	}
	gm := imp.doc.Meshes[idx]

	mesh := &Mesh{Name: gm.Name}
	var mats []MaterialID

	// Primitives are merged into one mesh; vertex indices are offset per
	// primitive.
	for _, prim := range gm.Primitives {
		base := len(mesh.Vertices)

		if ai, ok := prim.Attributes[gltf.POSITION]; ok {
			pos, err := modeler.ReadPosition(imp.doc, imp.doc.Accessors[ai], nil)
			if err != nil {
				return meshImport{}, fmt.Errorf("reading positions: %w", err)
			}
			mesh.Vertices = append(mesh.Vertices, pos...)
		}
		if ai, ok := prim.Attributes[gltf.NORMAL]; ok {
			nrm, err := modeler.ReadNormal(imp.doc, imp.doc.Accessors[ai], nil)
			if err == nil {
				mesh.Normals = append(mesh.Normals, nrm...)
			}
		}
		if ai, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uv, err := modeler.ReadTextureCoord(imp.doc, imp.doc.Accessors[ai], nil)
			if err == nil {
				mesh.UVs = append(mesh.UVs, uv...)
			}
		}

		if prim.Indices != nil {
			ind, err := modeler.ReadIndices(imp.doc, imp.doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return meshImport{}, fmt.Errorf("reading indices: %w", err)
			}
			for i := 0; i+2 < len(ind); i += 3 {
				mesh.Faces = append(mesh.Faces, []int{
					base + int(ind[i]),
					base + int(ind[i+1]),
					base + int(ind[i+2]),
				})
			}
		}

		if prim.Material != nil {
			mid, err := imp.importMaterial(*prim.Material)
			if err != nil {
				return meshImport{}, err
			}
			mats = append(mats, mid)
		}
	}
	mesh.RebuildEdges()

	mi := meshImport{mesh: imp.scene.AddMesh(mesh), materials: mats}
	imp.meshCache[idx] = mi
	return mi, nil
}

func (imp *gltfImporter) importMaterial(idx uint32) (MaterialID, error) {
	if imp.matCache == nil {
		imp.matCache = map[uint32]MaterialID{}
	}
	if mid, ok := imp.matCache[idx]; ok {
		return mid, nil
	}
	if int(idx) >= len(imp.doc.Materials) {
		return NoMaterial, fmt.Errorf("material index %d out of range", idx)
	}
	gm := imp.doc.Materials[idx]

	mat := NewMaterial(gm.Name)
	out := mat.NewNode(NodeOutputMaterial, "Material Output")
	out.ActiveOutput = true
	bsdf := mat.NewNode(NodeBSDFPrincipled, "Principled BSDF")
	mat.Connect(bsdf, "BSDF", out, "Surface")

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		bsdf.SetDefault("Base Color", pbr.BaseColorFactorOrDefault())
		if pbr.BaseColorTexture != nil {
			iid, err := imp.importTexture(pbr.BaseColorTexture.Index)
			if err == nil && iid != NoImage {
				tex := mat.NewNode(NodeTexImage, "Image Texture")
				tex.Image = iid
				mat.Connect(tex, "Color", bsdf, "Base Color")
			}
		}
	}

	mid := imp.scene.AddMaterial(mat)
	imp.matCache[idx] = mid
	return mid, nil
}

func (imp *gltfImporter) importTexture(idx uint32) (ImageID, error) {
	if int(idx) >= len(imp.doc.Textures) {
		return NoImage, fmt.Errorf("texture index %d out of range", idx)
	}
	tex := imp.doc.Textures[idx]
	if tex.Source == nil || int(*tex.Source) >= len(imp.doc.Images) {
		return NoImage, nil
	}
	srcIdx := *tex.Source

	if imp.imgCache == nil {
		imp.imgCache = map[uint32]ImageID{}
	}
	if iid, ok := imp.imgCache[srcIdx]; ok {
		return iid, nil
	}

	gi := imp.doc.Images[srcIdx]
	name := gi.Name
	if name == "" {
		name = fmt.Sprintf("Image.%03d", srcIdx)
	}
	img := NewImage(name, 0, 0)

	if gi.BufferView != nil && int(*gi.BufferView) < len(imp.doc.BufferViews) {
		data, err := modeler.ReadBufferView(imp.doc, imp.doc.BufferViews[*gi.BufferView])
		if err == nil {
			if decoded, _, derr := image.Decode(bytes.NewReader(data)); derr == nil {
				img.Pixels = toNRGBA(decoded)
				b := decoded.Bounds()
				img.W, img.H = b.Dx(), b.Dy()
			}
		}
	}

	iid := imp.scene.AddImage(img)
	imp.imgCache[srcIdx] = iid
	return iid, nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// eulerFromQuat converts a glTF [x,y,z,w] quaternion to XYZ Euler angles in
// radians.
func eulerFromQuat(q [4]float32) mgl32.Vec3 {
	x, y, z, w := float64(q[0]), float64(q[1]), float64(q[2]), float64(q[3])

	sinr := 2 * (w*x + y*z)
	cosr := 1 - 2*(x*x+y*y)
	ex := math.Atan2(sinr, cosr)

	sinp := 2 * (w*y - z*x)
	var ey float64
	if math.Abs(sinp) >= 1 {
		ey = math.Copysign(math.Pi/2, sinp)
	} else {
		ey = math.Asin(sinp)
	}

	siny := 2 * (w*z + x*y)
	cosy := 1 - 2*(y*y+z*z)
	ez := math.Atan2(siny, cosy)

	return mgl32.Vec3{float32(ex), float32(ey), float32(ez)}
}
