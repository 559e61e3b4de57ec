package exporter

import (
	"bytes"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/imaging"
	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

const unlitExtension = "KHR_materials_unlit"

// GLB is the built-in binary glTF writer.
type GLB struct{}

// NewGLB returns the built-in GLB back-end.
func NewGLB() *GLB {
	return &GLB{}
}

// Format returns FormatGLB.
func (*GLB) Format() Format {
	return FormatGLB
}

// Export writes the selection to a binary glTF file. Only the selected
// objects are written; hierarchy links among them are preserved.
func (g *GLB) Export(sc *scene.Scene, selection []scene.ObjectID, path string, p Params) error {
	if len(selection) == 0 {
		return fmt.Errorf("empty selection for %s", path)
	}
	if p.Draco.Enabled {
		logger.Debug("draco compression requested; built-in GLB writer emits uncompressed primitives",
			zap.Int("level", p.Draco.CompressionLevel))
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "nexus-export"

	b := &glbBuilder{sc: sc, doc: doc, params: p}

	selected := map[scene.ObjectID]bool{}
	for _, id := range selection {
		selected[id] = true
	}

	nodeIdx := map[scene.ObjectID]uint32{}
	for _, id := range selection {
		obj := sc.Object(id)
		if obj == nil {
			continue
		}
		ni, err := b.addNode(obj)
		if err != nil {
			return fmt.Errorf("building node %s: %w", obj.Name, err)
		}
		nodeIdx[id] = ni
	}

	var roots []uint32
	for _, id := range selection {
		obj := sc.Object(id)
		if obj == nil {
			continue
		}
		ni := nodeIdx[id]
		if pi, ok := nodeIdx[obj.Parent]; ok && selected[obj.Parent] {
			parent := doc.Nodes[pi]
			parent.Children = append(parent.Children, ni)
		} else {
			roots = append(roots, ni)
		}
	}

	if !p.YUp {
		// Wrap under a +90 deg X rotation so a Z-up consumer sees the
		// expected orientation.
		s := float32(0.7071067811865476)
		wrap := &gltf.Node{
			Name:     "ZUpRoot",
			Rotation: [4]float32{s, 0, 0, s},
			Scale:    [3]float32{1, 1, 1},
			Children: roots,
		}
		doc.Nodes = append(doc.Nodes, wrap)
		roots = []uint32{uint32(len(doc.Nodes) - 1)}
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, roots...)

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

type glbBuilder struct {
	sc     *scene.Scene
	doc    *gltf.Document
	params Params

	meshCache map[meshKey]*uint32
	matCache  map[scene.MaterialID]uint32
	imgCache  map[scene.ImageID]*uint32
}

type meshKey struct {
	mesh scene.MeshID
	mat  scene.MaterialID
}

func (b *glbBuilder) addNode(obj *scene.Object) (uint32, error) {
	q := mgl32.AnglesToQuat(obj.RotationEuler.X(), obj.RotationEuler.Y(), obj.RotationEuler.Z(), mgl32.XYZ)
	node := &gltf.Node{
		Name:        obj.Name,
		Translation: [3]float32{obj.Location.X(), obj.Location.Y(), obj.Location.Z()},
		Rotation:    [4]float32{q.V[0], q.V[1], q.V[2], q.W},
		Scale:       [3]float32{obj.Scale.X(), obj.Scale.Y(), obj.Scale.Z()},
	}

	if obj.Type == scene.ObjectMesh && obj.Mesh != scene.NoMesh {
		mat := scene.NoMaterial
		if len(obj.Materials) > 0 {
			mat = obj.Materials[0]
		}
		mi, err := b.addMesh(obj.Mesh, mat)
		if err != nil {
			return 0, err
		}
		node.Mesh = mi
	}

	b.doc.Nodes = append(b.doc.Nodes, node)
	return uint32(len(b.doc.Nodes) - 1), nil
}

func (b *glbBuilder) addMesh(id scene.MeshID, mat scene.MaterialID) (*uint32, error) {
	if b.meshCache == nil {
		b.meshCache = map[meshKey]*uint32{}
	}
	key := meshKey{mesh: id, mat: mat}
	if mi, ok := b.meshCache[key]; ok {
		return mi, nil
	}

	mesh := b.sc.Mesh(id)
	if mesh == nil || len(mesh.Vertices) == 0 {
		b.meshCache[key] = nil
		return nil, nil
	}

	prim := &gltf.Primitive{Attributes: gltf.Attribute{}}
	prim.Attributes[gltf.POSITION] = modeler.WritePosition(b.doc, mesh.Vertices)
	if len(mesh.Normals) == len(mesh.Vertices) {
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(b.doc, mesh.Normals)
	}
	if len(mesh.UVs) == len(mesh.Vertices) {
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(b.doc, mesh.UVs)
	}

	var indices []uint32
	for _, f := range mesh.Faces {
		for i := 1; i+1 < len(f); i++ {
			indices = append(indices, uint32(f[0]), uint32(f[i]), uint32(f[i+1]))
		}
	}
	if len(indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(b.doc, indices))
	}

	if mat != scene.NoMaterial {
		mi, err := b.addMaterial(mat)
		if err != nil {
			return nil, err
		}
		prim.Material = gltf.Index(mi)
	}

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Name:       mesh.Name,
		Primitives: []*gltf.Primitive{prim},
	})
	idx := uint32(len(b.doc.Meshes) - 1)
	b.meshCache[key] = &idx
	return &idx, nil
}

func (b *glbBuilder) addMaterial(id scene.MaterialID) (uint32, error) {
	if b.matCache == nil {
		b.matCache = map[scene.MaterialID]uint32{}
	}
	if mi, ok := b.matCache[id]; ok {
		return mi, nil
	}

	mat := b.sc.Material(id)
	gm := &gltf.Material{Name: "Material"}
	if mat != nil {
		gm.Name = mat.Name
	}
	pbr := &gltf.PBRMetallicRoughness{}
	gm.PBRMetallicRoughness = pbr

	if mat != nil && mat.UseNodes {
		if out := mat.ActiveOutput(); out != nil {
			if link := mat.InputLink(out, "Surface"); link != nil {
				switch link.FromNode.Type {
				case scene.NodeEmission:
					// Unlit export: base color comes from the emission
					// input, lighting is disabled via extension.
					b.applyColorSource(mat, link.FromNode, "Color", pbr)
					if gm.Extensions == nil {
						gm.Extensions = gltf.Extensions{}
					}
					gm.Extensions[unlitExtension] = struct{}{}
					b.ensureExtensionUsed(unlitExtension)
				case scene.NodeBSDFPrincipled:
					b.applyColorSource(mat, link.FromNode, "Base Color", pbr)
				}
			}
		}
	}

	b.doc.Materials = append(b.doc.Materials, gm)
	idx := uint32(len(b.doc.Materials) - 1)
	b.matCache[id] = idx
	return idx, nil
}

// applyColorSource maps a shader node's color input (constant or upstream
// image texture) onto the PBR base color.
func (b *glbBuilder) applyColorSource(mat *scene.Material, node *scene.Node, socket string, pbr *gltf.PBRMetallicRoughness) {
	if link := mat.InputLink(node, socket); link != nil && link.FromNode.Type == scene.NodeTexImage {
		if ti := b.addTexture(link.FromNode.Image); ti != nil {
			pbr.BaseColorTexture = &gltf.TextureInfo{Index: *ti}
		}
		return
	}
	if v, ok := node.Default(socket); ok {
		vv := v
		pbr.BaseColorFactor = &vv
	}
}

func (b *glbBuilder) addTexture(id scene.ImageID) *uint32 {
	if id == scene.NoImage {
		return nil
	}
	if b.imgCache == nil {
		b.imgCache = map[scene.ImageID]*uint32{}
	}
	if ti, ok := b.imgCache[id]; ok {
		return ti
	}

	img := b.sc.Image(id)
	if img == nil || img.Pixels == nil {
		b.imgCache[id] = nil
		return nil
	}

	codec := imaging.CodecPNG
	quality := 100
	if b.params.Texture.Recompress {
		codec = b.params.Texture.Codec
		quality = b.params.Texture.Quality
	}
	data, mime, fallback, err := imaging.Encode(img.Pixels, codec, quality)
	if err != nil {
		logger.Warn("texture encode failed, skipping image",
			zap.String("image", img.Name), zap.Error(err))
		b.imgCache[id] = nil
		return nil
	}
	if fallback {
		logger.Debug("texture codec unavailable, stored as png", zap.String("image", img.Name))
	}

	imgIdx, err := modeler.WriteImage(b.doc, img.Name, mime, bytes.NewReader(data))
	if err != nil {
		logger.Warn("embedding texture failed, skipping image",
			zap.String("image", img.Name), zap.Error(err))
		b.imgCache[id] = nil
		return nil
	}

	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
	texIdx := uint32(len(b.doc.Textures) - 1)
	b.imgCache[id] = &texIdx
	return &texIdx
}

func (b *glbBuilder) ensureExtensionUsed(name string) {
	for _, v := range b.doc.ExtensionsUsed {
		if v == name {
			return
		}
	}
	b.doc.ExtensionsUsed = append(b.doc.ExtensionsUsed, name)
}
