// Package scene provides an in-memory scene graph used by the export pipeline.
// Objects live in an arena addressed by stable IDs; parent/child relationships
// are ID links, never raw pointers, so traversal over a malformed graph
// terminates instead of looping.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ObjectID identifies an object in the scene arena.
type ObjectID int

// MeshID identifies a mesh data block.
type MeshID int

// MaterialID identifies a material data block.
type MaterialID int

// ImageID identifies an image data block.
type ImageID int

// NoObject, NoMesh, NoMaterial and NoImage mark absent references.
const (
	NoObject   ObjectID   = -1
	NoMesh     MeshID     = -1
	NoMaterial MaterialID = -1
	NoImage    ImageID    = -1
)

// ObjectType classifies a scene object.
type ObjectType int

// Object type constants.
const (
	ObjectMesh ObjectType = iota
	ObjectEmpty
	ObjectCamera
	ObjectLight
	ObjectCurve
	ObjectArmature
)

// String returns a human-readable object type name.
func (t ObjectType) String() string {
	switch t {
	case ObjectMesh:
		return "Mesh"
	case ObjectEmpty:
		return "Empty"
	case ObjectCamera:
		return "Camera"
	case ObjectLight:
		return "Light"
	case ObjectCurve:
		return "Curve"
	case ObjectArmature:
		return "Armature"
	default:
		return "Unknown"
	}
}

// Object is a node in the scene graph. Transform components are stored
// separately (location, Euler rotation in radians, scale) the way they are
// edited, not as a composed matrix.
type Object struct {
	Name     string
	Type     ObjectType
	Parent   ObjectID
	Children []ObjectID

	Location      mgl32.Vec3
	RotationEuler mgl32.Vec3
	Scale         mgl32.Vec3

	Mesh      MeshID
	Materials []MaterialID

	HideViewport  bool
	HideViewLayer bool
}

// NewObject returns an object with identity transform and no links.
func NewObject(name string, t ObjectType) *Object {
	return &Object{
		Name:   name,
		Type:   t,
		Parent: NoObject,
		Scale:  mgl32.Vec3{1, 1, 1},
		Mesh:   NoMesh,
	}
}

// Scene owns all object, mesh, material and image data blocks.
// Removed entries leave nil slots so IDs stay stable.
type Scene struct {
	objects   []*Object
	meshes    []*Mesh
	materials []*Material
	images    []*Image
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{}
}

// AddObject adds an object to the arena and returns its ID.
func (s *Scene) AddObject(o *Object) ObjectID {
	s.objects = append(s.objects, o)
	return ObjectID(len(s.objects) - 1)
}

// Object returns the object for an ID, or nil if the ID is dangling.
func (s *Scene) Object(id ObjectID) *Object {
	if id < 0 || int(id) >= len(s.objects) {
		return nil
	}
	return s.objects[id]
}

// ObjectCount returns the number of live objects.
func (s *Scene) ObjectCount() int {
	n := 0
	for _, o := range s.objects {
		if o != nil {
			n++
		}
	}
	return n
}

// ObjectIDs returns the IDs of all live objects in arena order.
func (s *Scene) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, 0, len(s.objects))
	for i, o := range s.objects {
		if o != nil {
			ids = append(ids, ObjectID(i))
		}
	}
	return ids
}

// Roots returns all live objects without a parent.
func (s *Scene) Roots() []ObjectID {
	var roots []ObjectID
	for i, o := range s.objects {
		if o != nil && o.Parent == NoObject {
			roots = append(roots, ObjectID(i))
		}
	}
	return roots
}

// FindObject returns the first live object with the given name.
func (s *Scene) FindObject(name string) ObjectID {
	for i, o := range s.objects {
		if o != nil && o.Name == name {
			return ObjectID(i)
		}
	}
	return NoObject
}

// SetParent links child under parent, updating both ends.
func (s *Scene) SetParent(child, parent ObjectID) {
	c := s.Object(child)
	if c == nil {
		return
	}
	if old := s.Object(c.Parent); old != nil {
		old.Children = removeID(old.Children, child)
	}
	c.Parent = parent
	if p := s.Object(parent); p != nil {
		p.Children = append(p.Children, child)
	}
}

// RemoveObject deletes an object from the arena. Its children are re-rooted;
// mesh/material/image data blocks are left for PurgeOrphans.
func (s *Scene) RemoveObject(id ObjectID) {
	o := s.Object(id)
	if o == nil {
		return
	}
	if p := s.Object(o.Parent); p != nil {
		p.Children = removeID(p.Children, id)
	}
	for _, cid := range o.Children {
		if c := s.Object(cid); c != nil {
			c.Parent = NoObject
		}
	}
	s.objects[id] = nil
}

// AddMesh adds a mesh data block and returns its ID.
func (s *Scene) AddMesh(m *Mesh) MeshID {
	s.meshes = append(s.meshes, m)
	return MeshID(len(s.meshes) - 1)
}

// Mesh returns the mesh for an ID, or nil.
func (s *Scene) Mesh(id MeshID) *Mesh {
	if id < 0 || int(id) >= len(s.meshes) {
		return nil
	}
	return s.meshes[id]
}

// SwapMesh replaces the data block behind a mesh ID and returns the previous
// one. Object references stay valid because the ID does not change.
func (s *Scene) SwapMesh(id MeshID, m *Mesh) *Mesh {
	if id < 0 || int(id) >= len(s.meshes) {
		return nil
	}
	old := s.meshes[id]
	s.meshes[id] = m
	return old
}

// AddMaterial adds a material data block and returns its ID.
func (s *Scene) AddMaterial(m *Material) MaterialID {
	s.materials = append(s.materials, m)
	return MaterialID(len(s.materials) - 1)
}

// Material returns the material for an ID, or nil.
func (s *Scene) Material(id MaterialID) *Material {
	if id < 0 || int(id) >= len(s.materials) {
		return nil
	}
	return s.materials[id]
}

// AddImage adds an image data block and returns its ID.
func (s *Scene) AddImage(img *Image) ImageID {
	s.images = append(s.images, img)
	return ImageID(len(s.images) - 1)
}

// Image returns the image for an ID, or nil.
func (s *Scene) Image(id ImageID) *Image {
	if id < 0 || int(id) >= len(s.images) {
		return nil
	}
	return s.images[id]
}

// Visible reports whether the object is neither viewport-hidden nor disabled
// in the view layer.
func (s *Scene) Visible(id ObjectID) bool {
	o := s.Object(id)
	if o == nil {
		return false
	}
	return !o.HideViewport && !o.HideViewLayer
}

// Descendants returns all descendants of root in depth-first order. With
// visibleOnly set, a hidden object prunes its entire subtree. A visited guard
// stops traversal of malformed graphs with cycles.
func (s *Scene) Descendants(root ObjectID, visibleOnly bool) []ObjectID {
	var out []ObjectID
	visited := map[ObjectID]bool{root: true}
	s.walkChildren(root, visibleOnly, visited, &out)
	return out
}

func (s *Scene) walkChildren(id ObjectID, visibleOnly bool, visited map[ObjectID]bool, out *[]ObjectID) {
	o := s.Object(id)
	if o == nil {
		return
	}
	for _, cid := range o.Children {
		if visited[cid] {
			continue
		}
		visited[cid] = true
		if s.Object(cid) == nil {
			continue
		}
		if visibleOnly && !s.Visible(cid) {
			continue
		}
		*out = append(*out, cid)
		s.walkChildren(cid, visibleOnly, visited, out)
	}
}

// IsAncestor reports whether ancestor appears on obj's parent chain.
func (s *Scene) IsAncestor(ancestor, obj ObjectID) bool {
	seen := map[ObjectID]bool{}
	for cur := obj; ; {
		o := s.Object(cur)
		if o == nil || o.Parent == NoObject {
			return false
		}
		if seen[o.Parent] {
			return false
		}
		seen[o.Parent] = true
		if o.Parent == ancestor {
			return true
		}
		cur = o.Parent
	}
}

// HasMeshDescendant reports whether the object has at least one visible mesh
// descendant.
func (s *Scene) HasMeshDescendant(id ObjectID) bool {
	for _, did := range s.Descendants(id, true) {
		if o := s.Object(did); o != nil && o.Type == ObjectMesh {
			return true
		}
	}
	return false
}

// PurgeOrphans removes mesh, material and image data blocks that are no
// longer referenced by any live object (or, for images, by any live
// material). It returns the number of blocks removed.
func (s *Scene) PurgeOrphans() int {
	usedMesh := map[MeshID]bool{}
	usedMat := map[MaterialID]bool{}
	for _, o := range s.objects {
		if o == nil {
			continue
		}
		if o.Mesh != NoMesh {
			usedMesh[o.Mesh] = true
		}
		for _, mid := range o.Materials {
			usedMat[mid] = true
		}
	}

	removed := 0
	for i, m := range s.meshes {
		if m != nil && !usedMesh[MeshID(i)] {
			s.meshes[i] = nil
			removed++
		}
	}
	for i, m := range s.materials {
		if m != nil && !usedMat[MaterialID(i)] {
			s.materials[i] = nil
			removed++
		}
	}

	usedImg := map[ImageID]bool{}
	for _, m := range s.materials {
		if m == nil {
			continue
		}
		for _, iid := range m.TexImages() {
			usedImg[iid] = true
		}
	}
	for i, img := range s.images {
		if img != nil && !usedImg[ImageID(i)] {
			s.images[i] = nil
			removed++
		}
	}
	return removed
}

func removeID(ids []ObjectID, id ObjectID) []ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
