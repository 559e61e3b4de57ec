package scene

// NodeType classifies a shading node.
type NodeType int

// Shading node type constants.
const (
	NodeOutputMaterial NodeType = iota
	NodeBSDFPrincipled
	NodeEmission
	NodeTexImage
	NodeGroup
)

// Node is a shading node inside a material graph. Defaults holds unconnected
// input values keyed by socket name (colors use all four components, scalars
// use the first).
type Node struct {
	Name         string
	Type         NodeType
	ActiveOutput bool
	Image        ImageID
	Defaults     map[string][4]float32
}

// SetDefault stores an unconnected input value on the node.
func (n *Node) SetDefault(socket string, v [4]float32) {
	if n.Defaults == nil {
		n.Defaults = map[string][4]float32{}
	}
	n.Defaults[socket] = v
}

// Default returns the stored input value for a socket.
func (n *Node) Default(socket string) ([4]float32, bool) {
	v, ok := n.Defaults[socket]
	return v, ok
}

// Link is a connection from an output socket of one node to an input socket
// of another. An input socket holds at most one incoming link.
type Link struct {
	FromNode   *Node
	FromSocket string
	ToNode     *Node
	ToSocket   string
}

// Material is a shading graph: a set of nodes plus directed links.
type Material struct {
	Name     string
	UseNodes bool
	Nodes    []*Node
	Links    []*Link
}

// NewMaterial returns a node-based material with no nodes.
func NewMaterial(name string) *Material {
	return &Material{Name: name, UseNodes: true}
}

// NewNode creates a node of the given type and adds it to the graph.
func (m *Material) NewNode(t NodeType, name string) *Node {
	n := &Node{Name: name, Type: t, Image: NoImage}
	m.Nodes = append(m.Nodes, n)
	return n
}

// RemoveNode deletes a node and every link touching it.
func (m *Material) RemoveNode(n *Node) {
	nodes := m.Nodes[:0]
	for _, v := range m.Nodes {
		if v != n {
			nodes = append(nodes, v)
		}
	}
	m.Nodes = nodes

	links := m.Links[:0]
	for _, l := range m.Links {
		if l.FromNode != n && l.ToNode != n {
			links = append(links, l)
		}
	}
	m.Links = links
}

// Connect links an output socket to an input socket, replacing any existing
// link into that input.
func (m *Material) Connect(from *Node, fromSocket string, to *Node, toSocket string) *Link {
	links := m.Links[:0]
	for _, l := range m.Links {
		if l.ToNode == to && l.ToSocket == toSocket {
			continue
		}
		links = append(links, l)
	}
	m.Links = links

	l := &Link{FromNode: from, FromSocket: fromSocket, ToNode: to, ToSocket: toSocket}
	m.Links = append(m.Links, l)
	return l
}

// InputLink returns the link feeding a node's input socket, or nil.
func (m *Material) InputLink(n *Node, socket string) *Link {
	for _, l := range m.Links {
		if l.ToNode == n && l.ToSocket == socket {
			return l
		}
	}
	return nil
}

// ActiveOutput returns the active material-output node, or nil.
func (m *Material) ActiveOutput() *Node {
	for _, n := range m.Nodes {
		if n.Type == NodeOutputMaterial && n.ActiveOutput {
			return n
		}
	}
	return nil
}

// FindNode returns the first node with the given name, or nil.
func (m *Material) FindNode(name string) *Node {
	for _, n := range m.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// TexImages returns the IDs of all images referenced by texture nodes.
func (m *Material) TexImages() []ImageID {
	var out []ImageID
	for _, n := range m.Nodes {
		if n.Type == NodeTexImage && n.Image != NoImage {
			out = append(out, n.Image)
		}
	}
	return out
}
