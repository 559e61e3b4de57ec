package export

import (
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// tempEmissionName marks the node inserted by the unlit stage so a leftover
// from an interrupted run is recognizable.
const tempEmissionName = "Nexus Temp Emission"

// ApplyUnlit rewires each distinct material of the set so its base color
// feeds an emission shader, bypassing lighting. Only materials whose active
// output is fed by a principled shader are touched; anything else (no
// output, no surface link, custom graphs) is skipped silently. Restoration
// rewires the original surface connection and deletes the temporary node.
func (p *Pass) ApplyUnlit(set []scene.ObjectID) {
	for _, mid := range distinctMaterials(p.sc, set) {
		mat := p.sc.Material(mid)
		if !mat.UseNodes {
			continue
		}
		out := mat.ActiveOutput()
		if out == nil {
			continue
		}
		link := mat.InputLink(out, "Surface")
		if link == nil || link.FromNode.Type != scene.NodeBSDFPrincipled {
			continue
		}

		bsdf := link.FromNode
		origSocket := link.FromSocket
		temp := mat.NewNode(scene.NodeEmission, tempEmissionName)

		m := mat
		p.record("material", mat.Name, func() error {
			m.Connect(bsdf, origSocket, out, "Surface")
			m.RemoveNode(temp)
			return nil
		})

		if clink := mat.InputLink(bsdf, "Base Color"); clink != nil {
			mat.Connect(clink.FromNode, clink.FromSocket, temp, "Color")
		} else if v, ok := bsdf.Default("Base Color"); ok {
			temp.SetDefault("Color", v)
		}
		mat.Connect(temp, "Emission", out, "Surface")
	}
}
