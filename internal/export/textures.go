package export

import (
	"math"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// ResizeTextures applies the two texture resize layers to every distinct
// image of the set: first the global max-size cap, then the power-of-two
// snap over the already-capped dimensions. Each applied resize registers
// its own restore entry, so reverse-order restoration undoes the POT layer
// before the global layer and every image ends at its true original size.
func (p *Pass) ResizeTextures(set []scene.ObjectID, rs config.ResizeSettings, pot config.POTSettings) {
	imgs := distinctImages(p.sc, set)

	if rs.Enabled && rs.MaxSize > 0 {
		for _, iid := range imgs {
			img := p.sc.Image(iid)
			w, h := img.Size()
			if w <= rs.MaxSize && h <= rs.MaxSize {
				continue
			}
			f := math.Min(float64(rs.MaxSize)/float64(w), float64(rs.MaxSize)/float64(h))
			nw := int(math.Round(float64(w) * f))
			nh := int(math.Round(float64(h) * f))
			p.recordImageSize(iid, w, h)
			img.Scale(nw, nh)
		}
	}

	if pot.Enabled {
		for _, iid := range imgs {
			img := p.sc.Image(iid)
			w, h := img.Size()
			// Degenerate images cannot be scaled back, so leave them alone.
			if w <= 0 || h <= 0 {
				continue
			}
			nw := potDim(w, pot.Method)
			nh := potDim(h, pot.Method)
			if nw == w && nh == h {
				continue
			}
			p.recordImageSize(iid, w, h)
			img.Scale(nw, nh)
		}
	}
}

func (p *Pass) recordImageSize(iid scene.ImageID, w, h int) {
	sc := p.sc
	img := sc.Image(iid)
	p.record("texture", img.Name, func() error {
		cur := sc.Image(iid)
		if cur == nil {
			return errImageGone
		}
		cur.Scale(w, h)
		return nil
	})
}

// potDim snaps a dimension to a power of two per the configured method.
// Degenerate dimensions map to 1; "nearest" breaks ties toward the upper
// power.
func potDim(n int, method config.POTMethod) int {
	if n <= 0 {
		return 1
	}
	lower := 1
	for lower*2 <= n {
		lower *= 2
	}
	if lower == n {
		return n
	}
	upper := lower * 2

	switch method {
	case config.POTUp:
		return upper
	case config.POTDown:
		return lower
	default:
		if n-lower < upper-n {
			return lower
		}
		return upper
	}
}
