// Package exporter provides the format back-ends invoked by the export
// pipeline. Each back-end is opaque to the pipeline: it receives the scene,
// an explicit selection, an output path and mapped parameters, and reports
// success or failure through its error return.
package exporter

import (
	"github.com/Faultbox/nexus-export/internal/imaging"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Format identifies an output format.
type Format int

// Output formats.
const (
	FormatGLB Format = iota
	FormatUSDZ
	FormatFBX
)

// String returns the format's display name.
func (f Format) String() string {
	switch f {
	case FormatGLB:
		return "GLB"
	case FormatUSDZ:
		return "USDZ"
	case FormatFBX:
		return "FBX"
	default:
		return "Unknown"
	}
}

// Ext returns the output file extension including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatGLB:
		return ".glb"
	case FormatUSDZ:
		return ".usdz"
	case FormatFBX:
		return ".fbx"
	default:
		return ""
	}
}

// DracoParams holds mesh compression parameters. The built-in GLB writer
// emits uncompressed primitives; external converters receive these values on
// their command line.
type DracoParams struct {
	Enabled          bool
	CompressionLevel int
	PositionQuant    int
	NormalQuant      int
	TexcoordQuant    int
}

// TextureParams holds texture re-encoding parameters.
type TextureParams struct {
	Recompress bool
	Codec      imaging.Codec
	Quality    int
}

// FBXParams holds interchange-format parameters passed through to the
// converter.
type FBXParams struct {
	Scale          float64
	ApplyTransform bool
	SmoothType     string
	EmbedTextures  bool
	ApplyModifiers bool
}

// Params is the full parameter set handed to a back-end. Formats ignore the
// sections that do not apply to them.
type Params struct {
	YUp         bool
	ForwardAxis string
	Draco       DracoParams
	Texture     TextureParams
	FBX         FBXParams
}

// Exporter is a single-format export back-end.
type Exporter interface {
	Format() Format
	Export(sc *scene.Scene, selection []scene.ObjectID, path string, p Params) error
}

// Registry maps formats to their back-ends.
type Registry map[Format]Exporter

// For returns the back-end registered for a format.
func (r Registry) For(f Format) (Exporter, bool) {
	e, ok := r[f]
	return e, ok
}
