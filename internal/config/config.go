// Package config handles export settings loading, presets and management.
package config

import "fmt"

// Config holds all tool settings.
type Config struct {
	Export  Settings      `yaml:"export"`
	Tools   ToolsConfig   `yaml:"tools"`
	Update  UpdateConfig  `yaml:"update"`
	Logging LoggingConfig `yaml:"logging"`
}

// ToolsConfig holds paths to the external format converters.
type ToolsConfig struct {
	USDZConverter string `yaml:"usdz_converter"` // GLB -> USDZ converter binary
	FBXConverter  string `yaml:"fbx_converter"`  // GLB -> FBX converter binary
}

// UpdateConfig holds release-check settings.
type UpdateConfig struct {
	AutoCheck bool   `yaml:"auto_check"`
	Owner     string `yaml:"owner"`
	Repo      string `yaml:"repo"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MaterialMode selects how materials are exported.
type MaterialMode string

// Material modes.
const (
	MaterialLit   MaterialMode = "lit"
	MaterialUnlit MaterialMode = "unlit"
)

// TextureCodec selects texture re-encoding for GLB output.
type TextureCodec string

// Texture codecs.
const (
	TextureNone TextureCodec = "none"
	TextureJPEG TextureCodec = "jpeg"
	TextureWebP TextureCodec = "webp"
)

// POTMethod selects how power-of-two dimensions are chosen.
type POTMethod string

// Power-of-two rounding methods.
const (
	POTNearest POTMethod = "nearest"
	POTUp      POTMethod = "up"
	POTDown    POTMethod = "down"
)

// SmoothType selects FBX mesh smoothing export.
type SmoothType string

// FBX smoothing modes.
const (
	SmoothOff  SmoothType = "off"
	SmoothFace SmoothType = "face"
	SmoothEdge SmoothType = "edge"
)

// Settings is the full export configuration record.
type Settings struct {
	Preset       Preset       `yaml:"platform_preset"`
	MaterialMode MaterialMode `yaml:"material_mode"`

	Formats FormatToggles   `yaml:"formats"`
	Draco   DracoSettings   `yaml:"draco"`
	Texture TextureSettings `yaml:"texture"`
	USDZ    USDZSettings    `yaml:"usdz"`
	FBX     FBXSettings     `yaml:"fbx"`
	Resize  ResizeSettings  `yaml:"resize"`
	POT     POTSettings     `yaml:"pot"`
	Axis    AxisSettings    `yaml:"axis"`
	Cleanup CleanupSettings `yaml:"cleanup"`

	ApplyTransforms bool   `yaml:"apply_transforms"`
	OutputDir       string `yaml:"output_dir"`
	ShowReport      bool   `yaml:"show_report"`
}

// FormatToggles enables/disables each output format.
type FormatToggles struct {
	GLB  bool `yaml:"glb"`
	USDZ bool `yaml:"usdz"`
	FBX  bool `yaml:"fbx"`
}

// Any reports whether at least one format is enabled.
func (f FormatToggles) Any() bool {
	return f.GLB || f.USDZ || f.FBX
}

// DracoSettings holds Draco mesh compression parameters for GLB export.
type DracoSettings struct {
	Enabled          bool `yaml:"enabled"`
	CompressionLevel int  `yaml:"compression_level"` // 0-10
	PositionQuant    int  `yaml:"position_quant"`    // 1-30 bits
	NormalQuant      int  `yaml:"normal_quant"`      // 1-30 bits
	TexcoordQuant    int  `yaml:"texcoord_quant"`    // 1-30 bits
}

// TextureSettings holds GLB texture re-encoding parameters.
type TextureSettings struct {
	Compression TextureCodec `yaml:"compression"`
	Quality     int          `yaml:"quality"` // 1-100
}

// USDZSettings holds the mobile-AR bundle parameters, including the nested
// sub-settings for the GLB roundtrip optimization.
type USDZSettings struct {
	OptimizeViaGLB     bool         `yaml:"optimize_via_glb"`
	UseDraco           bool         `yaml:"use_draco"`
	TextureCompression TextureCodec `yaml:"texture_compression"`
	TextureQuality     int          `yaml:"texture_quality"`
}

// FBXSettings holds interchange format parameters.
type FBXSettings struct {
	Scale          float64    `yaml:"scale"` // 0.001-1000
	ApplyTransform bool       `yaml:"apply_transform"`
	SmoothType     SmoothType `yaml:"smooth_type"`
	EmbedTextures  bool       `yaml:"embed_textures"`
	ApplyModifiers bool       `yaml:"apply_modifiers"`
}

// ResizeSettings holds the global texture max-size policy.
type ResizeSettings struct {
	Enabled bool `yaml:"enabled"`
	MaxSize int  `yaml:"max_size"`
}

// POTSettings holds the power-of-two texture policy.
type POTSettings struct {
	Enabled bool      `yaml:"enabled"`
	Method  POTMethod `yaml:"method"`
}

// CleanupSettings holds mesh cleanup stage parameters.
type CleanupSettings struct {
	Enabled         bool    `yaml:"enabled"`
	RemoveDoubles   bool    `yaml:"remove_doubles"`
	DoublesDistance float64 `yaml:"doubles_distance"` // 0.0-1.0
	FixNormals      bool    `yaml:"fix_normals"`
	DeleteLoose     bool    `yaml:"delete_loose"`
	Triangulate     bool    `yaml:"triangulate"`
}

// MaxTextureSizes is the fixed set of allowed global resize caps.
var MaxTextureSizes = []int{8192, 6144, 4096, 2048, 1024, 512}

// ValidMaxTextureSize reports whether n is an allowed resize cap.
func ValidMaxTextureSize(n int) bool {
	for _, v := range MaxTextureSizes {
		if v == n {
			return true
		}
	}
	return false
}

// Default returns a Config with sensible default values. Export defaults
// match the custom preset.
func Default() *Config {
	return &Config{
		Export: Settings{
			Preset:       PresetCustom,
			MaterialMode: MaterialLit,
			Formats:      FormatToggles{GLB: true},
			Draco: DracoSettings{
				Enabled:          false,
				CompressionLevel: 6,
				PositionQuant:    11,
				NormalQuant:      10,
				TexcoordQuant:    10,
			},
			Texture: TextureSettings{Compression: TextureNone, Quality: 75},
			USDZ: USDZSettings{
				OptimizeViaGLB:     true,
				UseDraco:           true,
				TextureCompression: TextureJPEG,
				TextureQuality:     75,
			},
			FBX: FBXSettings{
				Scale:          1.0,
				ApplyTransform: true,
				SmoothType:     SmoothOff,
				ApplyModifiers: true,
			},
			Resize: ResizeSettings{Enabled: false, MaxSize: 2048},
			POT:    POTSettings{Enabled: false, Method: POTNearest},
			Axis: AxisSettings{
				Preset:  AxisPresetRCP,
				Up:      "Y",
				Forward: "-Z",
			},
			Cleanup: CleanupSettings{
				Enabled:         false,
				RemoveDoubles:   true,
				DoublesDistance: 0.0001,
				FixNormals:      true,
				DeleteLoose:     false,
				Triangulate:     false,
			},
			ApplyTransforms: false,
			ShowReport:      true,
		},
		Update: UpdateConfig{
			AutoCheck: true,
			Owner:     "Faultbox",
			Repo:      "nexus-export",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks parameter ranges. It returns the first violation found.
func (s *Settings) Validate() error {
	if s.Draco.CompressionLevel < 0 || s.Draco.CompressionLevel > 10 {
		return fmt.Errorf("draco compression level %d out of range 0-10", s.Draco.CompressionLevel)
	}
	for _, q := range []int{s.Draco.PositionQuant, s.Draco.NormalQuant, s.Draco.TexcoordQuant} {
		if q < 1 || q > 30 {
			return fmt.Errorf("draco quantization %d out of range 1-30", q)
		}
	}
	if s.Texture.Quality < 1 || s.Texture.Quality > 100 {
		return fmt.Errorf("texture quality %d out of range 1-100", s.Texture.Quality)
	}
	if s.USDZ.TextureQuality < 1 || s.USDZ.TextureQuality > 100 {
		return fmt.Errorf("usdz texture quality %d out of range 1-100", s.USDZ.TextureQuality)
	}
	if s.FBX.Scale < 0.001 || s.FBX.Scale > 1000 {
		return fmt.Errorf("fbx scale %g out of range 0.001-1000", s.FBX.Scale)
	}
	if s.Resize.Enabled && !ValidMaxTextureSize(s.Resize.MaxSize) {
		return fmt.Errorf("max texture size %d not in allowed set %v", s.Resize.MaxSize, MaxTextureSizes)
	}
	if s.Cleanup.DoublesDistance < 0 || s.Cleanup.DoublesDistance > 1 {
		return fmt.Errorf("merge distance %g out of range 0-1", s.Cleanup.DoublesDistance)
	}
	return nil
}
