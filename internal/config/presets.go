package config

// Preset identifies a platform preset.
type Preset string

// Platform presets.
const (
	PresetCustom     Preset = "custom"
	PresetAppleAR    Preset = "apple_ar"
	PresetAndroidAR  Preset = "android_ar"
	PresetWebDesktop Preset = "web_desktop"
	PresetWebMobile  Preset = "web_mobile"
	PresetQuestVR    Preset = "quest_vr"
	PresetUnity      Preset = "unity"
	PresetUnreal     Preset = "unreal"
	PresetEcommerce  Preset = "ecommerce"
)

// AxisPreset identifies an axis orientation preset.
type AxisPreset string

// Axis presets.
const (
	AxisPresetRCP     AxisPreset = "rcp"     // Y up, -Z forward (glTF/USD standard)
	AxisPresetBlender AxisPreset = "blender" // Z up, Y forward
	AxisPresetCustom  AxisPreset = "custom"
)

// AxisSettings holds the export axis orientation.
type AxisSettings struct {
	Preset  AxisPreset `yaml:"preset"`
	Up      string     `yaml:"up"`      // Y or Z
	Forward string     `yaml:"forward"` // -Z, Z, -Y, Y, X, -X
}

// PresetInfo describes a preset for listings.
type PresetInfo struct {
	Label      string
	Format     string
	Textures   string
	MaxTris    string
	TargetSize string
}

// Presets lists all non-custom presets in menu order.
var Presets = []Preset{
	PresetAppleAR, PresetAndroidAR, PresetWebDesktop, PresetWebMobile,
	PresetQuestVR, PresetUnity, PresetUnreal, PresetEcommerce,
}

// Info returns descriptive details for a preset.
func (p Preset) Info() PresetInfo {
	switch p {
	case PresetAppleAR:
		return PresetInfo{"Apple AR (USDZ)", "USDZ", "2048px", "100K tris", "<8 MB"}
	case PresetAndroidAR:
		return PresetInfo{"Android AR", "GLB+Draco", "1024px", "50K tris", "<5 MB"}
	case PresetWebDesktop:
		return PresetInfo{"Web Desktop", "GLB+Draco+WebP", "2048px", "100K tris", "<5 MB"}
	case PresetWebMobile:
		return PresetInfo{"Web Mobile", "GLB+Draco+WebP", "1024px", "50K tris", "<2 MB"}
	case PresetQuestVR:
		return PresetInfo{"Quest VR", "GLB+Draco", "1024px", "100K tris", "-"}
	case PresetUnity:
		return PresetInfo{"Unity", "FBX", "2048px", "-", "-"}
	case PresetUnreal:
		return PresetInfo{"Unreal", "FBX", "2048px", "-", "-"}
	case PresetEcommerce:
		return PresetInfo{"E-commerce", "GLB+Draco", "2048px", "50K tris", "<5 MB"}
	default:
		return PresetInfo{Label: "Custom"}
	}
}

// Valid reports whether p names a known preset.
func (p Preset) Valid() bool {
	if p == PresetCustom {
		return true
	}
	for _, v := range Presets {
		if v == p {
			return true
		}
	}
	return false
}

// ApplyPreset overwrites the preset's fixed field subset on s, one-shot.
// Selecting the custom preset leaves every field untouched. Fields a preset
// does not name keep their current values.
func ApplyPreset(s *Settings, p Preset) {
	s.Preset = p
	switch p {
	case PresetAppleAR:
		s.Formats = FormatToggles{USDZ: true}
		s.Draco.Enabled = false
		s.Texture.Compression = TextureJPEG
		s.Resize.Enabled = true
		s.Resize.MaxSize = 2048
		s.USDZ.OptimizeViaGLB = true
		s.USDZ.TextureCompression = TextureJPEG
	case PresetAndroidAR:
		s.Formats = FormatToggles{GLB: true}
		s.Draco.Enabled = true
		s.Texture.Compression = TextureJPEG
		s.Resize.Enabled = true
		s.Resize.MaxSize = 1024
	case PresetWebDesktop:
		s.Formats = FormatToggles{GLB: true}
		s.Draco.Enabled = true
		s.Texture.Compression = TextureWebP
		s.Resize.Enabled = true
		s.Resize.MaxSize = 2048
	case PresetWebMobile:
		s.Formats = FormatToggles{GLB: true}
		s.Draco.Enabled = true
		s.Texture.Compression = TextureWebP
		s.Resize.Enabled = true
		s.Resize.MaxSize = 1024
	case PresetQuestVR:
		s.Formats = FormatToggles{GLB: true}
		s.Draco.Enabled = true
		s.Texture.Compression = TextureJPEG
		s.Resize.Enabled = true
		s.Resize.MaxSize = 1024
	case PresetUnity:
		s.Formats = FormatToggles{FBX: true}
		s.Draco.Enabled = false
		s.Texture.Compression = TextureNone
		s.Resize.Enabled = false
		s.Resize.MaxSize = 2048
		s.FBX.EmbedTextures = false
		s.FBX.ApplyTransform = true
		ApplyAxisPreset(&s.Axis, AxisPresetRCP)
	case PresetUnreal:
		s.Formats = FormatToggles{FBX: true}
		s.Draco.Enabled = false
		s.Texture.Compression = TextureNone
		s.Resize.Enabled = false
		s.Resize.MaxSize = 2048
		s.FBX.EmbedTextures = false
		s.FBX.ApplyTransform = true
		ApplyAxisPreset(&s.Axis, AxisPresetBlender)
	case PresetEcommerce:
		s.Formats = FormatToggles{GLB: true}
		s.Draco.Enabled = true
		s.Texture.Compression = TextureJPEG
		s.Resize.Enabled = true
		s.Resize.MaxSize = 2048
	}
}

// ApplyAxisPreset expands a named axis preset into concrete up/forward axes.
// The custom preset keeps the current axes.
func ApplyAxisPreset(a *AxisSettings, p AxisPreset) {
	a.Preset = p
	switch p {
	case AxisPresetRCP:
		a.Up = "Y"
		a.Forward = "-Z"
	case AxisPresetBlender:
		a.Up = "Z"
		a.Forward = "Y"
	}
}
