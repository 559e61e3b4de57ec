package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagOut    = flag.String("out", "", "Output directory for exported files")
	flagPreset = flag.String("preset", "", "Platform preset to apply")
	flagUnlit  = flag.Bool("unlit", false, "Export materials as unlit")
	flagGLB    = flag.Bool("glb", false, "Enable GLB output")
	flagUSDZ   = flag.Bool("usdz", false, "Enable USDZ output")
	flagFBX    = flag.Bool("fbx", false, "Enable FBX output")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags(args []string) error {
	return flag.CommandLine.Parse(args)
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config. A preset flag is a
// one-shot overwrite of the preset's field subset, applied before the other
// per-field overrides.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagPreset != "" && Preset(*flagPreset).Valid() {
		ApplyPreset(&cfg.Export, Preset(*flagPreset))
	}
	if *flagOut != "" {
		cfg.Export.OutputDir = *flagOut
	}
	if *flagUnlit {
		cfg.Export.MaterialMode = MaterialUnlit
	}
	if *flagGLB || *flagUSDZ || *flagFBX {
		cfg.Export.Formats = FormatToggles{GLB: *flagGLB, USDZ: *flagUSDZ, FBX: *flagFBX}
	}
}
