package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	s := cfg.Export

	if s.Preset != PresetCustom {
		t.Errorf("expected custom preset, got %s", s.Preset)
	}
	if !s.Formats.GLB || s.Formats.USDZ || s.Formats.FBX {
		t.Error("expected only GLB enabled by default")
	}
	if s.MaterialMode != MaterialLit {
		t.Errorf("expected lit material mode, got %s", s.MaterialMode)
	}
	if s.Draco.Enabled {
		t.Error("expected draco disabled by default")
	}
	if s.Draco.CompressionLevel != 6 {
		t.Errorf("expected compression level 6, got %d", s.Draco.CompressionLevel)
	}
	if s.Draco.PositionQuant != 11 || s.Draco.NormalQuant != 10 || s.Draco.TexcoordQuant != 10 {
		t.Errorf("unexpected quantization defaults: %d/%d/%d",
			s.Draco.PositionQuant, s.Draco.NormalQuant, s.Draco.TexcoordQuant)
	}
	if s.Resize.MaxSize != 2048 {
		t.Errorf("expected max size 2048, got %d", s.Resize.MaxSize)
	}
	if s.Cleanup.DoublesDistance != 0.0001 {
		t.Errorf("expected merge distance 0.0001, got %g", s.Cleanup.DoublesDistance)
	}
	if s.Axis.Up != "Y" || s.Axis.Forward != "-Z" {
		t.Errorf("expected RCP axes, got up=%s forward=%s", s.Axis.Up, s.Axis.Forward)
	}
	if !s.ShowReport {
		t.Error("expected show report enabled by default")
	}

	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
export:
  material_mode: unlit
  formats:
    glb: true
    usdz: true
  draco:
    enabled: true
    compression_level: 8
  resize:
    enabled: true
    max_size: 1024
  output_dir: /tmp/exports

tools:
  usdz_converter: /usr/local/bin/usdzconv

logging:
  level: debug
  log_file: export.log
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.MaterialMode != MaterialUnlit {
		t.Errorf("expected unlit, got %s", cfg.Export.MaterialMode)
	}
	if !cfg.Export.Formats.GLB || !cfg.Export.Formats.USDZ {
		t.Error("expected GLB and USDZ enabled")
	}
	if !cfg.Export.Draco.Enabled || cfg.Export.Draco.CompressionLevel != 8 {
		t.Error("draco settings not loaded")
	}
	// Values absent from the file keep their defaults.
	if cfg.Export.Draco.PositionQuant != 11 {
		t.Errorf("expected default position quant 11, got %d", cfg.Export.Draco.PositionQuant)
	}
	if cfg.Export.Resize.MaxSize != 1024 {
		t.Errorf("expected max size 1024, got %d", cfg.Export.Resize.MaxSize)
	}
	if cfg.Export.OutputDir != "/tmp/exports" {
		t.Errorf("expected output dir /tmp/exports, got %s", cfg.Export.OutputDir)
	}
	if cfg.Tools.USDZConverter != "/usr/local/bin/usdzconv" {
		t.Errorf("expected converter path, got %s", cfg.Tools.USDZConverter)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg := Default()
	cfg.Export.OutputDir = "/srv/out"
	cfg.Export.Formats.FBX = true

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Export.OutputDir != "/srv/out" {
		t.Errorf("expected /srv/out, got %s", loaded.Export.OutputDir)
	}
	if !loaded.Export.Formats.FBX {
		t.Error("expected FBX enabled after round trip")
	}
}

func TestValidate_Ranges(t *testing.T) {
	s := Default().Export

	s.Draco.CompressionLevel = 11
	if err := s.Validate(); err == nil {
		t.Error("expected error for compression level 11")
	}

	s = Default().Export
	s.Draco.PositionQuant = 0
	if err := s.Validate(); err == nil {
		t.Error("expected error for quantization 0")
	}

	s = Default().Export
	s.Texture.Quality = 101
	if err := s.Validate(); err == nil {
		t.Error("expected error for quality 101")
	}

	s = Default().Export
	s.Resize.Enabled = true
	s.Resize.MaxSize = 3000
	if err := s.Validate(); err == nil {
		t.Error("expected error for non-enumerated max size")
	}

	s = Default().Export
	s.Cleanup.DoublesDistance = 1.5
	if err := s.Validate(); err == nil {
		t.Error("expected error for merge distance out of range")
	}
}
