package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/internal/exporter"
	"github.com/Faultbox/nexus-export/internal/imaging"
	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// enabledFormats lists the formats switched on in the settings, in fixed
// GLB, USDZ, FBX order.
func enabledFormats(t config.FormatToggles) []exporter.Format {
	var out []exporter.Format
	if t.GLB {
		out = append(out, exporter.FormatGLB)
	}
	if t.USDZ {
		out = append(out, exporter.FormatUSDZ)
	}
	if t.FBX {
		out = append(out, exporter.FormatFBX)
	}
	return out
}

// baseParams maps the settings shared by every format.
func baseParams(s *config.Settings) exporter.Params {
	return exporter.Params{
		YUp:         s.Axis.Up == "Y",
		ForwardAxis: s.Axis.Forward,
	}
}

// glbParams maps the binary-format settings: Draco compression and texture
// re-encoding are independent options.
func glbParams(s *config.Settings) exporter.Params {
	p := baseParams(s)
	p.Draco = exporter.DracoParams{
		Enabled:          s.Draco.Enabled,
		CompressionLevel: s.Draco.CompressionLevel,
		PositionQuant:    s.Draco.PositionQuant,
		NormalQuant:      s.Draco.NormalQuant,
		TexcoordQuant:    s.Draco.TexcoordQuant,
	}
	if s.Texture.Compression != config.TextureNone {
		p.Texture = exporter.TextureParams{
			Recompress: true,
			Codec:      imaging.Codec(s.Texture.Compression),
			Quality:    s.Texture.Quality,
		}
	}
	return p
}

// usdzGLBParams maps the roundtrip sub-settings: the intermediate GLB is
// compressed with the USDZ section's own Draco/texture values, independent
// of the primary GLB settings.
func usdzGLBParams(s *config.Settings) exporter.Params {
	p := baseParams(s)
	if s.USDZ.UseDraco {
		p.Draco = exporter.DracoParams{
			Enabled:          true,
			CompressionLevel: s.Draco.CompressionLevel,
			PositionQuant:    s.Draco.PositionQuant,
			NormalQuant:      s.Draco.NormalQuant,
			TexcoordQuant:    s.Draco.TexcoordQuant,
		}
	}
	if s.USDZ.TextureCompression != config.TextureNone {
		p.Texture = exporter.TextureParams{
			Recompress: true,
			Codec:      imaging.Codec(s.USDZ.TextureCompression),
			Quality:    s.USDZ.TextureQuality,
		}
	}
	return p
}

// fbxParams maps the interchange-format settings.
func fbxParams(s *config.Settings) exporter.Params {
	p := baseParams(s)
	p.FBX = exporter.FBXParams{
		Scale:          s.FBX.Scale,
		ApplyTransform: s.FBX.ApplyTransform,
		SmoothType:     string(s.FBX.SmoothType),
		EmbedTextures:  s.FBX.EmbedTextures,
		ApplyModifiers: s.FBX.ApplyModifiers,
	}
	return p
}

func paramsFor(f exporter.Format, s *config.Settings) exporter.Params {
	switch f {
	case exporter.FormatUSDZ:
		return baseParams(s)
	case exporter.FormatFBX:
		return fbxParams(s)
	default:
		return glbParams(s)
	}
}

// formatAttempt records one format fan-out target. Whether the attempt
// produced output is decided later by looking at the path on disk, not by
// the exporter's error return.
type formatAttempt struct {
	format exporter.Format
	path   string
}

// dispatchResult is the per-object outcome of the format fan-out.
type dispatchResult struct {
	attempts []formatAttempt
	errs     []error
}

// dispatch runs every enabled format against the explicit selection. Each
// format is isolated: a failure is logged, recorded and the remaining
// formats still run.
func (r *Runner) dispatch(sc *scene.Scene, name string, selection []scene.ObjectID) dispatchResult {
	var res dispatchResult
	s := &r.cfg.Export

	for _, f := range enabledFormats(s.Formats) {
		path := filepath.Join(s.OutputDir, safeName(name)+f.Ext())
		res.attempts = append(res.attempts, formatAttempt{format: f, path: path})

		exp, ok := r.exporters.For(f)
		if !ok {
			res.errs = append(res.errs, fmt.Errorf("no back-end for %s", f))
			continue
		}

		var err error
		if f == exporter.FormatUSDZ && s.USDZ.OptimizeViaGLB {
			err = r.usdzRoundtrip(sc, exp, name, selection, path)
		} else {
			err = exp.Export(sc, selection, path, paramsFor(f, s))
		}
		if err != nil {
			logger.Warn("format export failed",
				zap.String("object", name),
				zap.String("format", f.String()),
				zap.Error(err))
			res.errs = append(res.errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return res
}

// usdzRoundtrip pre-compresses the selection through a temporary GLB: the
// intermediate is written with the USDZ sub-settings, imported back into
// the scene, and the bundle export runs over the imported temporaries. The
// temporaries and any data blocks they leave behind are removed afterward,
// and the intermediate file is removed even when a step fails.
func (r *Runner) usdzRoundtrip(sc *scene.Scene, exp exporter.Exporter, name string, selection []scene.ObjectID, path string) error {
	tmp := filepath.Join(os.TempDir(), "_nexus_temp_"+safeName(name)+".glb")
	defer os.Remove(tmp)

	glb, ok := r.exporters.For(exporter.FormatGLB)
	if !ok {
		glb = exporter.NewGLB()
	}
	if err := glb.Export(sc, selection, tmp, usdzGLBParams(&r.cfg.Export)); err != nil {
		return fmt.Errorf("roundtrip intermediate: %w", err)
	}

	imported, err := sc.ImportGLB(tmp)
	if err != nil {
		return fmt.Errorf("roundtrip import: %w", err)
	}
	defer func() {
		for _, id := range imported {
			sc.RemoveObject(id)
		}
		if n := sc.PurgeOrphans(); n > 0 {
			logger.Debug("purged roundtrip data blocks", zap.Int("count", n))
		}
	}()

	if err := exp.Export(sc, imported, path, baseParams(&r.cfg.Export)); err != nil {
		return fmt.Errorf("roundtrip export: %w", err)
	}
	return nil
}

// safeName makes an object name usable as a file name.
func safeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
