package exporter

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// ErrNoTool is returned when a converter back-end has no tool configured.
var ErrNoTool = errors.New("exporter: converter tool not configured")

// Command runs an external converter binary over a GLB intermediate.
// The tool is invoked as: tool <input.glb> <output> [args...].
type Command struct {
	format Format
	tool   string
	glb    *GLB
}

// NewUSDZ returns a USDZ back-end driven by the given converter tool.
func NewUSDZ(tool string) *Command {
	return &Command{format: FormatUSDZ, tool: tool, glb: NewGLB()}
}

// NewFBX returns an FBX back-end driven by the given converter tool.
func NewFBX(tool string) *Command {
	return &Command{format: FormatFBX, tool: tool, glb: NewGLB()}
}

// Format returns the converter's target format.
func (c *Command) Format() Format {
	return c.format
}

// Export writes the selection to a temporary GLB and hands it to the
// converter tool for the final format.
func (c *Command) Export(sc *scene.Scene, selection []scene.ObjectID, path string, p Params) error {
	if c.tool == "" {
		return fmt.Errorf("%w for %s", ErrNoTool, c.format)
	}

	tmp, err := os.CreateTemp("", "nexus-export-*.glb")
	if err != nil {
		return fmt.Errorf("creating intermediate: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.glb.Export(sc, selection, tmpPath, p); err != nil {
		return fmt.Errorf("intermediate glb: %w", err)
	}

	args := append([]string{tmpPath, path}, c.toolArgs(p)...)

	logger.Debug("running converter",
		zap.String("tool", c.tool),
		zap.String("format", c.format.String()),
		zap.Strings("args", args))

	// Converter runtime scales with the asset; the tool runs without a
	// deadline.
	cmd := exec.Command(c.tool, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("converter %s: %w: %s", filepath.Base(c.tool), err, out)
		}
		return fmt.Errorf("converter %s: %w", filepath.Base(c.tool), err)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("converter %s produced no output: %w", filepath.Base(c.tool), err)
	}
	return nil
}

// toolArgs builds format-specific converter flags from the export params.
func (c *Command) toolArgs(p Params) []string {
	var args []string
	switch c.format {
	case FormatUSDZ:
		if p.Draco.Enabled {
			args = append(args, "--draco-level", strconv.Itoa(p.Draco.CompressionLevel))
		}
		if p.Texture.Recompress {
			args = append(args,
				"--texture-codec", string(p.Texture.Codec),
				"--texture-quality", strconv.Itoa(p.Texture.Quality))
		}
	case FormatFBX:
		args = append(args, "--scale", strconv.FormatFloat(p.FBX.Scale, 'f', -1, 64))
		if p.FBX.ApplyTransform {
			args = append(args, "--bake-transform")
		}
		if p.FBX.SmoothType != "" {
			args = append(args, "--smoothing", p.FBX.SmoothType)
		}
		if p.FBX.EmbedTextures {
			args = append(args, "--embed-textures")
		}
		if p.FBX.ApplyModifiers {
			args = append(args, "--apply-modifiers")
		}
	}
	if !p.YUp {
		args = append(args, "--axis-up", "Z")
	}
	if p.ForwardAxis != "" {
		args = append(args, "--axis-forward", p.ForwardAxis)
	}
	return args
}
