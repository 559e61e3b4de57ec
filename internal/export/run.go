package export

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/internal/exporter"
	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Precondition and restore sentinels.
var (
	ErrNoOutputDir = errors.New("export: output directory missing or not writable")
	ErrNoFormats   = errors.New("export: no output format enabled")
	ErrEmptyQueue  = errors.New("export: no included objects in queue")

	errImageGone = errors.New("image no longer exists")
)

// Runner drives one export run over a queue. Processing is strictly
// sequential: one object is fully mutated, exported and restored before the
// next begins, because the mutation stages touch shared scene data.
type Runner struct {
	sc        *scene.Scene
	cfg       *config.Config
	exporters exporter.Registry
}

// NewRunner builds a runner with the default back-ends: the built-in GLB
// writer and the configured external converters.
func NewRunner(sc *scene.Scene, cfg *config.Config) *Runner {
	return &Runner{
		sc:  sc,
		cfg: cfg,
		exporters: exporter.Registry{
			exporter.FormatGLB:  exporter.NewGLB(),
			exporter.FormatUSDZ: exporter.NewUSDZ(cfg.Tools.USDZConverter),
			exporter.FormatFBX:  exporter.NewFBX(cfg.Tools.FBXConverter),
		},
	}
}

// NewRunnerWith builds a runner with explicit back-ends.
func NewRunnerWith(sc *scene.Scene, cfg *config.Config, reg exporter.Registry) *Runner {
	return &Runner{sc: sc, cfg: cfg, exporters: reg}
}

// Run processes every included queue item. Precondition violations abort
// before any mutation; past that point the run always completes across all
// objects, accumulating successes and failures into the report.
func (r *Runner) Run(q *Queue) (*Report, error) {
	s := &r.cfg.Export

	if !s.Formats.Any() {
		return nil, ErrNoFormats
	}
	if err := checkOutputDir(s.OutputDir); err != nil {
		return nil, err
	}
	roots := q.Included(r.sc)
	if len(roots) == 0 {
		return nil, ErrEmptyQueue
	}

	report := &Report{Started: time.Now()}
	logger.Info("export run started",
		zap.Int("objects", len(roots)),
		zap.String("output", s.OutputDir))

	for _, root := range roots {
		res := r.processObject(root)
		report.Errors += len(res.errs)
		report.Add(res.result)
	}

	logger.Info("export run finished",
		zap.Int("files", report.TotalFiles),
		zap.Int("errors", report.Errors))
	return report, nil
}

type objectOutcome struct {
	result Result
	errs   []error
}

// processObject runs one full pass: resolve, mutate, export all formats,
// measure, restore. Restoration runs on every exit path.
func (r *Runner) processObject(root scene.ObjectID) objectOutcome {
	obj := r.sc.Object(root)
	set := Resolve(r.sc, root)
	s := &r.cfg.Export

	pass := newPass(r.sc)
	defer pass.Restore()

	if s.ApplyTransforms {
		pass.BakeTransforms(set)
	}
	if s.Cleanup.Enabled {
		pass.CleanupMeshes(set, s.Cleanup)
	}
	if s.MaterialMode == config.MaterialUnlit {
		pass.ApplyUnlit(set)
	}
	pass.ResizeTextures(set, s.Resize, s.POT)

	// Triangle count reflects what was actually exported: measured after
	// cleanup, before restoration.
	triangles := setTriangles(r.sc, set)
	textures := len(distinctImages(r.sc, set))

	res := r.dispatch(r.sc, obj.Name, set)

	// What was written is decided by what is on disk. A converter can leave
	// a file behind and still report an error, or report success without
	// producing output; the files are the ground truth either way.
	var size int64
	var written []string
	for _, a := range res.attempts {
		fi, err := os.Stat(a.path)
		if err != nil {
			continue
		}
		size += fi.Size()
		written = append(written, a.format.String())
	}

	out := objectOutcome{
		result: Result{
			ObjectName: obj.Name,
			Triangles:  triangles,
			FileSize:   size,
			Formats:    written,
			Textures:   textures,
			Success:    len(written) > 0,
		},
		errs: res.errs,
	}
	if len(res.errs) > 0 {
		msgs := make([]string, len(res.errs))
		for i, e := range res.errs {
			msgs[i] = e.Error()
		}
		out.result.Error = strings.Join(msgs, "; ")
	}
	return out
}

// checkOutputDir verifies the directory exists and is writable by probing
// with a temporary file.
func checkOutputDir(dir string) error {
	if dir == "" {
		return ErrNoOutputDir
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoOutputDir, dir)
	}
	probe, err := os.CreateTemp(dir, ".nexus-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoOutputDir, dir)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
