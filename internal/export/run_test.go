package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/internal/exporter"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

type fakeExporter struct {
	format    exporter.Format
	fail      map[string]bool // output base name -> error without output
	failDirty map[string]bool // output base name -> error after writing output
	noWrite   map[string]bool // output base name -> nil without output
	lastSel   []scene.ObjectID
	calls     int
}

func (f *fakeExporter) Format() exporter.Format { return f.format }

func (f *fakeExporter) Export(sc *scene.Scene, sel []scene.ObjectID, path string, p exporter.Params) error {
	f.calls++
	f.lastSel = append([]scene.ObjectID(nil), sel...)
	base := filepath.Base(path)
	if f.fail[base] {
		return errors.New("simulated exporter failure")
	}
	if f.noWrite[base] {
		return nil
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		return err
	}
	if f.failDirty[base] {
		return errors.New("simulated failure after partial output")
	}
	return nil
}

// runScene builds three root mesh objects A, B, C.
func runScene(t *testing.T) (*scene.Scene, *Queue) {
	t.Helper()
	s := scene.New()
	q := &Queue{}
	for _, name := range []string{"A", "B", "C"} {
		mesh := s.AddMesh(&scene.Mesh{
			Name:     name,
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:    [][]int{{0, 1, 2}},
		})
		o := scene.NewObject(name, scene.ObjectMesh)
		o.Mesh = mesh
		id := s.AddObject(o)
		q.Items = append(q.Items, QueueItem{Object: id, Include: true})
	}
	return s, q
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Export.OutputDir = t.TempDir()
	return cfg
}

func TestRun_PartialFailureAccounting(t *testing.T) {
	s, q := runScene(t)
	cfg := testConfig(t)

	fake := &fakeExporter{format: exporter.FormatGLB, fail: map[string]bool{"B.glb": true}}
	r := NewRunnerWith(s, cfg, exporter.Registry{exporter.FormatGLB: fake})

	report, err := r.Run(q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(report.Items))
	}
	if report.Succeeded() != 2 {
		t.Errorf("succeeded = %d, want 2", report.Succeeded())
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}

	for _, it := range report.Items {
		switch it.ObjectName {
		case "B":
			if it.Success || it.Error == "" {
				t.Errorf("B: success=%v error=%q, want failure with message", it.Success, it.Error)
			}
			if it.FileSize != 0 {
				t.Errorf("B: size = %d, want 0", it.FileSize)
			}
		default:
			if !it.Success {
				t.Errorf("%s: unexpected failure: %s", it.ObjectName, it.Error)
			}
			if it.FileSize == 0 {
				t.Errorf("%s: file size not measured", it.ObjectName)
			}
			if it.Triangles != 1 {
				t.Errorf("%s: triangles = %d, want 1", it.ObjectName, it.Triangles)
			}
		}
	}
	if report.TotalFiles != 2 {
		t.Errorf("total files = %d, want 2", report.TotalFiles)
	}
}

// TestRun_CountsFilesLeftByFailedExport covers a converter that errors after
// writing its output. The file exists, so the format counts and the object
// succeeds, while the error is still reported.
func TestRun_CountsFilesLeftByFailedExport(t *testing.T) {
	s, q := runScene(t)
	cfg := testConfig(t)

	fake := &fakeExporter{format: exporter.FormatGLB, failDirty: map[string]bool{"A.glb": true}}
	r := NewRunnerWith(s, cfg, exporter.Registry{exporter.FormatGLB: fake})

	report, err := r.Run(q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	for _, it := range report.Items {
		if it.ObjectName != "A" {
			continue
		}
		if !it.Success {
			t.Error("A: file on disk but not counted as success")
		}
		if len(it.Formats) != 1 || it.Formats[0] != "GLB" {
			t.Errorf("A: formats = %v, want [GLB]", it.Formats)
		}
		if it.FileSize == 0 {
			t.Error("A: file on disk but size not measured")
		}
		if it.Error == "" {
			t.Error("A: exporter error lost")
		}
	}
}

// TestRun_IgnoresMissingOutputOnCleanReturn covers a converter that returns
// nil without producing a file; the object must not be reported as written.
func TestRun_IgnoresMissingOutputOnCleanReturn(t *testing.T) {
	s, q := runScene(t)
	cfg := testConfig(t)

	fake := &fakeExporter{format: exporter.FormatGLB, noWrite: map[string]bool{"A.glb": true}}
	r := NewRunnerWith(s, cfg, exporter.Registry{exporter.FormatGLB: fake})

	report, err := r.Run(q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, it := range report.Items {
		if it.ObjectName != "A" {
			continue
		}
		if it.Success || len(it.Formats) != 0 || it.FileSize != 0 {
			t.Errorf("A: success=%v formats=%v size=%d, want no output recorded",
				it.Success, it.Formats, it.FileSize)
		}
	}
}

func TestRun_Preconditions(t *testing.T) {
	s, q := runScene(t)

	cfg := testConfig(t)
	cfg.Export.Formats = config.FormatToggles{}
	r := NewRunnerWith(s, cfg, exporter.Registry{})
	if _, err := r.Run(q); !errors.Is(err, ErrNoFormats) {
		t.Errorf("no formats: err = %v", err)
	}

	cfg = testConfig(t)
	cfg.Export.OutputDir = filepath.Join(cfg.Export.OutputDir, "missing")
	r = NewRunnerWith(s, cfg, exporter.Registry{})
	if _, err := r.Run(q); !errors.Is(err, ErrNoOutputDir) {
		t.Errorf("missing dir: err = %v", err)
	}

	cfg = testConfig(t)
	r = NewRunnerWith(s, cfg, exporter.Registry{})
	if _, err := r.Run(&Queue{}); !errors.Is(err, ErrEmptyQueue) {
		t.Errorf("empty queue: err = %v", err)
	}
}

func TestRun_RestorationAfterFailure(t *testing.T) {
	s, q := runScene(t)
	cfg := testConfig(t)
	cfg.Export.MaterialMode = config.MaterialUnlit
	cfg.Export.Cleanup = config.CleanupSettings{
		Enabled: true, RemoveDoubles: true, DoublesDistance: 0.0001,
	}

	origMeshes := map[string]*scene.Mesh{}
	for _, id := range s.ObjectIDs() {
		o := s.Object(id)
		origMeshes[o.Name] = s.Mesh(o.Mesh)
	}

	fake := &fakeExporter{format: exporter.FormatGLB, fail: map[string]bool{
		"A.glb": true, "B.glb": true, "C.glb": true,
	}}
	r := NewRunnerWith(s, cfg, exporter.Registry{exporter.FormatGLB: fake})

	report, err := r.Run(q)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded() != 0 {
		t.Fatal("every format failed but report claims success")
	}
	for _, id := range s.ObjectIDs() {
		o := s.Object(id)
		if s.Mesh(o.Mesh) != origMeshes[o.Name] {
			t.Errorf("%s: mesh not restored after failed export", o.Name)
		}
	}
}

func TestUSDZRoundtrip_CleansUpTemporaries(t *testing.T) {
	s, oid, _ := texScene(t, 64, 64)
	cfg := testConfig(t)

	fake := &fakeExporter{format: exporter.FormatUSDZ}
	r := NewRunnerWith(s, cfg, exporter.Registry{exporter.FormatUSDZ: fake})

	before := s.ObjectCount()
	path := filepath.Join(cfg.Export.OutputDir, "Plane.usdz")
	if err := r.usdzRoundtrip(s, fake, "Plane", []scene.ObjectID{oid}, path); err != nil {
		t.Fatalf("usdzRoundtrip: %v", err)
	}

	if s.ObjectCount() != before {
		t.Errorf("object count = %d, want %d (temporaries removed)", s.ObjectCount(), before)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output not written: %v", err)
	}
	// The bundle export must run over the imported temporaries, not the
	// original selection.
	for _, id := range fake.lastSel {
		if id == oid {
			t.Error("roundtrip exported original objects instead of imported copies")
		}
	}
	if len(fake.lastSel) == 0 {
		t.Error("roundtrip exported nothing")
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5242880, "5.00 MB"},
	}
	for _, c := range cases {
		if got := FormatSize(c.n); got != c.want {
			t.Errorf("FormatSize(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestReport_Render(t *testing.T) {
	rep := &Report{}
	rep.Add(Result{ObjectName: "Chair", Triangles: 120, Formats: []string{"GLB"}, FileSize: 2048, Success: true})
	rep.Add(Result{ObjectName: "Lamp", Success: false, Error: "GLB: boom"})
	rep.Errors = 1

	out := rep.Render()
	for _, want := range []string{"Chair", "Lamp", "FAILED", "2.0 KB", "GLB: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
