package export

import (
	"fmt"
	"strings"
	"time"
)

// Result is the per-object outcome of an export run.
type Result struct {
	ObjectName string
	Triangles  int
	FileSize   int64
	Formats    []string
	Textures   int
	Success    bool
	Error      string
}

// Report aggregates one export run. It is reset at the start of a run and
// kept afterward for the report view.
type Report struct {
	Started    time.Time
	Items      []Result
	TotalFiles int
	TotalSize  int64
	Errors     int
}

// Add appends a per-object result and folds it into the totals.
func (r *Report) Add(res Result) {
	r.Items = append(r.Items, res)
	r.TotalFiles += len(res.Formats)
	r.TotalSize += res.FileSize
}

// Succeeded counts the objects with at least one written format.
func (r *Report) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Success {
			n++
		}
	}
	return n
}

// FormatSize renders a byte count for the report: raw bytes under 1024,
// one-decimal KB under 1 MiB, two-decimal MB above.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}

// Render emits the human-readable run report.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("=== Nexus Export Report ===\n")
	if !r.Started.IsZero() {
		fmt.Fprintf(&b, "Run started: %s\n", r.Started.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Objects: %d (%d ok, %d failed)\n",
		len(r.Items), r.Succeeded(), len(r.Items)-r.Succeeded())
	fmt.Fprintf(&b, "Files written: %d, total size: %s, errors: %d\n",
		r.TotalFiles, FormatSize(r.TotalSize), r.Errors)
	b.WriteString("\n")

	for _, it := range r.Items {
		status := "OK"
		if !it.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "%-24s %s\n", it.ObjectName, status)
		fmt.Fprintf(&b, "  triangles: %d, textures: %d\n", it.Triangles, it.Textures)
		if len(it.Formats) > 0 {
			fmt.Fprintf(&b, "  formats: %s, size: %s\n",
				strings.Join(it.Formats, ", "), FormatSize(it.FileSize))
		}
		if it.Error != "" {
			fmt.Fprintf(&b, "  error: %s\n", it.Error)
		}
	}
	return b.String()
}
