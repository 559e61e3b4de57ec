// nexusexport is a CLI for batch-exporting 3D scenes to GLB, USDZ and FBX.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/nexus-export/internal/config"
	"github.com/Faultbox/nexus-export/internal/export"
	"github.com/Faultbox/nexus-export/internal/logger"
	"github.com/Faultbox/nexus-export/internal/update"
	"github.com/Faultbox/nexus-export/pkg/scene"
)

// Version is stamped by the release build.
var Version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "export":
		cmdExport(args)
	case "queue", "inspect":
		cmdQueue(args)
	case "presets":
		cmdPresets()
	case "check-update":
		cmdCheckUpdate(args)
	case "version", "-v", "--version":
		fmt.Printf("nexusexport %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nexusexport - batch 3D scene exporter (GLB / USDZ / FBX)

Usage:
  nexusexport <command> [options]

Commands:
  export [flags] <scene.glb> [object ...]  Export queued objects to all enabled formats
  queue <scene.glb>                        Show which scene objects are exportable
  presets                                  List platform presets
  check-update                             Check for a newer release
  version                                  Print version

Export flags:
  -config <path>   Config file (default: ./nexus-export.yaml)
  -out <dir>       Output directory
  -preset <name>   Apply a platform preset (see 'presets')
  -unlit           Export materials as unlit
  -glb -usdz -fbx  Enable specific formats (overrides config)
  -debug           Debug logging

Examples:
  nexusexport export -out ./dist scene.glb
  nexusexport export -preset web_mobile -out ./dist scene.glb Chair Table
  nexusexport presets`)
}

func cmdExport(args []string) {
	if err := config.ParseFlags(args); err != nil {
		os.Exit(1)
	}
	rest := flag.CommandLine.Args()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nexusexport export [flags] <scene.glb> [object ...]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.LogFile,
		Console: true,
	})
	defer logger.Sync()

	if err := cfg.Export.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	var checker *update.Checker
	if cfg.Update.AutoCheck {
		checker = update.NewChecker(cfg.Update.Owner, cfg.Update.Repo, Version)
		checker.Check()
	}

	sc, err := scene.LoadGLB(rest[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	q := buildQueue(sc, rest[1:])
	if len(q.Items) == 0 {
		fmt.Fprintln(os.Stderr, "No exportable objects matched")
		os.Exit(1)
	}

	report, err := export.NewRunner(sc, cfg).Run(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Export.ShowReport {
		fmt.Print(report.Render())
	} else {
		fmt.Printf("Exported %d/%d objects, %d files, %s\n",
			report.Succeeded(), len(report.Items),
			report.TotalFiles, export.FormatSize(report.TotalSize))
	}

	if checker != nil {
		if st := checker.State(); st != nil && st.Available {
			fmt.Println(st.Status())
		}
	}

	if report.Errors > 0 {
		os.Exit(1)
	}
}

// buildQueue queues the named objects, or every admissible scene root when
// no names are given.
func buildQueue(sc *scene.Scene, names []string) *export.Queue {
	q := &export.Queue{}
	if len(names) == 0 {
		q.AddSelected(sc, sc.Roots())
		return q
	}

	var sel []scene.ObjectID
	for _, name := range names {
		id := sc.FindObject(name)
		if id == scene.NoObject {
			fmt.Fprintf(os.Stderr, "Warning: object %q not found\n", name)
			continue
		}
		sel = append(sel, id)
	}
	if added := q.AddSelected(sc, sel); added == 0 && len(sel) > 0 {
		fmt.Fprintln(os.Stderr, "Warning: no objects added (not exportable, or already covered by an ancestor)")
	}
	return q
}

func cmdQueue(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nexusexport queue <scene.glb>")
		os.Exit(1)
	}

	sc, err := scene.LoadGLB(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scene: %s (%d objects)\n\n", args[0], sc.ObjectCount())
	for _, id := range sc.Roots() {
		o := sc.Object(id)
		if !export.Admissible(sc, id) {
			fmt.Printf("  %-24s %-8s not exportable\n", o.Name, o.Type)
			continue
		}

		meshes := 0
		hidden := 0
		set := export.Resolve(sc, id)
		for _, did := range set {
			if d := sc.Object(did); d != nil && d.Type == scene.ObjectMesh {
				meshes++
			}
		}
		for _, did := range sc.Descendants(id, false) {
			if !sc.Visible(did) {
				hidden++
			}
		}

		line := fmt.Sprintf("  %-24s %-8s %d mesh object(s)", o.Name, o.Type, meshes)
		if hidden > 0 {
			line += fmt.Sprintf(", %d hidden (will be skipped)", hidden)
		}
		fmt.Println(line)
	}
}

func cmdPresets() {
	fmt.Println("Platform presets:")
	fmt.Printf("  %-12s %-20s %-16s %-10s %-10s %s\n",
		"NAME", "LABEL", "FORMAT", "TEXTURES", "MAX TRIS", "TARGET")
	for _, p := range config.Presets {
		info := p.Info()
		fmt.Printf("  %-12s %-20s %-16s %-10s %-10s %s\n",
			p, info.Label, info.Format, info.Textures, info.MaxTris, info.TargetSize)
	}
	fmt.Printf("  %-12s %s\n", config.PresetCustom, "keeps all current settings")
}

func cmdCheckUpdate(args []string) {
	fs := flag.NewFlagSet("check-update", flag.ExitOnError)
	install := fs.Bool("install", false, "Install the update over the current binary")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st := update.NewChecker(cfg.Update.Owner, cfg.Update.Repo, Version).CheckNow()
	fmt.Println(st.Status())
	if st.Err != nil {
		os.Exit(1)
	}

	if *install && st.Available {
		target, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := update.Install(st.AssetURL, target); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Installed.")
	}
}
