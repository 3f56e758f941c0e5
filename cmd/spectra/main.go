// Command spectra renders a scene description to a PNG or EXR image,
// driving the internal/render orchestrator over the path-tracing core.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/duskforge/spectra/internal/imagebuf"
	"github.com/duskforge/spectra/internal/render"
	"github.com/duskforge/spectra/internal/sceneio"
)

const stdinTerminator = "__PSY_EOF__"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin *os.File, stdout *os.File) int {
	fs := flag.NewFlagSet("spectra", flag.ContinueOnError)

	var input string
	var useStdin bool
	var spp int
	var spb int
	var crop string
	var threads int
	var stats bool
	var dev bool
	var serializedOutput bool
	var cpuprofile string

	fs.StringVar(&input, "input", "", "scene description file")
	fs.StringVar(&input, "i", "", "scene description file (shorthand)")
	fs.BoolVar(&useStdin, "use_stdin", false, "read the scene from stdin, terminated by "+stdinTerminator)
	fs.IntVar(&spp, "spp", 0, "override the scene's samples per pixel")
	fs.IntVar(&spp, "s", 0, "override the scene's samples per pixel (shorthand)")
	fs.IntVar(&spb, "spb", 4096, "per-bucket sample budget")
	fs.IntVar(&spb, "b", 4096, "per-bucket sample budget (shorthand)")
	fs.StringVar(&crop, "crop", "", "X1 Y1 X2 Y2 inclusive zero-indexed crop rectangle")
	fs.IntVar(&threads, "threads", 0, "worker thread count (default: logical CPU count)")
	fs.IntVar(&threads, "t", 0, "worker thread count (shorthand)")
	fs.BoolVar(&stats, "stats", false, "print run statistics to stderr on completion")
	fs.BoolVar(&dev, "dev", false, "force spp=1 and single-threaded execution")
	fs.BoolVar(&serializedOutput, "serialized_output", false, "emit base64 RGBA bucket lines instead of a progress bar")
	fs.StringVar(&cpuprofile, "cpuprofile", "", "write a CPU profile to file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			slog.Error("could not create CPU profile", "error", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			slog.Error("could not start CPU profile", "error", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	var sceneReader *bufio.Reader
	switch {
	case useStdin:
		sceneReader = bufio.NewReader(strings.NewReader(readUntilTerminator(stdin, stdinTerminator)))
	case input != "":
		f, err := os.Open(input)
		if err != nil {
			slog.Error("could not open input", "path", input, "error", err)
			return 1
		}
		defer f.Close()
		sceneReader = bufio.NewReader(f)
	default:
		slog.Error("no input: pass -i/--input or --use_stdin")
		return 2
	}

	parsed, err := sceneio.Parse(sceneReader)
	if err != nil {
		slog.Error("scene parse failed", "error", err)
		return 1
	}

	cfg := render.DefaultConfig(parsed.Width, parsed.Height)
	cfg.Seed = parsed.Seed
	cfg.SPP = parsed.SPP
	cfg.MaxSamplesPerBucket = spb
	cfg.Dev = dev
	cfg.SerializedOutput = serializedOutput
	if spp > 0 {
		cfg.SPP = spp
	}
	if threads > 0 {
		cfg.Threads = threads
	}
	if crop != "" {
		x0, y0, x1, y1, err := parseCrop(crop)
		if err != nil {
			slog.Error("invalid --crop", "error", err)
			return 2
		}
		cfg.CropX0, cfg.CropY0, cfg.CropX1, cfg.CropY1 = x0, y0, x1+1, y1+1
	}

	outFile := parsed.OutputFile
	if outFile == "" {
		slog.Error("scene has no output_file")
		return 1
	}
	ext := strings.ToLower(filepath.Ext(outFile))
	if ext != ".png" && ext != ".exr" {
		slog.Error("unsupported output extension", "extension", ext)
		return 1
	}

	img := imagebuf.New(parsed.Width, parsed.Height)

	start := time.Now()
	runStats := render.RenderImage(parsed.Root, parsed.World, parsed.Camera, img, cfg)
	elapsed := time.Since(start)

	out, err := os.Create(outFile)
	if err != nil {
		slog.Error("could not create output file", "path", outFile, "error", err)
		return 1
	}
	defer out.Close()

	switch ext {
	case ".png":
		err = img.WritePNG(out, imagebuf.XYZToSRGB)
	case ".exr":
		err = img.WriteEXR(out)
	}
	if err != nil {
		slog.Error("could not write output image", "path", outFile, "error", err)
		return 1
	}

	if stats {
		fmt.Fprintf(os.Stderr, "rays=%d paths=%d buckets=%d elapsed=%s\n",
			runStats.RaysTraced, runStats.PathsTraced, runStats.BucketsDone, elapsed)
	}
	return 0
}

func parseCrop(s string) (x0, y0, x1, y1 int, err error) {
	parts := strings.Fields(s)
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected 4 integers, got %d", len(parts))
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, 0, convErr
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// readUntilTerminator reads lines from r until one equals terminator
// (exclusive), joining the rest back with newlines. This lets
// --use_stdin sessions be piped into a long-lived process without
// closing stdin (spec.md §6).
func readUntilTerminator(r *os.File, terminator string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == terminator {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
