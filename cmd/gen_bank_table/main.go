package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/library"
)

const (
	startMarker = "<!-- INSTRUMENTS:START -->"
	endMarker   = "<!-- INSTRUMENTS:END -->"
)

func main() {
	var (
		readme string
		bank   string
	)
	flag.StringVar(&readme, "readme", "README.md", "Path to README file to update in place")
	flag.StringVar(&bank, "bank", "", "Sample bank file (default: built-in demo instruments)")
	flag.Parse()

	lib, err := loadLibrary(bank)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	instruments := append([]library.InstrumentBank(nil), lib.Instruments...)
	sort.Slice(instruments, func(i, j int) bool { return instruments[i].Program < instruments[j].Program })

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Bank `%s`: %d instruments.\n\n", lib.SourceName, len(instruments))
	buf.WriteString("| Program | Name | Regions | Keys | Root | Loop |\n")
	buf.WriteString("|--:|---|--:|---|---|---|\n")
	for _, inst := range instruments {
		lo, hi, root, looped := summarize(inst.Regions)
		fmt.Fprintf(&buf, "| %d | %s | %d | %s–%s | %s | %s |\n",
			inst.Program, inst.Name, len(inst.Regions),
			debug.NoteName(lo), debug.NoteName(hi), root, looped)
	}

	readmeBytes, err := os.ReadFile(readme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", readme, err)
		os.Exit(1)
	}
	content := string(readmeBytes)
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start == -1 || end == -1 || end < start {
		fmt.Fprintf(os.Stderr, "error: markers not found in %s. Ensure %s and %s exist.\n", readme, startMarker, endMarker)
		os.Exit(1)
	}
	before := content[:start+len(startMarker)]
	after := content[end:]
	var out bytes.Buffer
	out.WriteString(before)
	out.WriteString("\n")
	out.Write(buf.Bytes())
	if !strings.HasPrefix(after, "\n") {
		out.WriteString("\n")
	}
	out.WriteString(after)

	if err := os.WriteFile(readme, out.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", readme, err)
		os.Exit(1)
	}
}

func loadLibrary(path string) (*library.SampleLibrary, error) {
	if path == "" {
		return library.DemoLibrary()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return library.Load(f)
}

// summarize returns the key span of regions, the root note of the first
// region ("mixed" when they differ) and whether they loop.
func summarize(regions []library.SampleRegion) (lo, hi uint8, root, looped string) {
	if len(regions) == 0 {
		return 0, 0, "--", "no"
	}
	lo, hi = regions[0].KeyLo, regions[0].KeyHi
	root = debug.NoteName(regions[0].BaseNote)
	loops := 0
	for _, r := range regions {
		lo, hi = min(lo, r.KeyLo), max(hi, r.KeyHi)
		if debug.NoteName(r.BaseNote) != root {
			root = "mixed"
		}
		if r.HasLoop {
			loops++
		}
	}
	switch loops {
	case 0:
		looped = "no"
	case len(regions):
		looped = "yes"
	default:
		looped = fmt.Sprintf("%d/%d", loops, len(regions))
	}
	return lo, hi, root, looped
}
