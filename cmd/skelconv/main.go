// cmd/skelconv/main.go
// Converts skeleton files between the binary and JSON formats and prints
// skeleton summaries.
//
// Usage:
//   go run ./cmd/skelconv -in hero.skel -out hero.json -compact
//   go run ./cmd/skelconv -in hero.json -out hero.skel
//   go run ./cmd/skelconv -in hero.skel -info

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tidwall/pretty"

	"github.com/decker502/spine2d/internal/skelio"
	"github.com/decker502/spine2d/pkg/loader"
	"github.com/decker502/spine2d/pkg/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("skelconv: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("skelconv", flag.ContinueOnError)
	in := fs.String("in", "", "input skeleton (.skel, .bytes or .json)")
	out := fs.String("out", "", "output skeleton; the format follows the extension")
	format := fs.String("format", "", "output format override: binary or json")
	scale := fs.Float64("scale", 1, "scale applied to positions and sizes while loading")
	info := fs.Bool("info", false, "print a summary of the input instead of converting")
	compact := fs.Bool("compact", false, "strip whitespace from JSON output")
	verbose := fs.Bool("verbose", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("missing -in")
	}
	loader.Verbose = *verbose

	sd, err := loader.LoadSkeletonFile(*in, loader.Options{Scale: float32(*scale)})
	if err != nil {
		return err
	}
	if *info {
		printInfo(stdout, sd)
		return nil
	}
	if *out == "" {
		return errors.New("missing -out (or -info)")
	}

	target, err := outputFormat(*out, *format)
	if err != nil {
		return err
	}
	var data []byte
	switch target {
	case loader.FormatBinary:
		data, err = skelio.WriteBinary(sd)
	default:
		data, err = skelio.WriteJSON(sd)
		if err == nil && *compact {
			data = pretty.Ugly(data)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", target, err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return &model.IOError{Path: *out, Err: err}
	}
	log.Printf("Wrote %s (%s, %d bytes)", *out, target, len(data))
	return nil
}

// outputFormat resolves the format from an explicit name or the output
// extension.
func outputFormat(path, name string) (loader.Format, error) {
	switch name {
	case "binary", "skel":
		return loader.FormatBinary, nil
	case "json":
		return loader.FormatJSON, nil
	case "":
		if f := loader.FormatFromPath(path); f != loader.FormatUnknown {
			return f, nil
		}
		return loader.FormatUnknown, fmt.Errorf("cannot infer format of '%s', use -format", path)
	}
	return loader.FormatUnknown, fmt.Errorf("unknown format '%s'", name)
}

func printInfo(w io.Writer, sd *model.SkeletonData) {
	fmt.Fprintf(w, "Skeleton: %s\n", sd.Name)
	fmt.Fprintf(w, "  Version: %s  Hash: %s\n", sd.Version, sd.Hash)
	fmt.Fprintf(w, "  Bounds: x=%g y=%g w=%g h=%g\n", sd.X, sd.Y, sd.Width, sd.Height)
	fmt.Fprintf(w, "  Bones: %d  Slots: %d  Events: %d\n", len(sd.Bones), len(sd.Slots), len(sd.Events))
	fmt.Fprintf(w, "  Constraints: ik=%d transform=%d path=%d physics=%d\n",
		len(sd.IKConstraints), len(sd.TransformConstraints), len(sd.PathConstraints), len(sd.PhysicsConstraints))

	fmt.Fprintf(w, "Skins (%d):\n", len(sd.Skins))
	for _, s := range sd.Skins {
		fmt.Fprintf(w, "  %s: %d attachments\n", s.Name, s.Len())
	}
	fmt.Fprintf(w, "Animations (%d):\n", len(sd.Animations))
	for _, a := range sd.Animations {
		fmt.Fprintf(w, "  %s: %.3fs, %d timelines\n", a.Name, a.Duration, len(a.Timelines))
	}
}
