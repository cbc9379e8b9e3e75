package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/spine2d/pkg/loader"
)

const heroJSON = `{
  "skeleton": {"spine": "4.2.33", "hash": "hero", "width": 40, "height": 80},
  "bones": [
    {"name": "root"},
    {"name": "hip", "parent": "root", "length": 20}
  ],
  "slots": [
    {"name": "body", "bone": "hip", "attachment": "body"}
  ],
  "skins": [
    {"name": "default", "attachments": {"body": {"body": {"width": 2, "height": 2}}}}
  ],
  "events": {"step": {}},
  "animations": {
    "idle": {"bones": {"hip": {"rotate": [{"time": 0}, {"time": 1, "value": 30}]}}},
    "jump": {"bones": {"hip": {"translate": [{"time": 0}, {"time": 0.5, "y": 10}]}}}
  }
}`

func writeHero(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hero.json")
	if err := os.WriteFile(path, []byte(heroJSON), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestRun_ConvertRoundTrip(t *testing.T) {
	in := writeHero(t)
	dir := filepath.Dir(in)
	skel := filepath.Join(dir, "hero.skel")
	back := filepath.Join(dir, "back.json")

	if err := run([]string{"-in", in, "-out", skel}, &bytes.Buffer{}); err != nil {
		t.Fatalf("json -> binary failed: %v", err)
	}
	if err := run([]string{"-in", skel, "-out", back, "-compact"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("binary -> json failed: %v", err)
	}

	data, err := os.ReadFile(back)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if bytes.ContainsAny(data, "\n\t") {
		t.Error("Expected compact JSON output")
	}
	sd, err := loader.LoadSkeletonFile(back, loader.Options{})
	if err != nil {
		t.Fatalf("Failed to reload output: %v", err)
	}
	if len(sd.Bones) != 2 || len(sd.Animations) != 2 || sd.FindAnimation("jump") == nil {
		t.Errorf("Expected 2 bones and animations idle, jump; got %d bones, %d animations", len(sd.Bones), len(sd.Animations))
	}
}

func TestRun_Info(t *testing.T) {
	in := writeHero(t)
	var out bytes.Buffer
	if err := run([]string{"-in", in, "-info"}, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, want := range []string{
		"Version: 4.2.33",
		"Bones: 2  Slots: 1  Events: 1",
		"Skins (1):",
		"default: 1 attachments",
		"Animations (2):",
		"idle: 1.000s",
		"jump: 0.500s",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestRun_Errors(t *testing.T) {
	in := writeHero(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no input", []string{"-out", "x.json"}},
		{"no output", []string{"-in", in}},
		{"missing input", []string{"-in", filepath.Join(t.TempDir(), "none.json"), "-info"}},
		{"unknown extension", []string{"-in", in, "-out", filepath.Join(t.TempDir(), "hero.txt")}},
		{"unknown format", []string{"-in", in, "-out", filepath.Join(t.TempDir(), "hero.out"), "-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args, &bytes.Buffer{}); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		path, name string
		want       loader.Format
	}{
		{"a.skel", "", loader.FormatBinary},
		{"a.json", "", loader.FormatJSON},
		{"a.bin", "binary", loader.FormatBinary},
		{"a.skel", "json", loader.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.name, func(t *testing.T) {
			got, err := outputFormat(tt.path, tt.name)
			if err != nil || got != tt.want {
				t.Errorf("Expected %v, got %v (%v)", tt.want, got, err)
			}
		})
	}
}
