package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/renewabletx/gridmix/internal/logger"
)

func TestSlicesFromMix(t *testing.T) {
	slices := SlicesFromMix(map[string]float64{
		"Wind":             1000,
		"Coal and Lignite": 500,
		"Power Storage":    -50,
	})

	if len(slices) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(slices))
	}
	// Labels come out sorted by upstream label, mapped to display names.
	if slices[0].Label != "Coal" || slices[1].Label != "Power Storage" || slices[2].Label != "Wind" {
		t.Fatalf("unexpected slice order: %+v", slices)
	}
	if slices[0].Color != "#000000" {
		t.Errorf("coal color = %q", slices[0].Color)
	}
}

func TestRenderPieWritesImage(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, logger.NewNop())

	slices := SlicesFromMix(map[string]float64{
		"Wind":          1000,
		"Solar":         500,
		"Power Storage": -50,
	})

	path, err := r.RenderPie(slices, "Energy Mix", "2025-05-01 12:00:00")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if filepath.Base(path) != "2025-05-01_12-00-00.png" {
		t.Errorf("unexpected file name: %q", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("rendered file is empty")
	}
}

func TestRenderPieZeroTotal(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, logger.NewNop())

	// All charging, nothing generating: the pie is empty but the render
	// still succeeds.
	path, err := r.RenderPie([]Slice{{Label: "Power Storage", Value: -10, Color: "#FF6384"}}, "Energy Mix", "empty")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
}
