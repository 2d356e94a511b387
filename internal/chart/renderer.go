package chart

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/renewabletx/gridmix/internal/energy"
	"github.com/renewabletx/gridmix/internal/logger"
)

const (
	imageWidth    = 800
	imageHeight   = 600
	pieRadius     = 210
	startAngleDeg = 140
)

// Slice is one wedge of the pie: a display label, its generation value, and
// the catalog color.
type Slice struct {
	Label string
	Value float64
	Color string
}

// SlicesFromMix turns a label→megawatts mix into ordered pie slices using
// catalog display names and colors. Labels are sorted for a stable layout;
// unknown labels keep their raw name and get a neutral color.
func SlicesFromMix(mix map[string]float64) []Slice {
	labels := make([]string, 0, len(mix))
	for label := range mix {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	slices := make([]Slice, 0, len(labels))
	for _, label := range labels {
		display, color := label, "#C9CBCF"
		if meta, err := energy.MetaForLabel(label); err == nil {
			display, color = meta.Display, meta.Color
		}
		slices = append(slices, Slice{Label: display, Value: mix[label], Color: color})
	}
	return slices
}

// Renderer writes pie-chart PNGs of the current mix into an output
// directory.
type Renderer struct {
	outDir string
	log    *logger.Logger
}

func NewRenderer(outDir string, log *logger.Logger) *Renderer {
	return &Renderer{
		outDir: outDir,
		log:    log.With("component", "chart"),
	}
}

// RenderPie draws the slices as a pie chart with a title and legend and
// saves it under name (a .png file name) in the output directory. Negative
// values (storage charging) are clamped to zero for the pie. Returns the
// written path.
func (r *Renderer) RenderPie(slices []Slice, title, name string) (string, error) {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.outDir, sanitizeFileName(name))

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	var total float64
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}

	cx := float64(imageWidth) * 0.38
	cy := float64(imageHeight)*0.5 + 20

	if total > 0 {
		angle := gg.Radians(startAngleDeg)
		for _, s := range slices {
			v := s.Value
			if v < 0 {
				v = 0
			}
			sweep := v / total * 2 * math.Pi
			if sweep == 0 {
				continue
			}
			dc.MoveTo(cx, cy)
			dc.DrawArc(cx, cy, pieRadius, angle, angle+sweep)
			dc.ClosePath()
			dc.SetHexColor(s.Color)
			dc.Fill()
			angle += sweep
		}
	}

	// Legend on the right, one entry per slice with its share.
	legendX := float64(imageWidth) * 0.72
	legendY := float64(imageHeight)*0.5 - float64(len(slices))*10
	for i, s := range slices {
		y := legendY + float64(i)*22
		dc.SetHexColor(s.Color)
		dc.DrawRectangle(legendX, y-7, 14, 14)
		dc.Fill()

		pct := 0.0
		if total > 0 && s.Value > 0 {
			pct = s.Value / total * 100
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%s: %.1f%%", s.Label, pct), legendX+22, y, 0, 0.35)
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(title, float64(imageWidth)/2, 24, 0.5, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	r.log.Info("rendered fuel mix chart", "path", path)
	return path, nil
}

// sanitizeFileName makes upstream timestamps safe for file names and URLs.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, ":", "-")
	if !strings.HasSuffix(name, ".png") {
		name += ".png"
	}
	return name
}
