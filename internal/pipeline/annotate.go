package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	ViolentLabel    = "Violent"
	NonViolentLabel = "Non-Violent"
)

var (
	// AlertColor is red; gocv converts RGBA to the BGR scalar (0,0,255).
	AlertColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	// NormalColor is green, BGR (0,255,0).
	NormalColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// Label placement and style.
var (
	LabelOrigin    = image.Pt(10, 30)
	LabelFont      = gocv.FontHersheySimplex
	LabelScale     = 1.0
	LabelThickness = 2
)

// Annotation is the verdict rendered onto an output frame.
type Annotation struct {
	Label   string
	Color   color.RGBA
	Violent bool
}

// Annotate derives the annotation for probability p. Only p strictly above
// threshold is violent, so p == threshold reads as non-violent.
func Annotate(p, threshold float64) Annotation {
	if p > threshold {
		return Annotation{
			Label:   fmt.Sprintf("%s (%.2f)", ViolentLabel, p),
			Color:   AlertColor,
			Violent: true,
		}
	}
	return Annotation{
		Label: fmt.Sprintf("%s (%.2f)", NonViolentLabel, p),
		Color: NormalColor,
	}
}

// Draw renders the label onto img in place.
func (a Annotation) Draw(img *gocv.Mat) error {
	if err := gocv.PutTextWithParams(img, a.Label, LabelOrigin, LabelFont, LabelScale, a.Color, LabelThickness, gocv.LineAA, false); err != nil {
		return fmt.Errorf("failed to draw label: %w", err)
	}
	return nil
}
