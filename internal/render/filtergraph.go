package render

import (
	"fmt"
	"strings"

	"preroll/internal/analyzer"
	"preroll/internal/services"
)

// The filter graph is assembled as an ordered list of typed stage descriptors
// and rendered to ffmpeg filter_complex text in one place, keeping graph
// construction testable independent of string formatting.

type stageKind int

const (
	stageColorSource stageKind = iota
	stageScaleFit
	stageScalePad
	stageAlpha
	stageOverlay
)

// stage is one node of the compositing graph. Input/output are pad labels
// without brackets; an empty input means the stage is a source.
type stage struct {
	kind   stageKind
	input  string
	over   string // second input for overlay stages
	output string

	width    int     // target width (scale, pad, color source)
	height   int     // target height
	padW     int     // full pad size for scale-pad stages
	padH     int
	padX     int
	padY     int
	centered bool    // pad centers the scaled image instead of using padX/padY
	seconds  float64 // color source duration
	x        int     // overlay position
	y        int
	alpha    float64 // alpha multiplier for alpha stages
}

// graph is the ordered stage list; stages execute top to bottom and the last
// stage writes the "vout" label.
type graph struct {
	stages []stage
}

const (
	outputLabel = "vout"
	pipMargin   = 20
)

// GenerateFilterGraph renders the compositing program for a segment.
func GenerateFilterGraph(segment analyzer.Segment) (string, error) {
	g, err := buildGraph(segment)
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

func buildGraph(segment analyzer.Segment) (graph, error) {
	if segment.CanvasWidth <= 0 || segment.CanvasHeight <= 0 {
		return graph{}, services.Wrap(services.ErrValidation, "render", "filtergraph",
			fmt.Sprintf("invalid canvas size %dx%d", segment.CanvasWidth, segment.CanvasHeight), nil)
	}
	if segment.Duration <= 0 {
		return graph{}, services.Wrap(services.ErrValidation, "render", "filtergraph",
			"segment duration must be positive", nil)
	}

	canvasW, canvasH := segment.CanvasWidth, segment.CanvasHeight

	switch len(segment.Layers) {
	case 0:
		return graph{stages: []stage{{
			kind:    stageColorSource,
			output:  outputLabel,
			width:   canvasW,
			height:  canvasH,
			seconds: segment.Duration.Seconds(),
		}}}, nil
	case 1:
		return graph{stages: []stage{baseStage(segment.Layers[0], canvasW, canvasH, outputLabel)}}, nil
	}

	var g graph
	g.stages = append(g.stages, baseStage(segment.Layers[0], canvasW, canvasH, "base"))

	// Upper layers scale without padding so transparency survives, then chain
	// overlays left to right onto the accumulated result.
	acc := "base"
	for i, layer := range segment.Layers[1:] {
		index := i + 1
		label := fmt.Sprintf("l%d", index)

		w, h := canvasW/2, canvasH/2
		x, y := canvasW-w-pipMargin, pipMargin
		opacity := 1.0
		if transform := layer.Clip.Transform; transform != nil {
			if transform.Width > 0 && transform.Height > 0 {
				w, h = transform.Width, transform.Height
			}
			x, y = transform.X, transform.Y
			opacity = transform.Opacity
		}

		g.stages = append(g.stages, stage{
			kind:   stageScaleFit,
			input:  fmt.Sprintf("%d:v", index),
			output: label,
			width:  w,
			height: h,
		})

		if opacity < 1.0 {
			faded := label + "a"
			g.stages = append(g.stages, stage{
				kind:   stageAlpha,
				input:  label,
				output: faded,
				alpha:  opacity,
			})
			label = faded
		}

		out := fmt.Sprintf("ov%d", index)
		if index == len(segment.Layers)-1 {
			out = outputLabel
		}
		g.stages = append(g.stages, stage{
			kind:   stageOverlay,
			input:  acc,
			over:   label,
			output: out,
			x:      x,
			y:      y,
		})
		acc = out
	}
	return g, nil
}

// baseStage scales the bottom layer and pads it to the full canvas; gaps
// around the scaled image letterbox or pillarbox in black.
func baseStage(layer analyzer.VideoLayer, canvasW, canvasH int, output string) stage {
	s := stage{
		kind:     stageScalePad,
		input:    "0:v",
		output:   output,
		width:    canvasW,
		height:   canvasH,
		padW:     canvasW,
		padH:     canvasH,
		centered: true,
	}
	if transform := layer.Clip.Transform; transform != nil && transform.Width > 0 && transform.Height > 0 {
		s.width, s.height = transform.Width, transform.Height
		s.padX, s.padY = transform.X, transform.Y
		s.centered = false
	}
	return s
}

// String renders the graph to ffmpeg filter_complex syntax.
func (g graph) String() string {
	chains := make([]string, 0, len(g.stages))
	for _, s := range g.stages {
		chains = append(chains, s.render())
	}
	return strings.Join(chains, ";")
}

func (s stage) render() string {
	var b strings.Builder
	if s.input != "" {
		fmt.Fprintf(&b, "[%s]", s.input)
	}
	switch s.kind {
	case stageColorSource:
		fmt.Fprintf(&b, "color=c=black:s=%dx%d:d=%.3f", s.width, s.height, s.seconds)
	case stageScaleFit:
		fmt.Fprintf(&b, "scale=%d:%d:force_original_aspect_ratio=decrease", s.width, s.height)
	case stageScalePad:
		fmt.Fprintf(&b, "scale=%d:%d:force_original_aspect_ratio=decrease", s.width, s.height)
		if s.centered {
			fmt.Fprintf(&b, ",pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black", s.padW, s.padH)
		} else {
			fmt.Fprintf(&b, ",pad=%d:%d:%d:%d:color=black", s.padW, s.padH, s.padX, s.padY)
		}
		b.WriteString(",setsar=1")
	case stageAlpha:
		fmt.Fprintf(&b, "format=yuva420p,colorchannelmixer=aa=%.3f", s.alpha)
	case stageOverlay:
		fmt.Fprintf(&b, "[%s]overlay=%d:%d", s.over, s.x, s.y)
	}
	fmt.Fprintf(&b, "[%s]", s.output)
	return b.String()
}
