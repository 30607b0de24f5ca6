package compositor

import (
	"context"
	"sort"

	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// Compositor runs the four-stage algorithm described in §4.4.
type Compositor struct {
	prober VideoProber
	log    logger.Logger
}

func New(prober VideoProber, log logger.Logger) *Compositor {
	return &Compositor{prober: prober, log: log.WithField("component", "compositor")}
}

// layer is the compositor's working copy of a models.VideoLayer once its
// timeline placement has been fully resolved (stage 1).
type layer struct {
	models.VideoLayer
	ResolvedStart float64
	ResolvedEnd   float64
}

func (l layer) sourceUsedDuration() float64 { return l.SourceEnd - l.SourceStart }

// Build runs all four stages against a project and returns the result the
// Export Pipeline needs.
func (c *Compositor) Build(ctx context.Context, project *models.Project) (*Result, error) {
	layers, err := c.buildLayers(ctx, project)
	if err != nil {
		return nil, err
	}

	visMap, totalDuration := computeVisibilityMap(layers)

	placements, warnings := mapNarrationSegments(project, layers, visMap)

	bgmPlacements, bgmWarnings := c.mapBGMTracks(ctx, project, totalDuration)
	warnings = append(warnings, bgmWarnings...)

	return &Result{
		VisibilityMap: visMap,
		Placements:    placements,
		BGMPlacements: bgmPlacements,
		TotalDuration: totalDuration,
		Warnings:      warnings,
	}, nil
}

// buildLayers is stage 1: probe each video and resolve its timeline
// placement. Layers with an unset timeline_start are laid out sequentially
// by accumulating the prior resolved end, processed in `order`.
func (c *Compositor) buildLayers(ctx context.Context, project *models.Project) ([]layer, error) {
	layers := make([]layer, len(project.Videos))
	for i, v := range project.Videos {
		layers[i] = layer{VideoLayer: v}

		info, err := c.prober.ProbeVideoInfo(ctx, v.SourcePath)
		if err != nil {
			return nil, err
		}
		hasAudio, err := c.prober.HasAudio(ctx, v.SourcePath)
		if err != nil {
			return nil, err
		}
		layers[i].Width = info.Width
		layers[i].Height = info.Height
		layers[i].FPS = info.FPS
		layers[i].HasAudio = hasAudio
	}

	order := make([]int, len(layers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return layers[order[a]].Order < layers[order[b]].Order })

	cursor := 0.0
	for _, idx := range order {
		l := &layers[idx]
		used := l.sourceUsedDuration()

		var start float64
		if l.TimelineStart != nil {
			start = *l.TimelineStart
		} else {
			start = cursor
		}

		var end float64
		if l.TimelineEnd != nil {
			end = *l.TimelineEnd
		} else {
			end = start + used
		}

		l.ResolvedStart = start
		l.ResolvedEnd = end
		cursor = end
	}

	return layers, nil
}

func (c *Compositor) DebugDump(res *Result) string {
	return debugDump(res)
}
