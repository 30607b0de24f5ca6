// Package models holds the project data model: videos, narration segments,
// background music and the global mix controls. It is a pure data layer —
// validated on ingest, treated as read-only for the duration of a render.
package models

import (
	"fmt"
)

// Project is the persisted, read-only-during-render description of one
// output video.
type Project struct {
	ID               string             `json:"id" yaml:"id"`
	Videos           []VideoLayer       `json:"videos" yaml:"videos"`
	GenericSegments  []NarrationSegment `json:"generic_segments" yaml:"generic_segments"`
	BGMTracks        []BGMTrack         `json:"bgm_tracks" yaml:"bgm_tracks"`
	GlobalTTSVolume  float64            `json:"global_tts_volume" yaml:"global_tts_volume"`
	GlobalBGMVolume  float64            `json:"global_bgm_volume" yaml:"global_bgm_volume"`
}

// VideoLayer is one placement of a source video on the output timeline.
type VideoLayer struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Order: stack priority, lower = on top.
	Order int `json:"order" yaml:"order"`

	// TimelineStart/TimelineEnd are nil when unset; the compositor lays the
	// layer out sequentially by Order in that case.
	TimelineStart *float64 `json:"timeline_start,omitempty" yaml:"timeline_start,omitempty"`
	TimelineEnd   *float64 `json:"timeline_end,omitempty" yaml:"timeline_end,omitempty"`

	SourceStart float64 `json:"source_start" yaml:"source_start"`
	SourceEnd   float64 `json:"source_end" yaml:"source_end"`

	// Probed attributes, filled in by the toolchain adapter during the
	// compositor's layer-build stage.
	Width     int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int     `json:"height,omitempty" yaml:"height,omitempty"`
	FPS       float64 `json:"fps,omitempty" yaml:"fps,omitempty"`
	HasAudio  bool    `json:"has_audio,omitempty" yaml:"has_audio,omitempty"`
}

// SourceUsedDuration is source_end - source_start.
func (v VideoLayer) SourceUsedDuration() float64 {
	return v.SourceEnd - v.SourceStart
}

// TimelineDuration returns timeline_end - timeline_start, or
// SourceUsedDuration when either endpoint is unset (nil).
func (v VideoLayer) TimelineDuration() float64 {
	if v.TimelineStart == nil || v.TimelineEnd == nil {
		return v.SourceUsedDuration()
	}
	return *v.TimelineEnd - *v.TimelineStart
}

func (v VideoLayer) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("video layer: id is required")
	}
	if v.SourcePath == "" {
		return fmt.Errorf("video layer %s: source_path is required", v.ID)
	}
	if v.SourceStart < 0 || v.SourceStart >= v.SourceEnd {
		return fmt.Errorf("video layer %s: invalid source range [%.3f, %.3f)", v.ID, v.SourceStart, v.SourceEnd)
	}
	if v.TimelineStart != nil && v.TimelineEnd != nil && *v.TimelineEnd <= *v.TimelineStart {
		return fmt.Errorf("video layer %s: timeline_end must be after timeline_start", v.ID)
	}
	return nil
}

// SubtitleStyle carries the per-segment burn-in styling. Size/widths/
// margins are specified relative to the reference resolution (height 288)
// per the Subtitle Engine's resolution-scaling rule.
type SubtitleStyle struct {
	Font          string `json:"font" yaml:"font"`
	Size          int    `json:"size" yaml:"size"`
	PrimaryColor  string `json:"primary_color" yaml:"primary_color"`
	OutlineColor  string `json:"outline_color" yaml:"outline_color"`
	ShadowColor   string `json:"shadow_color" yaml:"shadow_color"`
	OutlineWidth  int    `json:"outline_width" yaml:"outline_width"`
	Shadow        int    `json:"shadow" yaml:"shadow"`
	BorderStyle   int    `json:"border_style" yaml:"border_style"`
	Position      int    `json:"position" yaml:"position"` // vertical margin
}

// NarrationSegment is a timed voice-over cue, either pinned to a video
// layer's local clock ("video-local") or placed absolutely on the
// timeline ("generic", VideoID == "").
type NarrationSegment struct {
	ID            string  `json:"id" yaml:"id"`
	VideoID       string  `json:"video_id,omitempty" yaml:"video_id,omitempty"`
	StartTime     float64 `json:"start_time" yaml:"start_time"`
	EndTime       float64 `json:"end_time" yaml:"end_time"`

	Text          string  `json:"text" yaml:"text"`
	Language      string  `json:"language" yaml:"language"`
	VoiceID       string  `json:"voice_id" yaml:"voice_id"`
	VoiceSampleID string  `json:"voice_sample_id,omitempty" yaml:"voice_sample_id,omitempty"`
	Rate          float64 `json:"rate" yaml:"rate"`
	Volume        float64 `json:"volume" yaml:"volume"`
	Pitch         float64 `json:"pitch" yaml:"pitch"`

	AudioPath    string `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`
	SubtitlePath string `json:"subtitle_path,omitempty" yaml:"subtitle_path,omitempty"`

	SubtitleEnabled bool          `json:"subtitle_enabled" yaml:"subtitle_enabled"`
	Style           SubtitleStyle `json:"style" yaml:"style"`

	ExtendsToNextVideo bool `json:"extends_to_next_video" yaml:"extends_to_next_video"`
}

// IsVideoLocal reports whether this segment's times are relative to a
// video layer's trimmed clock rather than absolute timeline positions.
func (n NarrationSegment) IsVideoLocal() bool {
	return n.VideoID != ""
}

func (n NarrationSegment) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("narration segment: id is required")
	}
	if n.StartTime < 0 {
		return fmt.Errorf("segment %s: start_time must be >= 0", n.ID)
	}
	if n.EndTime <= n.StartTime {
		return fmt.Errorf("segment %s: end_time must be after start_time", n.ID)
	}
	return nil
}

// BGMTrack is a background-music cue placed on the absolute timeline.
type BGMTrack struct {
	ID          string  `json:"id" yaml:"id"`
	Path        string  `json:"path" yaml:"path"`
	StartTime   float64 `json:"start_time" yaml:"start_time"`
	EndTime     float64 `json:"end_time" yaml:"end_time"` // 0 => until timeline end
	Volume      float64 `json:"volume" yaml:"volume"`     // percent, 0-200
	FadeIn      float64 `json:"fade_in" yaml:"fade_in"`
	FadeOut     float64 `json:"fade_out" yaml:"fade_out"`
	Loop        bool    `json:"loop" yaml:"loop"`
	Muted       bool    `json:"muted" yaml:"muted"`
	AudioOffset float64 `json:"audio_offset" yaml:"audio_offset"`
}

func (b BGMTrack) Validate() error {
	if b.Path == "" {
		return fmt.Errorf("bgm track %s: path is required", b.ID)
	}
	if b.EndTime > 0 && b.EndTime <= b.StartTime {
		return fmt.Errorf("bgm track %s: end_time must be after start_time when set", b.ID)
	}
	return nil
}

// Validate runs per-entity validation across the whole project. It does
// not check cross-references (e.g. a segment's VideoID existing among
// Videos), and neither does the Render Worker's validation; a segment
// naming an unknown video is dropped by the compositor with an
// "unknown_video" warning.
func (p Project) Validate() error {
	if len(p.Videos) == 0 {
		return fmt.Errorf("project %s: at least one video layer is required", p.ID)
	}
	for _, v := range p.Videos {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	for _, s := range p.GenericSegments {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for _, b := range p.BGMTracks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}
