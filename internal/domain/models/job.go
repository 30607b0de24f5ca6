package models

import "time"

// JobStatus is the lifecycle state of a render job (§4.7).
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ExportType selects whether the render worker renders one video layer
// ("single" with a video_id) or the whole project (§4.6).
type ExportType string

const (
	ExportTypeSingle   ExportType = "single"
	ExportTypeCombined ExportType = "combined"
	ExportTypeDefault  ExportType = "default"
)

// Quality selects the encoder preset table entry (§4.1, §12 quality preset table).
type Quality string

const (
	QualityLossless Quality = "lossless"
	QualityHigh     Quality = "high"
	QualityBalanced Quality = "balanced"
)

// RenderConfig is the per-export configuration a client supplies alongside
// a project name, matching the POST /export/start shape (§6).
type RenderConfig struct {
	Quality             Quality `json:"quality"`
	IncludeSubtitles    bool    `json:"include_subtitles"`
	BackgroundMusicPath string  `json:"background_music_path,omitempty"`
	OutputFilename      string  `json:"output_filename,omitempty"`
	OutputPath          string  `json:"output_path,omitempty"`
}

// RenderRequest is the full submission accepted by the orchestrator.
type RenderRequest struct {
	ProjectName string     `json:"project_name"`
	ExportType  ExportType `json:"export_type"`
	VideoID     string     `json:"video_id,omitempty"`
	Config      RenderConfig `json:"config"`
	UserTier    string     `json:"user_tier,omitempty"`
}

// Job is the orchestrator's per-render bookkeeping record. A copy is
// handed to callers so the live instance (guarded by the orchestrator's
// per-job mutex) is never mutated from the outside.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Stage       string       `json:"stage,omitempty"`
	Progress    int          `json:"progress"`
	Request     RenderRequest `json:"request"`
	OutputPath  string       `json:"output_path,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ProgressEvent is one line of the render worker's stdout protocol (§4.6).
type ProgressEvent struct {
	Type            string  `json:"type"` // "progress" | "error"
	Stage           string  `json:"stage,omitempty"`
	Message         string  `json:"message,omitempty"`
	Progress        int     `json:"progress,omitempty"`
	CurrentStep     int     `json:"current_step,omitempty"`
	TotalSteps      int     `json:"total_steps,omitempty"`
	Detail          string  `json:"detail,omitempty"`
	ETASeconds      float64 `json:"eta_seconds,omitempty"`
	ETAFormatted    string  `json:"eta_formatted,omitempty"`
	ProcessingSpeed float64 `json:"processing_speed,omitempty"`
	FFmpegProgress  float64 `json:"ffmpeg_progress,omitempty"`
}
