// Package errors defines the tagged error kinds the render core surfaces.
// The pipeline never swallows an error silently; every fatal error carries
// a Kind a caller can switch on instead of a Go type hierarchy.
package errors

import "fmt"

// Kind tags a RenderError with one of the error kinds from the error
// handling design (§7). Callers switch on Kind, not on the concrete type.
type Kind string

const (
	KindInvalidInput           Kind = "INVALID_INPUT"
	KindToolchainFailure       Kind = "TOOLCHAIN_FAILURE"
	KindTimeout                Kind = "TIMEOUT"
	KindMissingInput           Kind = "MISSING_INPUT"
	KindStreamCopyConcatFailed Kind = "STREAM_COPY_CONCAT_FAILED"
	KindWatermarkRequired      Kind = "WATERMARK_REQUIRED"
	KindBusy                   Kind = "BUSY"
	KindCancelled              Kind = "CANCELLED"
	KindInternal               Kind = "INTERNAL_ERROR"
	KindJobNotFound            Kind = "JOB_NOT_FOUND"
)

// RenderError is the error shape returned by every stage of the render
// core. Details carries structured context for logging/progress payloads
// and is never required for control flow.
type RenderError struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *RenderError) Error() string {
	return e.Message
}

func New(kind Kind, message string, details map[string]interface{}) *RenderError {
	return &RenderError{Kind: kind, Message: message, Details: details}
}

// KindOf extracts the Kind from err if it is a *RenderError, defaulting to
// KindInternal for anything else.
func KindOf(err error) Kind {
	if re, ok := err.(*RenderError); ok {
		return re.Kind
	}
	return KindInternal
}

func InvalidInput(message string) *RenderError {
	return New(KindInvalidInput, message, nil)
}

func ToolchainFailure(err error, stderrTail string) *RenderError {
	return New(KindToolchainFailure,
		fmt.Sprintf("toolchain invocation failed: %v", err),
		map[string]interface{}{"stderr_tail": stderrTail})
}

func Timeout(stage string, timeout string) *RenderError {
	return New(KindTimeout,
		fmt.Sprintf("stage %s timed out after %s", stage, timeout),
		map[string]interface{}{"stage": stage, "timeout": timeout})
}

func MissingInput(what, path string) *RenderError {
	return New(KindMissingInput,
		fmt.Sprintf("%s not found: %s", what, path),
		map[string]interface{}{"path": path})
}

func StreamCopyConcatFailed(err error) *RenderError {
	return New(KindStreamCopyConcatFailed,
		fmt.Sprintf("stream-copy concat failed: %v", err),
		nil)
}

func WatermarkRequired(err error) *RenderError {
	return New(KindWatermarkRequired,
		fmt.Sprintf("watermark stage failed for a tier that requires it: %v", err),
		nil)
}

func Busy(resource string) *RenderError {
	return New(KindBusy,
		fmt.Sprintf("%s is locked by another writer", resource),
		map[string]interface{}{"resource": resource})
}

func Cancelled() *RenderError {
	return New(KindCancelled, "Cancelled by user", nil)
}

func InternalError(err error) *RenderError {
	return New(KindInternal, fmt.Sprintf("internal error: %v", err), nil)
}

func JobNotFound(jobID string) *RenderError {
	return New(KindJobNotFound,
		fmt.Sprintf("job not found: %s", jobID),
		map[string]interface{}{"job_id": jobID})
}
