package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures. Recoverable kinds are absorbed
// by the orchestrator (the job continues with reduced output); fatal kinds
// abort the job and surface to the caller.
type ErrorKind string

const (
	// ErrInputInvalid: empty or missing topic. Fatal, rejected before a job starts.
	ErrInputInvalid ErrorKind = "input_invalid"
	// ErrScriptGenerationFailed: script source failed on both attempts. Fatal.
	ErrScriptGenerationFailed ErrorKind = "script_generation_failed"
	// ErrSceneAudioUnavailable: TTS failed after retry. Recoverable, scene
	// proceeds without narration audio.
	ErrSceneAudioUnavailable ErrorKind = "scene_audio_unavailable"
	// ErrSceneVideoUnavailable: video generation failed or timed out.
	// Recoverable, scene dropped from assembly.
	ErrSceneVideoUnavailable ErrorKind = "scene_video_unavailable"
	// ErrAssemblyFailed: no surviving scenes, missing ffmpeg, or an
	// undecodable clip. Fatal, never retried.
	ErrAssemblyFailed ErrorKind = "assembly_failed"
	// ErrExternalService: transport/auth failure from a third-party API.
	// Mapped to one of the kinds above depending on the stage it hit.
	ErrExternalService ErrorKind = "external_service_error"
)

// Error is a pipeline failure tagged with its kind.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a tagged pipeline error wrapping cause (which may be nil).
func NewError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the error kind from err, or ErrExternalService when err
// carries no tag.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrExternalService
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
