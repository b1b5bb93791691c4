// Package rendering renders tailored resumes to PDF artifacts in batches,
// reusing one headless browser instance per batch.
package rendering

import "fmt"

// EngineError represents a failure of the shared rendering engine itself
// (startup, teardown), as opposed to a single document failing to render.
type EngineError struct {
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("engine error: %s", e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// TemplateError represents an error parsing or executing the resume template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a single document failing to render
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
