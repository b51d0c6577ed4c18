package generator

import (
	"errors"
	"strings"
)

var (
	// ErrTemplateNotFound is returned for a template name with no embedded file.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrRenderFailed matches every RenderError.
	ErrRenderFailed = errors.New("render failed")
)

// RenderError reports a template that failed to execute for a file.
type RenderError struct {
	Template string
	File     string
	Cause    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	var b strings.Builder
	b.WriteString("render")
	if e.Template != "" {
		b.WriteString(" template ")
		b.WriteString(e.Template)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrRenderFailed.
func (e *RenderError) Is(target error) bool {
	return target == ErrRenderFailed
}
