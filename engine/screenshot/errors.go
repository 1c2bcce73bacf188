package screenshot

import (
	"errors"
	"fmt"
)

// ErrInvalidSize reports a capture request whose dimensions did not resolve
// to positive integers. No renderer or scene state is mutated when this is
// returned.
var ErrInvalidSize = errors.New("screenshot: invalid capture size")

// ErrReadyTimeout reports that the offscreen surface, camera, or a
// post-process shader did not become ready within the configured readiness
// timeout. Engine state is restored before this is surfaced.
var ErrReadyTimeout = errors.New("screenshot: readiness wait timed out")

// RenderError wraps a failure raised during the capture's single render
// pass. Scene and renderer state are restored before the error is surfaced.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("screenshot: render pass failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ReadbackError wraps a failure during pixel extraction or encoding. The
// offscreen surface is disposed before the error is surfaced.
type ReadbackError struct {
	Err error
}

func (e *ReadbackError) Error() string {
	return fmt.Sprintf("screenshot: pixel readback failed: %v", e.Err)
}

func (e *ReadbackError) Unwrap() error {
	return e.Err
}
