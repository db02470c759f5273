package main

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by the engine and the REST façade.
// Call sites wrap these with fmt.Errorf("%w: ...") and callers test with errors.Is.
var (
	// ErrTransport is a connection or IO failure towards the device
	ErrTransport = errors.New("device transport error")
	// ErrCommandNotFound means a key path does not resolve to a usable command
	ErrCommandNotFound = errors.New("device command not found")
	// ErrCommandTable means the command table source is malformed
	ErrCommandTable = errors.New("invalid device command table")
	// ErrUnknownBand is returned for bands outside the supported set
	ErrUnknownBand = errors.New("unknown wifi band")
	// ErrStatusChangeTimeout means the device did not converge to the requested state
	ErrStatusChangeTimeout = errors.New("wifi status change timed out")
	// ErrPredictorLoad is a fatal startup failure loading the RTT model
	ErrPredictorLoad = errors.New("rtt predictor model load failed")
	// ErrInvalidClassificationInput means counter arrays reaching the orchestrator are malformed
	ErrInvalidClassificationInput = errors.New("invalid counters for rtt classification")
	// ErrCounterExtraction means a command output lacked a declared counter field
	ErrCounterExtraction = errors.New("counter extraction failed")
	// ErrConfig is a fatal configuration defect
	ErrConfig = errors.New("invalid configuration")
)

// transportError wraps a low level cause as ErrTransport
func transportError(op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrTransport, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransport, op, cause)
}

// httpStatusForError maps the error taxonomy to an HTTP status code and a client message
func httpStatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnknownBand):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrStatusChangeTimeout):
		return http.StatusInternalServerError, ErrMsgStatusTimeout
	case errors.Is(err, ErrCommandNotFound), errors.Is(err, ErrCommandTable):
		return http.StatusInternalServerError, ErrMsgCommandNotFound
	case errors.Is(err, ErrTransport):
		return http.StatusInternalServerError, ErrMsgDeviceError
	default:
		return http.StatusInternalServerError, ErrMsgUnexpected
	}
}
