package common

// PipelineError represents errors raised by the signal pipeline.
type PipelineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeShape            = "SHAPE_ERROR"
	ErrCodeNonFiniteValue   = "NON_FINITE_VALUE"
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrCodeNotCalibrated    = "NOT_CALIBRATED"
	ErrCodeFilterState      = "FILTER_STATE"
)

// NewPipelineError creates a new pipeline error
func NewPipelineError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewShapeError reports a window with the wrong channel count or zero length.
// Not recoverable for the offending window; the caller must resubmit.
func NewShapeError(message string) *PipelineError {
	return NewPipelineError(ErrCodeShape, message, nil)
}

// NewNonFiniteValueError reports NaN/Inf samples. The window is rejected
// rather than zeroed so that calibration baselines are never corrupted.
func NewNonFiniteValueError(message string) *PipelineError {
	return NewPipelineError(ErrCodeNonFiniteValue, message, nil)
}

// NewInsufficientDataError reports a buffer read before enough samples have
// accumulated. Retryable.
func NewInsufficientDataError(message string) *PipelineError {
	return NewPipelineError(ErrCodeInsufficientData, message, nil)
}

// NewNotCalibratedError reports normalization requested before a baseline
// was set.
func NewNotCalibratedError(message string) *PipelineError {
	return NewPipelineError(ErrCodeNotCalibrated, message, nil)
}

// NewFilterStateError reports an invalid filter configuration. Raised at
// construction time, never per-window.
func NewFilterStateError(message string, cause error) *PipelineError {
	return NewPipelineError(ErrCodeFilterState, message, cause)
}

// IsCode reports whether err is a PipelineError carrying the given code.
func IsCode(err error, code string) bool {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok {
			return pe.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
