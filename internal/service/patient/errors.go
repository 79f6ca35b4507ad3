package patient

import "errors"

var ErrPatientNotFound = errors.New("patient not found")

// DuplicateFieldError reports a uniqueness-constraint collision on email or
// phone number. No field-level distinction is made; one consistent message is
// surfaced to the caller.
type DuplicateFieldError struct {
	Message string
}

func (e *DuplicateFieldError) Error() string { return e.Message }

const duplicateMessage = "a patient with this email or phone number already exists"
