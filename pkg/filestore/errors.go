package filestore

import "fmt"

type ErrTooLarge struct{ Max int64 }

func (e ErrTooLarge) Error() string {
	return fmt.Sprintf("file exceeds maximum size of %d bytes", e.Max)
}

type ErrInvalidType struct{ Mime string }

func (e ErrInvalidType) Error() string {
	return fmt.Sprintf("invalid file type %q, only images are allowed", e.Mime)
}
