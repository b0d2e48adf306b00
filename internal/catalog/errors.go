package catalog

import "errors"

var (
	ErrValidation = errors.New("name and description are required")
	ErrUpload     = errors.New("image upload failed")
	ErrStore      = errors.New("save failed")
	ErrNotFound   = errors.New("medicine not found")
	ErrForbidden  = errors.New("medicine belongs to another admin")
	ErrBusy       = errors.New("a submission is already in progress")
)

// Notice maps a service error to the transient message shown in the panel.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Name and description are required"
	case errors.Is(err, ErrUpload):
		return "Image upload failed"
	case errors.Is(err, ErrBusy):
		return "Please wait for the current submission to finish"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return "Medicine not found"
	default:
		return "Something went wrong, please try again"
	}
}
