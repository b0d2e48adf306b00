package catalog

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"medadmin/m/domain"
)

// Form is what the admin submitted. EditID is empty when adding a record.
type Form struct {
	EditID            string
	Name              string
	Brand             string
	Description       string
	Composition       string
	DoseIndication    string
	Company           string
	Contraindications string
}

// Validate requires name and description once surrounding space is dropped.
func (f Form) Validate() error {
	trimmed := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}{strings.TrimSpace(f.Name), strings.TrimSpace(f.Description)}
	err := validation.ValidateStruct(&trimmed,
		validation.Field(&trimmed.Name, validation.Required.Error("name is required")),
		validation.Field(&trimmed.Description, validation.Required.Error("description is required")),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Editing reports whether the form targets an existing record.
func (f Form) Editing() bool {
	return f.EditID != ""
}

// FormFromRecord fills a form for editing m. The image input is left to the admin.
func FormFromRecord(m domain.Medicine) Form {
	return Form{
		EditID:            m.ID,
		Name:              m.Name,
		Brand:             m.Brand,
		Description:       m.Description,
		Composition:       m.Composition,
		DoseIndication:    m.DoseIndication,
		Company:           m.Company,
		Contraindications: m.Contraindications,
	}
}
