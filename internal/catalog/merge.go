package catalog

import (
	"strings"

	"medadmin/m/domain"
)

// MergeField is the edit overwrite policy: a submitted value replaces the
// stored one only when it is non-empty, so an edit can never blank a field.
func MergeField(submitted, existing string) string {
	if strings.TrimSpace(submitted) != "" {
		return submitted
	}
	return existing
}

// Merge applies f over existing. image replaces the stored URL only when a new
// file was uploaded. The owner and id always come from existing.
func Merge(existing domain.Medicine, f Form, image string) domain.Medicine {
	merged := domain.Medicine{
		ID:                existing.ID,
		OwnerID:           existing.OwnerID,
		Name:              MergeField(strings.TrimSpace(f.Name), existing.Name),
		Brand:             MergeField(f.Brand, existing.Brand),
		Description:       MergeField(strings.TrimSpace(f.Description), existing.Description),
		Composition:       MergeField(f.Composition, existing.Composition),
		DoseIndication:    MergeField(f.DoseIndication, existing.DoseIndication),
		Company:           MergeField(f.Company, existing.Company),
		Contraindications: MergeField(f.Contraindications, existing.Contraindications),
		Image:             MergeField(image, existing.Image),
	}
	merged.Normalize()
	return merged
}

// NewRecord builds the record written when adding. Every submitted field is
// kept as entered, image is empty unless a file was uploaded.
func NewRecord(ownerID string, f Form, image string) domain.Medicine {
	m := domain.Medicine{
		OwnerID:           ownerID,
		Name:              strings.TrimSpace(f.Name),
		Brand:             f.Brand,
		Description:       strings.TrimSpace(f.Description),
		Composition:       f.Composition,
		DoseIndication:    f.DoseIndication,
		Company:           f.Company,
		Contraindications: f.Contraindications,
		Image:             image,
	}
	m.Normalize()
	return m
}
