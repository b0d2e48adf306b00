package domain

import "strings"

// Medicine is one catalog entry. JSON names are the document field names
// used by the record collection.
type Medicine struct {
	ID                string `json:"-"`
	OwnerID           string `json:"ownerId"`
	Name              string `json:"name"`
	NameLowercase     string `json:"name_lowercase"`
	Brand             string `json:"Brand"`
	BrandLowercase    string `json:"medicine_brand_lowercase"`
	Description       string `json:"description"`
	Composition       string `json:"Composition"`
	DoseIndication    string `json:"Dose_Indication"`
	Company           string `json:"Company"`
	Contraindications string `json:"Contraindications"`
	Image             string `json:"image"`
}

// Normalize recomputes the lowercase lookup fields from Name and Brand.
func (m *Medicine) Normalize() {
	m.NameLowercase = strings.ToLower(m.Name)
	m.BrandLowercase = strings.ToLower(m.Brand)
}
