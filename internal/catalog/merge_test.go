package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"medadmin/m/domain"
)

func TestMergeField(t *testing.T) {
	assert.Equal(t, "new", MergeField("new", "old"))
	assert.Equal(t, "old", MergeField("", "old"))
	assert.Equal(t, "old", MergeField("  ", "old"))
	assert.Equal(t, "", MergeField("", ""))
}

func TestMerge_KeepsOwnerAndRecomputesLowercase(t *testing.T) {
	existing := domain.Medicine{
		ID:          "rec-1",
		OwnerID:     "owner-a",
		Name:        "Napa",
		Brand:       "Beximco",
		Description: "Fever",
		Company:     "Beximco Pharma",
		Image:       "https://img/napa.png",
	}
	existing.Normalize()

	got := Merge(existing, Form{EditID: "rec-1", Name: "Napa Extra", Company: ""}, "")

	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "owner-a", got.OwnerID)
	assert.Equal(t, "Napa Extra", got.Name)
	assert.Equal(t, "napa extra", got.NameLowercase)
	assert.Equal(t, "Beximco", got.Brand)
	assert.Equal(t, "beximco", got.BrandLowercase)
	assert.Equal(t, "Fever", got.Description)
	assert.Equal(t, "Beximco Pharma", got.Company)
	assert.Equal(t, "https://img/napa.png", got.Image)

	withImage := Merge(existing, Form{}, "https://img/new.png")
	assert.Equal(t, "https://img/new.png", withImage.Image)
}

func TestMerge_EmptyNameKeepsExisting(t *testing.T) {
	existing := domain.Medicine{ID: "rec-1", OwnerID: "owner-a", Name: "X", Brand: "Y"}

	got := Merge(existing, Form{Name: "", Brand: "Z"}, "")

	assert.Equal(t, "X", got.Name)
	assert.Equal(t, "x", got.NameLowercase)
	assert.Equal(t, "Z", got.Brand)
	assert.Equal(t, "z", got.BrandLowercase)
	assert.Equal(t, "owner-a", got.OwnerID)
}

func TestNewRecord(t *testing.T) {
	got := NewRecord("owner-a", Form{Name: " Seclo ", Brand: "Square", Description: "Omeprazole"}, "")

	assert.Equal(t, "owner-a", got.OwnerID)
	assert.Equal(t, "Seclo", got.Name)
	assert.Equal(t, "seclo", got.NameLowercase)
	assert.Equal(t, "square", got.BrandLowercase)
	assert.Empty(t, got.Image)
	assert.Empty(t, got.ID)
}

func TestForm_Validate(t *testing.T) {
	assert.NoError(t, Form{Name: "A", Description: "B"}.Validate())
	assert.ErrorIs(t, Form{Name: " ", Description: "B"}.Validate(), ErrValidation)
	assert.ErrorIs(t, Form{Name: "A"}.Validate(), ErrValidation)
}
