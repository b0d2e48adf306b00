package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"medadmin/m/domain"
	"medadmin/m/internal/catalog"
)

// Columns recognised in a catalog CSV header. Unknown columns are ignored.
var columns = map[string]func(f *catalog.Form, v string){
	"name":              func(f *catalog.Form, v string) { f.Name = v },
	"brand":             func(f *catalog.Form, v string) { f.Brand = v },
	"description":       func(f *catalog.Form, v string) { f.Description = v },
	"composition":       func(f *catalog.Form, v string) { f.Composition = v },
	"dose_indication":   func(f *catalog.Form, v string) { f.DoseIndication = v },
	"company":           func(f *catalog.Form, v string) { f.Company = v },
	"contraindications": func(f *catalog.Form, v string) { f.Contraindications = v },
}

// Result counts what a load did.
type Result struct {
	Created int
	Skipped int
}

// RecordWriter is the part of the record store a load needs. CreateAll must
// write every record or none.
type RecordWriter interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Medicine, error)
	CreateAll(ctx context.Context, records []domain.Medicine) ([]string, error)
}

// LoadMedicines imports the CSV at csvPath as records owned by ownerID.
func LoadMedicines(ctx context.Context, store RecordWriter, ownerID, csvPath string) (Result, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return Result{}, fmt.Errorf("unable to load medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()

	return ReadMedicines(ctx, store, ownerID, file)
}

func recordKey(nameLower, brandLower string) string {
	return nameLower + "\x00" + brandLower
}

// ReadMedicines imports CSV rows from r in one write. Rows without a name or
// description are skipped, as the panel would reject them, and so are rows
// whose name and brand the owner already has. Loading the same file twice
// creates nothing the second time.
func ReadMedicines(ctx context.Context, store RecordWriter, ownerID string, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("unable to read medicine header: %w", err)
	}
	setters := make([]func(*catalog.Form, string), len(header))
	imageCol := -1
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "image" {
			imageCol = i
			continue
		}
		setters[i] = columns[key]
	}

	existing, err := store.ListByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, fmt.Errorf("unable to list existing medicines: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[recordKey(m.NameLowercase, m.BrandLowercase)] = struct{}{}
	}

	var (
		res     Result
		pending []domain.Medicine
	)
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("unable to read medicine row")
			res.Skipped++
			continue
		}

		var form catalog.Form
		for i, value := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&form, strings.TrimSpace(value))
			}
		}
		if err := form.Validate(); err != nil {
			res.Skipped++
			continue
		}
		image := ""
		if imageCol >= 0 && imageCol < len(row) {
			image = strings.TrimSpace(row[imageCol])
		}

		record := catalog.NewRecord(ownerID, form, image)
		key := recordKey(record.NameLowercase, record.BrandLowercase)
		if _, dup := seen[key]; dup {
			log.Debug().Int("line", line).Str("name", record.Name).Msg("medicine already present")
			res.Skipped++
			continue
		}
		seen[key] = struct{}{}
		pending = append(pending, record)
	}

	if len(pending) > 0 {
		if _, err := store.CreateAll(ctx, pending); err != nil {
			return Result{Skipped: res.Skipped}, fmt.Errorf("unable to insert medicines: %w", err)
		}
	}
	res.Created = len(pending)

	log.Info().Int("created", res.Created).Int("skipped", res.Skipped).Str("owner_id", ownerID).Msg("seeded medicine catalog")
	return res, nil
}
