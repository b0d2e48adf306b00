package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"medadmin/m/domain"
	"medadmin/m/internal/imagehost"
)

// Service is the record form controller: it validates submissions, uploads
// images and writes owner-scoped records.
type Service struct {
	store    Store
	uploader imagehost.Uploader

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewService(store Store, uploader imagehost.Uploader) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		inFlight: make(map[string]struct{}),
	}
}

func (s *Service) acquire(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[ownerID]; busy {
		return false
	}
	s.inFlight[ownerID] = struct{}{}
	return true
}

func (s *Service) release(ownerID string) {
	s.mu.Lock()
	delete(s.inFlight, ownerID)
	s.mu.Unlock()
}

// Submit adds a record, or merges f over the record named by f.EditID. The
// image is uploaded before anything is written; a failed upload leaves the
// store untouched.
func (s *Service) Submit(ctx context.Context, sess domain.Session, f Form, image *imagehost.File) (domain.Medicine, error) {
	owner := sess.UserID
	if !s.acquire(owner) {
		return domain.Medicine{}, ErrBusy
	}
	defer s.release(owner)

	if err := f.Validate(); err != nil {
		return domain.Medicine{}, err
	}

	var existing domain.Medicine
	if f.Editing() {
		var err error
		existing, err = s.owned(ctx, owner, f.EditID)
		if err != nil {
			return domain.Medicine{}, err
		}
	}

	imageURL := ""
	if image != nil {
		url, err := s.uploader.Upload(ctx, *image)
		if err != nil {
			log.Error().Err(err).Str("owner_id", owner).Str("file", image.Name).Msg("image upload failed")
			return domain.Medicine{}, fmt.Errorf("%w: %w", ErrUpload, err)
		}
		imageURL = url
	}

	if f.Editing() {
		merged := Merge(existing, f, imageURL)
		if err := s.store.Update(ctx, merged); err != nil {
			log.Error().Err(err).Str("owner_id", owner).Str("record_id", merged.ID).Msg("update medicine failed")
			return domain.Medicine{}, fmt.Errorf("%w: %w", ErrStore, err)
		}
		log.Info().Str("owner_id", owner).Str("record_id", merged.ID).Msg("medicine updated")
		return merged, nil
	}

	record := NewRecord(owner, f, imageURL)
	id, err := s.store.Create(ctx, record)
	if err != nil {
		log.Error().Err(err).Str("owner_id", owner).Msg("create medicine failed")
		return domain.Medicine{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	record.ID = id
	log.Info().Str("owner_id", owner).Str("record_id", id).Msg("medicine created")
	return record, nil
}

// Edit loads the record as a form ready for editing.
func (s *Service) Edit(ctx context.Context, sess domain.Session, id string) (Form, error) {
	m, err := s.owned(ctx, sess.UserID, id)
	if err != nil {
		return Form{}, err
	}
	return FormFromRecord(m), nil
}

// List returns the records owned by the session's admin.
func (s *Service) List(ctx context.Context, sess domain.Session) ([]domain.Medicine, error) {
	records, err := s.store.ListByOwner(ctx, sess.UserID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", sess.UserID).Msg("list medicines failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return records, nil
}

// Get returns one owned record.
func (s *Service) Get(ctx context.Context, sess domain.Session, id string) (domain.Medicine, error) {
	return s.owned(ctx, sess.UserID, id)
}

// Delete removes an owned record. There is no undo.
func (s *Service) Delete(ctx context.Context, sess domain.Session, id string) error {
	if _, err := s.owned(ctx, sess.UserID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		log.Error().Err(err).Str("owner_id", sess.UserID).Str("record_id", id).Msg("delete medicine failed")
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	log.Info().Str("owner_id", sess.UserID).Str("record_id", id).Msg("medicine deleted")
	return nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) (domain.Medicine, error) {
	m, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return domain.Medicine{}, err
	}
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if m.OwnerID != ownerID {
		log.Warn().Str("owner_id", ownerID).Str("record_id", id).Msg("access to foreign medicine refused")
		return domain.Medicine{}, ErrForbidden
	}
	return m, nil
}
