// internal/store/store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	apperrors "pelviu-funnel/internal/common/errors"
	"pelviu-funnel/internal/common/logger"
	"pelviu-funnel/internal/models"
)

// DefaultSlotKey names the single slot that holds the whole collection.
const DefaultSlotKey = "pelviu_leads_db"

// Store is the lead record collection. Records are appended once, optionally
// patched, and only ever removed all at once.
type Store interface {
	// GetAll returns the collection in storage order. It never returns nil;
	// on failure the slice is empty and the error says why.
	GetAll(ctx context.Context) ([]models.LeadRecord, error)
	Append(ctx context.Context, record models.LeadRecord) error
	// Update merges patch into the record with the given id. It reports false
	// and leaves the collection untouched when no such record exists.
	Update(ctx context.Context, id string, patch models.LeadPatch) (bool, error)
	Clear(ctx context.Context) error
}

// Slot is one named blob in some backend. Read returns nil, nil for an empty slot.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
	Name() string
}

// SlotStore keeps the collection as one JSON array inside a Slot and
// rewrites it on every mutation. The mutex serializes read-modify-write
// cycles within the process; several processes sharing a slot can still
// lose updates.
type SlotStore struct {
	slot   Slot
	mu     sync.Mutex
	logger logger.Logger
}

func NewSlotStore(slot Slot, log logger.Logger) *SlotStore {
	return &SlotStore{
		slot:   slot,
		logger: logger.ForComponent(log, "store").WithFields(map[string]interface{}{"backend": slot.Name()}),
	}
}

func (s *SlotStore) GetAll(ctx context.Context) ([]models.LeadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *SlotStore) Append(ctx context.Context, record models.LeadRecord) error {
	if record.ID == "" {
		return apperrors.NewInvalidInputError("lead record id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)
	return s.save(ctx, records)
}

func (s *SlotStore) Update(ctx context.Context, id string, patch models.LeadPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}
		if patch.IsEmpty() {
			return true, nil
		}
		records[i] = patch.Apply(records[i])
		if err := s.save(ctx, records); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *SlotStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.Clear(ctx); err != nil {
		return apperrors.NewStorageUnavailableError("clear", err)
	}
	s.logger.Info("lead collection cleared", nil)
	return nil
}

// load reads and decodes the blob. A corrupt blob yields an empty
// collection so the next write replaces it.
func (s *SlotStore) load(ctx context.Context) ([]models.LeadRecord, error) {
	data, err := s.slot.Read(ctx)
	if err != nil {
		return []models.LeadRecord{}, apperrors.NewStorageUnavailableError("read", err)
	}
	if len(data) == 0 {
		return []models.LeadRecord{}, nil
	}

	var records []models.LeadRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("lead collection is corrupt, treating as empty", map[string]interface{}{
			"error": err,
			"bytes": len(data),
		})
		return []models.LeadRecord{}, nil
	}
	if records == nil {
		records = []models.LeadRecord{}
	}
	return records, nil
}

func (s *SlotStore) save(ctx context.Context, records []models.LeadRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode lead collection: %w", err)
	}
	if err := s.slot.Write(ctx, data); err != nil {
		return apperrors.NewStorageUnavailableError("write", err)
	}
	return nil
}
