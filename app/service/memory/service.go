// Package memory is the long-term fact store: user-scoped facts persisted in
// a single JSON file, rewritten in full on every mutation.
package memory

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"viki/app/config"

	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

type Service struct {
	filePath string
	clock    func() time.Time
	mu       sync.RWMutex
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithPath(cfg.Memory.FilePath)
}

func NewWithPath(filePath string) (*Service, error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.Code("PERSISTENCE_ERROR").Errorf("failed to create memory dir: %w", err)
		}
	}

	return &Service{
		filePath: filePath,
		clock:    time.Now,
	}, nil
}

func (s *Service) load() (memoryFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read()
}

// read expects the caller to hold the lock.
func (s *Service) read() (memoryFile, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return memoryFile{}, nil
	}
	if err != nil {
		return nil, oops.Code("PERSISTENCE_ERROR").Errorf("failed to read memory file: %w", err)
	}

	if len(data) == 0 {
		return memoryFile{}, nil
	}

	var memory memoryFile
	if err = json.Unmarshal(data, &memory); err != nil {
		slog.Error("Memory file is corrupt, starting from empty memory",
			"file", s.filePath,
			"error", err,
		)
		return memoryFile{}, nil
	}

	return memory, nil
}

// write expects the caller to hold the write lock.
func (s *Service) write(memory memoryFile) error {
	data, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return oops.Code("PERSISTENCE_ERROR").Errorf("failed to marshal memory: %w", err)
	}

	if err = os.WriteFile(s.filePath, data, 0644); err != nil {
		return oops.Code("PERSISTENCE_ERROR").Errorf("failed to write memory file: %w", err)
	}

	return nil
}

// StoreFact persists a new fact for a user and returns its id. Metadata
// (fact id, user id, timestamp, retention policy) is injected first so
// caller data may override it.
func (s *Service) StoreFact(userID uuid.UUID, factData Fact, retentionPolicy string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, err := s.read()
	if err != nil {
		return uuid.Nil, err
	}

	if retentionPolicy == "" {
		retentionPolicy = defaultRetentionPolicy
	}

	factID := uuid.New()

	stored := Fact{
		keyFactID:    factID.String(),
		keyUserID:    userID.String(),
		keyTimestamp: s.clock().UTC().Format(time.RFC3339),
		keyRetention: retentionPolicy,
	}
	for key, value := range factData {
		stored[key] = value
	}

	userKey := userID.String()
	if memory[userKey] == nil {
		memory[userKey] = map[string]Fact{}
	}
	memory[userKey][factID.String()] = stored

	if err = s.write(memory); err != nil {
		return uuid.Nil, err
	}

	slog.Info("Fact stored", "fact_id", factID, "user_id", userID)

	return factID, nil
}

// RetrieveFacts returns facts, optionally filtered by user, matching every
// key/value pair in criteria, up to limit (0 means unlimited).
func (s *Service) RetrieveFacts(userID *uuid.UUID, criteria Fact, limit int) ([]Fact, error) {
	memory, err := s.load()
	if err != nil {
		return nil, err
	}

	var userKeys []string
	if userID != nil {
		userKeys = []string{userID.String()}
	} else {
		for key := range memory {
			userKeys = append(userKeys, key)
		}
	}

	found := make([]Fact, 0)

outer:
	for _, userKey := range userKeys {
		for _, fact := range memory[userKey] {
			if !matches(fact, criteria) {
				continue
			}

			found = append(found, fact)

			if limit > 0 && len(found) >= limit {
				break outer
			}
		}
	}

	slog.Debug("Facts retrieved", "count", len(found))

	return found, nil
}

// UpdateFact merges updates into an existing fact, keeping untouched fields.
func (s *Service) UpdateFact(factID uuid.UUID, updates Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, err := s.read()
	if err != nil {
		return err
	}

	factKey := factID.String()
	for _, facts := range memory {
		if fact, ok := facts[factKey]; ok {
			for key, value := range updates {
				fact[key] = value
			}

			if err = s.write(memory); err != nil {
				return err
			}

			slog.Info("Fact updated", "fact_id", factID)
			return nil
		}
	}

	return oops.Code("NOT_FOUND").Errorf("fact with ID '%s' not found", factKey)
}

// DeleteFact removes a fact, dropping the user bucket when it empties.
func (s *Service) DeleteFact(factID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	memory, err := s.read()
	if err != nil {
		return err
	}

	factKey := factID.String()
	for userKey, facts := range memory {
		if _, ok := facts[factKey]; !ok {
			continue
		}

		delete(facts, factKey)
		if len(facts) == 0 {
			delete(memory, userKey)
		}

		if err = s.write(memory); err != nil {
			return err
		}

		slog.Info("Fact deleted", "fact_id", factID)
		return nil
	}

	return oops.Code("NOT_FOUND").Errorf("fact with ID '%s' not found", factKey)
}

func matches(fact, criteria Fact) bool {
	for key, want := range criteria {
		got, ok := fact[key]
		if !ok || got != want {
			return false
		}
	}

	return true
}
