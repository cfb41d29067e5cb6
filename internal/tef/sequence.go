package tef

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hance08/tefpos/internal/constants"
	"go.uber.org/zap"
)

// Sequencer hands out request identifiers for the 001-000 field.
type Sequencer interface {
	Next() string
}

// FileSequence is a persisted counter for request identifiers. Every request
// sent to the engine, including confirms and cancels, consumes one id.
//
// Policy: the counter is incremented first and the incremented value is both
// persisted and returned, so the file always holds the last id actually
// emitted and a restart continues from last+1.
type FileSequence struct {
	mu       sync.Mutex
	path     string
	last     uint64
	loaded   bool
	degraded bool
	log      *zap.Logger
}

func NewFileSequence(path string, log *zap.Logger) *FileSequence {
	return &FileSequence{path: path, log: log}
}

// Next returns the next 10-digit zero-padded identifier. Two concurrent
// callers never observe the same value: load, increment and persist happen
// under one lock. A failed persist degrades to an in-memory counter instead
// of failing the transaction.
func (s *FileSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.last = s.load()
		s.loaded = true
	}

	s.last++
	if s.last >= 1e10 {
		s.last = 1
	}

	if !s.degraded {
		if err := s.persist(s.last); err != nil {
			s.degraded = true
			s.log.Warn("sequence persist failed, continuing with in-memory counter",
				zap.String("path", s.path),
				zap.Error(err))
		}
	}

	return fmt.Sprintf("%0*d", constants.RequestIDDigits, s.last)
}

func (s *FileSequence) load() uint64 {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("could not read sequence file, starting from zero",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return 0
	}

	last, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		s.log.Warn("sequence file is corrupt, starting from zero",
			zap.String("path", s.path),
			zap.Error(err))
		return 0
	}

	return last
}

// persist writes the counter through a temp file and a rename, the same
// discipline the request writer uses, so a crash mid-write never leaves a
// half-written counter behind.
func (s *FileSequence) persist(value uint64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create sequence directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(value, 10)), 0644); err != nil {
		return fmt.Errorf("failed to write sequence temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace sequence file: %w", err)
	}

	return nil
}
