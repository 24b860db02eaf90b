// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package devicesim

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/boomctl/internal/boombox"
	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/playlist"
)

// Store errors.
var (
	ErrPlaylistFull = errors.New("playlist is full")
	ErrNoSuchEntry  = errors.New("no such playlist entry")
)

// Store holds the station list. With a path, every mutation is written back
// as a PLS file before it is acknowledged.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries []playlist.Entry
	logger  zerolog.Logger
}

// NewMemoryStore returns a store that never touches disk.
func NewMemoryStore(entries ...playlist.Entry) *Store {
	s := &Store{logger: log.WithComponent("devicesim.store")}
	for _, e := range entries {
		if len(s.entries) == playlist.MaxEntries {
			break
		}
		s.entries = append(s.entries, clampEntry(e.Title, e.URL))
	}
	return s
}

// OpenStore loads path if it exists. A missing file is an empty playlist.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, logger: log.WithComponent("devicesim.store")}
	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := playlist.Parse(f)
	if err != nil {
		return nil, err
	}
	s.entries = entries
	s.logger.Info().
		Str(log.FieldEvent, "playlist.loaded").
		Str(log.FieldPath, path).
		Int(log.FieldStations, len(entries)).
		Msg("playlist loaded")
	return s, nil
}

// List returns the stations with positional indices.
func (s *Store) List() []boombox.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]boombox.Station, len(s.entries))
	for i, e := range s.entries {
		out[i] = boombox.Station{Index: i, Title: e.Title, URL: e.URL}
	}
	return out
}

// Len returns the number of stations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the entry at index.
func (s *Store) Get(index int) (playlist.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.entries) {
		return playlist.Entry{}, false
	}
	return s.entries[index], true
}

// Add appends a station.
func (s *Store) Add(title, url string) error {
	return s.mutate(func(entries []playlist.Entry) ([]playlist.Entry, error) {
		if len(entries) >= playlist.MaxEntries {
			return nil, ErrPlaylistFull
		}
		return append(entries, clampEntry(title, url)), nil
	})
}

// Delete removes the station at index.
func (s *Store) Delete(index int) error {
	return s.mutate(func(entries []playlist.Entry) ([]playlist.Entry, error) {
		if index < 0 || index >= len(entries) {
			return nil, ErrNoSuchEntry
		}
		return append(entries[:index], entries[index+1:]...), nil
	})
}

// Update replaces title and/or url. A nil pointer leaves the field alone.
func (s *Store) Update(index int, title, url *string) error {
	return s.mutate(func(entries []playlist.Entry) ([]playlist.Entry, error) {
		if index < 0 || index >= len(entries) {
			return nil, ErrNoSuchEntry
		}
		e := entries[index]
		if title != nil {
			e.Title = *title
		}
		if url != nil {
			e.URL = *url
		}
		entries[index] = clampEntry(e.Title, e.URL)
		return entries, nil
	})
}

// Move takes the station at from out of the list and reinserts it at to.
func (s *Store) Move(from, to int) error {
	return s.mutate(func(entries []playlist.Entry) ([]playlist.Entry, error) {
		n := len(entries)
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, ErrNoSuchEntry
		}
		e := entries[from]
		entries = append(entries[:from], entries[from+1:]...)
		entries = append(entries[:to], append([]playlist.Entry{e}, entries[to:]...)...)
		return entries, nil
	})
}

// mutate applies fn to a copy and commits it only if persisting succeeds.
func (s *Store) mutate(fn func([]playlist.Entry) ([]playlist.Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(append([]playlist.Entry(nil), s.entries...))
	if err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

func (s *Store) save(entries []playlist.Entry) error {
	if s.path == "" {
		return nil
	}

	pendingFile, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending playlist file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending playlist file")
		}
	}()

	if err := playlist.Write(pendingFile, entries); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace playlist: %w", err)
	}
	return nil
}

func clampEntry(title, url string) playlist.Entry {
	return playlist.Entry{
		Title: playlist.Clamp(norm.NFC.String(title), playlist.MaxTitle),
		URL:   playlist.Clamp(url, playlist.MaxURL),
	}
}
