package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mangareader/internal/apperr"
)

// Export bundles library, preferences, history and bookmarks.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	bookmarks, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		Library:     &lib,
		Preferences: &prefs,
		History:     history,
		Bookmarks:   bookmarks,
		ExportedAt:  s.now().UTC(),
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return raw, nil
}

type importDoc struct {
	Library     json.RawMessage `json:"library"`
	Preferences json.RawMessage `json:"preferences"`
	History     json.RawMessage `json:"history"`
	Bookmarks   json.RawMessage `json:"bookmarks"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Import overwrites the sections present in data and leaves the others alone.
// Every section is decoded before anything is written, so malformed input
// changes nothing. The payload must be a JSON object.
func (s *Store) Import(ctx context.Context, data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return apperr.Parse(errors.New("import payload must be a JSON object"))
	}
	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.Parse(err)
	}

	var (
		lib       UserLibrary
		prefs     Preferences
		history   []HistoryItem
		bookmarks []Bookmark
	)
	if present(doc.Library) {
		if err := json.Unmarshal(doc.Library, &lib); err != nil {
			return apperr.Parse(fmt.Errorf("library: %w", err))
		}
		lib.UserID = s.userID
		if lib.Mangas == nil {
			lib.Mangas = []SavedManga{}
		}
	}
	if present(doc.Preferences) {
		prefs = DefaultPreferences()
		if err := json.Unmarshal(doc.Preferences, &prefs); err != nil {
			return apperr.Parse(fmt.Errorf("preferences: %w", err))
		}
		if err := validatePreferences(prefs); err != nil {
			return apperr.Parse(fmt.Errorf("preferences: %w", err))
		}
	}
	if present(doc.History) {
		if err := json.Unmarshal(doc.History, &history); err != nil {
			return apperr.Parse(fmt.Errorf("history: %w", err))
		}
		if len(history) > HistoryLimit {
			history = history[:HistoryLimit]
		}
	}
	if present(doc.Bookmarks) {
		if err := json.Unmarshal(doc.Bookmarks, &bookmarks); err != nil {
			return apperr.Parse(fmt.Errorf("bookmarks: %w", err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if present(doc.Library) {
		if err := s.save(ctx, libraryKey(s.userID), lib); err != nil {
			return err
		}
	}
	if present(doc.Preferences) {
		if err := s.save(ctx, prefsKey(s.userID), prefs); err != nil {
			return err
		}
	}
	if present(doc.History) {
		if err := s.save(ctx, historyKey(s.userID), history); err != nil {
			return err
		}
	}
	if present(doc.Bookmarks) {
		if err := s.save(ctx, bookmarksKey(s.userID), bookmarks); err != nil {
			return err
		}
	}
	s.logger.Info("library_imported",
		"library", present(doc.Library),
		"preferences", present(doc.Preferences),
		"history", present(doc.History),
		"bookmarks", present(doc.Bookmarks),
	)
	return nil
}
