// Package library keeps a reader's saved manga, reading progress, bookmarks,
// reading history and preferences in a key-value store, one key per section.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mangareader/internal/apperr"
	"mangareader/internal/kvstore"
)

const (
	// HistoryLimit caps the reading history; older entries are evicted.
	HistoryLimit = 50

	lockStripes = 64
)

func libraryKey(userID string) string   { return "manga_library_" + userID }
func prefsKey(userID string) string     { return "manga_prefs_" + userID }
func historyKey(userID string) string   { return "manga_history_" + userID }
func bookmarksKey(userID string) string { return "manga_bookmarks_" + userID }
func progressKey(userID string) string  { return "reading_progress_" + userID }

var readerIDPattern = regexp.MustCompile(`^user_[0-9a-z]+_[0-9a-z]+$`)

// NewReaderID returns a pseudo-identity for an anonymous reader.
func NewReaderID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return "user_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + random
}

// ValidReaderID reports whether id has the shape produced by NewReaderID.
func ValidReaderID(id string) bool {
	return readerIDPattern.MatchString(id)
}

// Manager hands out per-user stores. Writers for the same user are serialized
// through a striped lock so each read-modify-write sees the previous one.
type Manager struct {
	kv     kvstore.Store
	logger *slog.Logger
	now    func() time.Time
	locks  [lockStripes]sync.Mutex
}

func NewManager(kv kvstore.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{kv: kv, logger: logger, now: time.Now}
}

// For returns the store scoped to userID.
func (m *Manager) For(userID string) *Store {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &Store{
		kv:     m.kv,
		userID: userID,
		mu:     &m.locks[h.Sum32()%lockStripes],
		now:    m.now,
		logger: m.logger.With("user_id", userID),
	}
}

// Store is one reader's view of the library sections.
type Store struct {
	kv     kvstore.Store
	userID string
	mu     *sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

func (s *Store) UserID() string { return s.userID }

// load decodes key into v. A missing key leaves v untouched and reports false.
func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("library_load_failed", "key", key, "error", err)
		return false, apperr.Storage(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Error("library_decode_failed", "key", key, "error", err)
		return false, apperr.Storage(fmt.Errorf("decode %s: %w", key, err))
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.kv.Put(ctx, key, raw); err != nil {
		s.logger.Error("library_save_failed", "key", key, "error", err)
		return apperr.Storage(err)
	}
	return nil
}

func (s *Store) loadLibrary(ctx context.Context) (UserLibrary, error) {
	lib := UserLibrary{UserID: s.userID}
	if _, err := s.load(ctx, libraryKey(s.userID), &lib); err != nil {
		return UserLibrary{}, err
	}
	if lib.Mangas == nil {
		lib.Mangas = []SavedManga{}
	}
	return lib, nil
}

func (s *Store) loadProgress(ctx context.Context) (map[string]ReadingProgress, error) {
	all := map[string]ReadingProgress{}
	if _, err := s.load(ctx, progressKey(s.userID), &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]ReadingProgress{}
	}
	return all, nil
}

func (s *Store) loadBookmarks(ctx context.Context) ([]Bookmark, error) {
	bookmarks := []Bookmark{}
	if _, err := s.load(ctx, bookmarksKey(s.userID), &bookmarks); err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []Bookmark{}
	}
	return bookmarks, nil
}

func (s *Store) loadHistory(ctx context.Context) ([]HistoryItem, error) {
	history := []HistoryItem{}
	if _, err := s.load(ctx, historyKey(s.userID), &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []HistoryItem{}
	}
	return history, nil
}
