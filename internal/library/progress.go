package library

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"mangareader/internal/apperr"
)

// SaveProgress overwrites the progress for p.MangaID.
func (s *Store) SaveProgress(ctx context.Context, p ReadingProgress) error {
	if strings.TrimSpace(p.MangaID) == "" {
		return apperr.Validation("manga id is required")
	}
	if p.CurrentChapter < 0 || p.CurrentPage < 0 || p.ReadingTime < 0 {
		return apperr.Validation("progress values must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadProgress(ctx)
	if err != nil {
		return err
	}
	if p.LastReadAt.IsZero() {
		p.LastReadAt = s.now().UTC()
	}
	all[p.MangaID] = p
	return s.save(ctx, progressKey(s.userID), all)
}

// Progress returns nil when nothing was recorded for mangaID.
func (s *Store) Progress(ctx context.Context, mangaID string) (*ReadingProgress, error) {
	all, err := s.loadProgress(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := all[mangaID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) AllProgress(ctx context.Context) (map[string]ReadingProgress, error) {
	return s.loadProgress(ctx)
}

func (s *Store) ClearProgress(ctx context.Context, mangaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadProgress(ctx)
	if err != nil {
		return err
	}
	if _, ok := all[mangaID]; !ok {
		return nil
	}
	delete(all, mangaID)
	return s.save(ctx, progressKey(s.userID), all)
}

// IncrementReadingTime adds seconds to existing progress. It reports false when
// there is no progress for mangaID.
func (s *Store) IncrementReadingTime(ctx context.Context, mangaID string, seconds int) (bool, error) {
	if seconds <= 0 {
		return false, apperr.Validation("seconds must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadProgress(ctx)
	if err != nil {
		return false, err
	}
	p, ok := all[mangaID]
	if !ok {
		return false, nil
	}
	p.ReadingTime += seconds
	p.LastReadAt = s.now().UTC()
	all[mangaID] = p
	if err := s.save(ctx, progressKey(s.userID), all); err != nil {
		return false, err
	}
	return true, nil
}

// AddBookmark always appends; the same location may be bookmarked repeatedly.
func (s *Store) AddBookmark(ctx context.Context, b Bookmark) (Bookmark, error) {
	if strings.TrimSpace(b.MangaID) == "" {
		return Bookmark{}, apperr.Validation("manga id is required")
	}
	if b.ChapterNumber < 0 || b.PageNumber < 0 {
		return Bookmark{}, apperr.Validation("chapter and page numbers must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookmarks, err := s.loadBookmarks(ctx)
	if err != nil {
		return Bookmark{}, err
	}
	b.ID = "bookmark_" + uuid.NewString()
	b.CreatedAt = s.now().UTC()
	bookmarks = append(bookmarks, b)
	if err := s.save(ctx, bookmarksKey(s.userID), bookmarks); err != nil {
		return Bookmark{}, err
	}
	return b, nil
}

// Bookmarks returns every bookmark, or only those for mangaID when it is set.
func (s *Store) Bookmarks(ctx context.Context, mangaID string) ([]Bookmark, error) {
	bookmarks, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	if mangaID == "" {
		return bookmarks, nil
	}
	out := []Bookmark{}
	for _, b := range bookmarks {
		if b.MangaID == mangaID {
			out = append(out, b)
		}
	}
	return out, nil
}

// AddToHistory moves item to the head of the history, replacing any previous
// entry for the same manga, and trims the list to HistoryLimit.
func (s *Store) AddToHistory(ctx context.Context, item HistoryItem) error {
	if strings.TrimSpace(item.MangaID) == "" {
		return apperr.Validation("manga id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}
	item.ReadAt = s.now().UTC()

	next := make([]HistoryItem, 0, len(history)+1)
	next = append(next, item)
	for _, h := range history {
		if h.MangaID != item.MangaID {
			next = append(next, h)
		}
	}
	if len(next) > HistoryLimit {
		next = next[:HistoryLimit]
	}
	return s.save(ctx, historyKey(s.userID), next)
}

func (s *Store) History(ctx context.Context) ([]HistoryItem, error) {
	return s.loadHistory(ctx)
}

// Preferences falls back to DefaultPreferences when none were saved.
func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	prefs := DefaultPreferences()
	if _, err := s.load(ctx, prefsKey(s.userID), &prefs); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

func (s *Store) SavePreferences(ctx context.Context, prefs Preferences) error {
	if err := validatePreferences(prefs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, prefsKey(s.userID), prefs)
}

func validatePreferences(p Preferences) error {
	switch p.ReadingMode {
	case "single", "double", "webtoon":
	default:
		return apperr.Validation("readingMode must be one of single, double, webtoon")
	}
	switch p.Theme {
	case "light", "dark", "auto":
	default:
		return apperr.Validation("theme must be one of light, dark, auto")
	}
	switch p.ReadingDirection {
	case "ltr", "rtl":
	default:
		return apperr.Validation("readingDirection must be ltr or rtl")
	}
	if strings.TrimSpace(p.Language) == "" {
		return apperr.Validation("language is required")
	}
	return nil
}
