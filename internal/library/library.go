package library

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mangareader/internal/apperr"
)

type SortField string

const (
	SortByTitle     SortField = "title"
	SortByAuthor    SortField = "author"
	SortByRating    SortField = "rating"
	SortByDateAdded SortField = "dateAdded"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByTitle, SortByAuthor, SortByRating, SortByDateAdded:
		return f, nil
	case "":
		return SortByDateAdded, nil
	}
	return "", apperr.Validation("sort must be one of title, author, rating, dateAdded")
}

// List returns the saved manga in insertion order.
func (s *Store) List(ctx context.Context) ([]SavedManga, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}
	return lib.Mangas, nil
}

// Save appends entry unless the manga is already saved, in which case it
// reports false and writes nothing.
func (s *Store) Save(ctx context.Context, entry SavedManga) (bool, error) {
	if strings.TrimSpace(entry.ID) == "" {
		return false, apperr.Validation("manga id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(lib.Mangas, func(m SavedManga) bool { return m.ID == entry.ID }) {
		return false, nil
	}
	if entry.Genres == nil {
		entry.Genres = []string{}
	}
	entry.SavedAt = s.now().UTC()
	lib.Mangas = append(lib.Mangas, entry)
	if err := s.save(ctx, libraryKey(s.userID), lib); err != nil {
		return false, err
	}
	s.logger.Info("library_manga_saved", "manga_id", entry.ID)
	return true, nil
}

// Remove reports whether an entry for mangaID existed.
func (s *Store) Remove(ctx context.Context, mangaID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return false, err
	}
	before := len(lib.Mangas)
	lib.Mangas = slices.DeleteFunc(lib.Mangas, func(m SavedManga) bool { return m.ID == mangaID })
	if len(lib.Mangas) == before {
		return false, nil
	}
	if err := s.save(ctx, libraryKey(s.userID), lib); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Contains(ctx context.Context, mangaID string) (bool, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(lib.Mangas, func(m SavedManga) bool { return m.ID == mangaID }), nil
}

// Stats returns the library size and the five most recently saved entries.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return Stats{}, err
	}
	recent := slices.Clone(lib.Mangas)
	slices.SortStableFunc(recent, func(a, b SavedManga) int {
		return b.SavedAt.Compare(a.SavedAt)
	})
	if len(recent) > 5 {
		recent = recent[:5]
	}
	return Stats{TotalMangas: len(lib.Mangas), RecentlyAdded: recent}, nil
}

// Query narrows and orders the library. Search matches title, author and
// genres case-insensitively; Genre matches genres only. The two are
// AND-combined. Strings sort in collation order, ties keep insertion order,
// and an empty SortBy keeps insertion order.
type Query struct {
	Search string
	Genre  string
	SortBy SortField
	Desc   bool
}

func (s *Store) Find(ctx context.Context, q Query) ([]SavedManga, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(q.Search)
	genre := strings.ToLower(q.Genre)
	out := []SavedManga{}
	for _, m := range lib.Mangas {
		if search != "" && !matchesSearch(m, search) {
			continue
		}
		if genre != "" && !anyGenreContains(m.Genres, genre) {
			continue
		}
		out = append(out, m)
	}
	if q.SortBy != "" {
		if err := sortEntries(out, q.SortBy, q.Desc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sortEntries(list []SavedManga, field SortField, desc bool) error {
	col := collate.New(language.Und)

	var cmp func(a, b SavedManga) int
	switch field {
	case SortByTitle:
		cmp = func(a, b SavedManga) int { return col.CompareString(a.Title, b.Title) }
	case SortByAuthor:
		cmp = func(a, b SavedManga) int { return col.CompareString(a.Author, b.Author) }
	case SortByRating:
		cmp = func(a, b SavedManga) int {
			switch {
			case a.Rating < b.Rating:
				return -1
			case a.Rating > b.Rating:
				return 1
			}
			return 0
		}
	case SortByDateAdded:
		cmp = func(a, b SavedManga) int { return a.SavedAt.Compare(b.SavedAt) }
	default:
		return apperr.Validation("unknown sort field " + string(field))
	}

	slices.SortStableFunc(list, func(a, b SavedManga) int {
		if desc {
			return -cmp(a, b)
		}
		return cmp(a, b)
	})
	return nil
}

// LocalPages returns the locally stored pages of a saved chapter, or nothing.
func (s *Store) LocalPages(ctx context.Context, mangaID string, chapterNumber int) ([]LocalPage, error) {
	lib, err := s.loadLibrary(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range lib.Mangas {
		if m.ID != mangaID {
			continue
		}
		for _, ch := range m.Chapters {
			if ch.Number == chapterNumber && ch.Pages != nil {
				return ch.Pages, nil
			}
		}
	}
	return []LocalPage{}, nil
}

func matchesSearch(m SavedManga, lowered string) bool {
	return strings.Contains(strings.ToLower(m.Title), lowered) ||
		strings.Contains(strings.ToLower(m.Author), lowered) ||
		anyGenreContains(m.Genres, lowered)
}

func anyGenreContains(genres []string, lowered string) bool {
	for _, g := range genres {
		if strings.Contains(strings.ToLower(g), lowered) {
			return true
		}
	}
	return false
}
