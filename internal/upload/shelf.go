package upload

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"mangareader/internal/apperr"
)

func (p *Pipeline) storageErr(event string, err error) error {
	if ae := apperr.As(err); ae != nil {
		return ae
	}
	p.logger.Error(event, "error", err)
	return apperr.Storage(err)
}

// List returns the shelf in upload order.
func (p *Pipeline) List(ctx context.Context) ([]Manga, error) {
	list, err := p.load(ctx)
	if err != nil {
		return nil, p.storageErr("shelf_load_failed", err)
	}
	return list, nil
}

func (p *Pipeline) Get(ctx context.Context, id string) (*Manga, error) {
	list, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, apperr.NotFound("manga")
}

// Update applies changes to the metadata. ID, UploadedAt and UploadedBy never change.
func (p *Pipeline) Update(ctx context.Context, id string, changes Changes) (*Manga, error) {
	if err := validateChanges(changes); err != nil {
		return nil, err
	}

	var updated Manga
	err := p.mutate(ctx, func(list []Manga) ([]Manga, error) {
		i := slices.IndexFunc(list, func(m Manga) bool { return m.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("manga")
		}
		m := &list[i]
		if changes.Title != nil {
			m.Title = strings.TrimSpace(*changes.Title)
		}
		if changes.Author != nil {
			m.Author = strings.TrimSpace(*changes.Author)
		}
		if changes.Artist != nil {
			m.Artist = *changes.Artist
		}
		if changes.Description != nil {
			m.Description = *changes.Description
		}
		if changes.Genres != nil {
			m.Genres = NormalizeGenres(changes.Genres)
		}
		if changes.Status != nil {
			m.Status = *changes.Status
		}
		if changes.Type != nil {
			m.Type = *changes.Type
		}
		if changes.Released != nil {
			m.Released = *changes.Released
		}
		if changes.Serialization != nil {
			m.Serialization = *changes.Serialization
		}
		if changes.Rating != nil {
			m.Rating = *changes.Rating
		}
		m.UpdatedOn = p.now().UTC()
		updated = *m
		return list, nil
	})
	if err != nil {
		return nil, p.storageErr("shelf_update_failed", err)
	}
	return &updated, nil
}

func (p *Pipeline) Delete(ctx context.Context, id string) error {
	err := p.mutate(ctx, func(list []Manga) ([]Manga, error) {
		before := len(list)
		list = slices.DeleteFunc(list, func(m Manga) bool { return m.ID == id })
		if len(list) == before {
			return nil, apperr.NotFound("manga")
		}
		return list, nil
	})
	if err != nil {
		return p.storageErr("shelf_delete_failed", err)
	}
	p.logger.Info("shelf_manga_deleted", "manga_id", id)
	return nil
}

// AddChapter stores the pages of ch and appends it to manga id, with the same
// per-page failure policy as Upload.
func (p *Pipeline) AddChapter(ctx context.Context, id string, ch ChapterSubmission, onProgress ProgressFunc) (*Chapter, error) {
	if err := validateChapter(ch); err != nil {
		return nil, err
	}
	existing, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(existing.Chapters, func(c Chapter) bool { return c.Number == ch.Number }) {
		return nil, apperr.Conflict(fmt.Sprintf("chapter %d already exists", ch.Number))
	}

	tracker := &progressTracker{total: len(ch.Pages), fn: onProgress}
	log := p.logger.With("manga_id", id)
	stored := p.storeChapters(ctx, id, []ChapterSubmission{ch}, tracker, log)[0]

	err = p.mutate(ctx, func(list []Manga) ([]Manga, error) {
		i := slices.IndexFunc(list, func(m Manga) bool { return m.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("manga")
		}
		if slices.ContainsFunc(list[i].Chapters, func(c Chapter) bool { return c.Number == ch.Number }) {
			return nil, apperr.Conflict(fmt.Sprintf("chapter %d already exists", ch.Number))
		}
		list[i].Chapters = append(list[i].Chapters, stored)
		list[i].UpdatedOn = p.now().UTC()
		return list, nil
	})
	if err != nil {
		return nil, p.storageErr("shelf_add_chapter_failed", err)
	}
	log.Info("shelf_chapter_added", "chapter", ch.Number, "pages", len(stored.Pages))
	return &stored, nil
}

// Search matches query case-insensitively against title, author and genres.
func (p *Pipeline) Search(ctx context.Context, query string) ([]Manga, error) {
	list, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []Manga{}
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Author), q) ||
			slices.ContainsFunc(m.Genres, func(g string) bool { return strings.Contains(strings.ToLower(g), q) }) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (p *Pipeline) Stats(ctx context.Context) (Stats, error) {
	list, err := p.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		TotalManga:      len(list),
		StatusBreakdown: map[string]int{},
		GenreBreakdown:  map[string]int{},
	}
	for _, s := range validStatuses {
		stats.StatusBreakdown[s] = 0
	}
	var ratingSum float64
	for i := range list {
		m := &list[i]
		stats.TotalChapters += len(m.Chapters)
		for _, ch := range m.Chapters {
			stats.TotalPages += len(ch.Pages)
		}
		stats.MissingPages += m.MissingPages()
		ratingSum += m.Rating
		stats.StatusBreakdown[m.Status]++
		for _, g := range m.Genres {
			stats.GenreBreakdown[g]++
		}
	}
	if len(list) > 0 {
		stats.AverageRating = ratingSum / float64(len(list))
	}
	return stats, nil
}

func (p *Pipeline) IncrementViews(ctx context.Context, id string) (int64, error) {
	var views int64
	err := p.mutate(ctx, func(list []Manga) ([]Manga, error) {
		i := slices.IndexFunc(list, func(m Manga) bool { return m.ID == id })
		if i < 0 {
			return nil, apperr.NotFound("manga")
		}
		list[i].Views++
		views = list[i].Views
		return list, nil
	})
	if err != nil {
		return 0, p.storageErr("shelf_views_failed", err)
	}
	return views, nil
}
