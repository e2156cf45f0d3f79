package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/internal/apperr"
	"mangareader/internal/blobstore"
	"mangareader/internal/kvstore"
)

func newShelf(t *testing.T) (*Pipeline, *Manga) {
	t.Helper()
	p := NewPipeline(blobstore.NewMemory(), kvstore.NewMemory(), 2, nil)
	m, err := p.Upload(context.Background(), sampleSubmission(), nil)
	require.NoError(t, err)
	return p, m
}

func TestShelf_Update(t *testing.T) {
	ctx := context.Background()
	p, m := newShelf(t)

	title := "Blue Period (Deluxe)"
	status := "completed"
	updated, err := p.Update(ctx, m.ID, Changes{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, m.ID, updated.ID)
	assert.Equal(t, m.UploadedAt, updated.UploadedAt)
	assert.Equal(t, m.Author, updated.Author)

	updated, err = p.Update(ctx, m.ID, Changes{Genres: []string{"Drama", "art", "ART", "drama"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama", "art"}, updated.Genres)

	_, err = p.Update(ctx, m.ID, Changes{Genres: []string{"  "}})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	bad := "paused"
	_, err = p.Update(ctx, m.ID, Changes{Status: &bad})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = p.Update(ctx, "nope", Changes{Title: &title})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestShelf_AddChapter(t *testing.T) {
	ctx := context.Background()
	p, m := newShelf(t)

	var last int
	ch, err := p.AddChapter(ctx, m.ID, ChapterSubmission{Number: 3, Title: "Later", Pages: pages(2)}, func(percent int, _ string) {
		last = percent
	})
	require.NoError(t, err)
	assert.Equal(t, 100, last)
	assert.Len(t, ch.Pages, 2)

	stored, err := p.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, stored.Chapters, 2)
	assert.Equal(t, 1, stored.Chapters[0].Number)
	assert.Equal(t, 3, stored.Chapters[1].Number)

	_, err = p.AddChapter(ctx, m.ID, ChapterSubmission{Number: 3, Pages: pages(1)}, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	_, err = p.AddChapter(ctx, "nope", ChapterSubmission{Number: 1, Pages: pages(1)}, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestShelf_DeleteSearchStatsViews(t *testing.T) {
	ctx := context.Background()
	p, m := newShelf(t)

	other := sampleSubmission()
	other.Title = "Berserk"
	other.Author = "Miura"
	other.Genres = []string{"Dark Fantasy"}
	other.Status = "hiatus"
	other.Rating = 9.5
	_, err := p.Upload(ctx, other, nil)
	require.NoError(t, err)

	found, err := p.Search(ctx, "fantasy")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Berserk", found[0].Title)

	stats, err := p.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalManga)
	assert.Equal(t, 2, stats.TotalChapters)
	assert.Equal(t, 6, stats.TotalPages)
	assert.Equal(t, 0, stats.MissingPages)
	assert.InDelta(t, 9.0, stats.AverageRating, 0.0001)
	assert.Equal(t, 1, stats.StatusBreakdown["ongoing"])
	assert.Equal(t, 1, stats.StatusBreakdown["hiatus"])
	assert.Equal(t, 0, stats.StatusBreakdown["cancelled"])
	assert.Equal(t, 1, stats.GenreBreakdown["Drama"])

	views, err := p.IncrementViews(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)

	require.NoError(t, p.Delete(ctx, m.ID))
	err = p.Delete(ctx, m.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = p.Get(ctx, m.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
