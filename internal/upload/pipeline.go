package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"mangareader/internal/apperr"
	"mangareader/internal/blobstore"
	"mangareader/internal/kvstore"
)

// PageKey is the blob key of page pageNumber (1-based) of a chapter.
func PageKey(mangaID string, chapterNumber, pageNumber int) string {
	return fmt.Sprintf("%s_ch%d_p%d", mangaID, chapterNumber, pageNumber)
}

func coverKey(mangaID string) string {
	return mangaID + "_cover"
}

type Pipeline struct {
	blobs   blobstore.Store
	kv      kvstore.Store
	workers int
	logger  *slog.Logger
	now     func() time.Time

	// serializes read-modify-write of the shelf
	mu sync.Mutex
}

func NewPipeline(blobs blobstore.Store, kv kvstore.Store, workers int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		blobs:   blobs,
		kv:      kv,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

type progressTracker struct {
	mu    sync.Mutex
	done  int
	total int
	fn    ProgressFunc
}

// step marks one unit complete. The callback runs under the lock so reported
// percentages never go backwards.
func (t *progressTracker) step(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done < t.total {
		t.done++
	}
	if t.fn != nil {
		t.fn(t.percent(), status)
	}
}

func (t *progressTracker) finish(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn != nil {
		t.fn(t.percent(), status)
	}
}

func (t *progressTracker) percent() int {
	if t.total == 0 {
		return 100
	}
	return int(math.Round(float64(t.done) / float64(t.total) * 100))
}

// Upload stores the cover and every page, then appends the assembled record
// to the shelf. A page whose image cannot be stored keeps EmptyRef and the
// upload carries on. Input is expected to have passed ValidateSubmission.
func (p *Pipeline) Upload(ctx context.Context, sub Submission, onProgress ProgressFunc) (*Manga, error) {
	total := 1
	for _, ch := range sub.Chapters {
		total += len(ch.Pages)
	}
	tracker := &progressTracker{total: total, fn: onProgress}

	mangaID := "manga_" + uuid.NewString()
	log := p.logger.With("manga_id", mangaID)

	coverRef := EmptyRef
	if sub.Cover != nil {
		ref, err := p.blobs.Put(ctx, blobstore.BucketCovers, coverKey(mangaID), sub.Cover.Data)
		if err != nil {
			log.Error("upload_cover_store_failed", "error", err)
			return nil, apperr.Upload(err)
		}
		coverRef = ref
	}
	tracker.step("Uploading cover image...")

	chapters := p.storeChapters(ctx, mangaID, sub.Chapters, tracker, log)

	now := p.now().UTC()
	uploadedBy := sub.UploadedBy
	if uploadedBy == "" {
		uploadedBy = "admin"
	}
	genres := NormalizeGenres(sub.Genres)
	manga := &Manga{
		ID:            mangaID,
		Title:         sub.Title,
		Author:        sub.Author,
		Artist:        sub.Artist,
		Description:   sub.Description,
		Genres:        genres,
		Status:        sub.Status,
		Type:          sub.Type,
		Released:      sub.Released,
		Serialization: sub.Serialization,
		Rating:        sub.Rating,
		CoverImage:    coverRef,
		Chapters:      chapters,
		UploadedAt:    now,
		UploadedBy:    uploadedBy,
		PostedOn:      now,
		UpdatedOn:     now,
		Views:         0,
	}

	err := p.mutate(ctx, func(list []Manga) ([]Manga, error) {
		return append(list, *manga), nil
	})
	if err != nil {
		log.Error("upload_shelf_save_failed", "error", err)
		return nil, apperr.Upload(err)
	}

	tracker.finish("Upload completed!")
	log.Info("upload_completed",
		"chapters", len(chapters),
		"pages", total-1,
		"missing_pages", manga.MissingPages(),
	)
	return manga, nil
}

// storeChapters writes every page on the worker pool. Each result lands at its
// own chapter/page index regardless of completion order.
func (p *Pipeline) storeChapters(ctx context.Context, mangaID string, subs []ChapterSubmission, tracker *progressTracker, log *slog.Logger) []Chapter {
	chapters := make([]Chapter, len(subs))
	pool := newWorkerPool(ctx, p.workers, log)
	pool.start()

	for ci, ch := range subs {
		chapters[ci] = Chapter{
			ID:     "chapter_" + uuid.NewString(),
			Number: ch.Number,
			Title:  ch.Title,
			Pages:  make([]Page, len(ch.Pages)),
		}
		for pi, file := range ch.Pages {
			pages := chapters[ci].Pages
			number := ch.Number
			pool.submit(func(ctx context.Context) {
				pages[pi] = p.storePage(ctx, mangaID, number, pi+1, file, log)
				tracker.step(fmt.Sprintf("Saving Chapter %d, Page %d...", number, pi+1))
			})
		}
	}
	pool.wait()
	return chapters
}

func (p *Pipeline) storePage(ctx context.Context, mangaID string, chapterNumber, pageNumber int, file File, log *slog.Logger) Page {
	page := Page{
		ID:         "page_" + uuid.NewString(),
		PageNumber: pageNumber,
		ImageURL:   EmptyRef,
		FileName:   file.FileName,
	}
	ref, err := p.blobs.Put(ctx, blobstore.BucketPages, PageKey(mangaID, chapterNumber, pageNumber), file.Data)
	if err != nil {
		log.Warn("upload_page_store_failed",
			"chapter", chapterNumber,
			"page", pageNumber,
			"file", file.FileName,
			"error", err,
		)
		return page
	}
	page.ImageURL = ref
	return page
}

func (p *Pipeline) load(ctx context.Context) ([]Manga, error) {
	raw, err := p.kv.Get(ctx, shelfKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []Manga{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []Manga
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", shelfKey, err)
	}
	if list == nil {
		list = []Manga{}
	}
	return list, nil
}

// mutate applies fn to the whole shelf and writes the result back.
func (p *Pipeline) mutate(ctx context.Context, fn func([]Manga) ([]Manga, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	list, err := p.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(list)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	return p.kv.Put(ctx, shelfKey, raw)
}
