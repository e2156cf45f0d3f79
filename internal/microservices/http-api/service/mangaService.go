package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/models"
	"mangareader/internal/microservices/http-api/repository"
	"mangareader/pkg/pagination"

	"gorm.io/gorm"
)

type MangaService interface {
	ListManga(ctx context.Context, p pagination.Params, search, genre string) (*dto.MangaListResponse, error)
	GetManga(ctx context.Context, id int64) (*dto.MangaResponse, error)
	ListChapters(ctx context.Context, mangaID int64) ([]dto.ChapterSummary, error)
	GetChapter(ctx context.Context, mangaID, chapterID int64) (*dto.ChapterResponse, error)

	CreateManga(ctx context.Context, in dto.CreateMangaDTO) (*dto.MangaResponse, error)
	UpdateManga(ctx context.Context, id int64, in dto.UpdateMangaDTO) (*dto.MangaResponse, error)
	DeleteManga(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (int64, error)
	AddChapter(ctx context.Context, mangaID int64, in dto.AddChapterDTO) (*dto.ChapterResponse, error)
	RateManga(ctx context.Context, userID string, mangaID int64, score int) (*dto.MangaResponse, error)
}

type mangaService struct {
	repo   repository.MangaRepository
	logger *slog.Logger
}

func NewMangaService(repo repository.MangaRepository, logger *slog.Logger) MangaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &mangaService{repo: repo, logger: logger}
}

func (s *mangaService) storageError(event string, err error, attrs ...any) error {
	s.logger.Error(event, append(attrs, "error", err)...)
	return apperr.Storage(err)
}

func (s *mangaService) ListManga(ctx context.Context, p pagination.Params, search, genre string) (*dto.MangaListResponse, error) {
	list, total, err := s.repo.List(ctx, repository.MangaFilter{Search: search, Genre: genre}, p.Limit, p.Offset())
	if err != nil {
		return nil, s.storageError("manga_list_failed", err)
	}
	resp := make([]dto.MangaResponse, 0, len(list))
	for _, m := range list {
		resp = append(resp, dto.FromModelToResponse(m))
	}
	return &dto.MangaListResponse{Manga: resp, Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *mangaService) GetManga(ctx context.Context, id int64) (*dto.MangaResponse, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("manga")
	}
	if err != nil {
		return nil, s.storageError("manga_get_failed", err, "manga_id", id)
	}
	resp := dto.FromModelToResponse(*m)
	return &resp, nil
}

// ListChapters is empty, not an error, for a manga without chapters.
func (s *mangaService) ListChapters(ctx context.Context, mangaID int64) ([]dto.ChapterSummary, error) {
	list, err := s.repo.ListChapters(ctx, mangaID)
	if err != nil {
		return nil, s.storageError("chapter_list_failed", err, "manga_id", mangaID)
	}
	return dto.FromChapterModels(list), nil
}

func (s *mangaService) GetChapter(ctx context.Context, mangaID, chapterID int64) (*dto.ChapterResponse, error) {
	ch, err := s.repo.GetChapter(ctx, mangaID, chapterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("chapter")
	}
	if err != nil {
		return nil, s.storageError("chapter_get_failed", err, "manga_id", mangaID, "chapter_id", chapterID)
	}
	resp := dto.FromChapterModel(*ch)
	return &resp, nil
}

func validateStatus(status string) error {
	if !slices.Contains(models.MangaStatuses, status) {
		return apperr.Validation("status must be one of " + strings.Join(models.MangaStatuses, ", "))
	}
	return nil
}

func validateType(t string) error {
	if !slices.Contains(models.MangaTypes, t) {
		return apperr.Validation("type must be one of " + strings.Join(models.MangaTypes, ", "))
	}
	return nil
}

func validateRating(r float64) error {
	if r < 0 || r > 10 {
		return apperr.Validation("rating must be between 0 and 10")
	}
	return nil
}

func (s *mangaService) CreateManga(ctx context.Context, in dto.CreateMangaDTO) (*dto.MangaResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.Status == "" {
		in.Status = models.StatusOngoing
	}
	if in.Type == "" {
		in.Type = models.TypeManga
	}
	if err := validateStatus(in.Status); err != nil {
		return nil, err
	}
	if err := validateType(in.Type); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	m := &models.Manga{
		Title:         title,
		Author:        strings.TrimSpace(in.Author),
		Artist:        strings.TrimSpace(in.Artist),
		Description:   in.Description,
		Status:        in.Status,
		Type:          in.Type,
		ReleaseYear:   in.ReleaseYear,
		Serialization: in.Serialization,
		Rating:        in.Rating,
		CoverURL:      in.CoverURL,
	}
	if err := s.repo.Create(ctx, m, in.Genres); err != nil {
		return nil, s.storageError("manga_create_failed", err)
	}
	s.logger.Info("manga_created", "manga_id", m.ID, "title", m.Title)
	return s.GetManga(ctx, m.ID)
}

func (s *mangaService) UpdateManga(ctx context.Context, id int64, in dto.UpdateMangaDTO) (*dto.MangaResponse, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		in.Title = &t
	}
	if in.Status != nil {
		if err := validateStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.Type != nil {
		if err := validateType(*in.Type); err != nil {
			return nil, err
		}
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
	}

	err := s.repo.Update(ctx, id, in.Fields(), in.Genres)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("manga")
	}
	if err != nil {
		return nil, s.storageError("manga_update_failed", err, "manga_id", id)
	}
	return s.GetManga(ctx, id)
}

func (s *mangaService) DeleteManga(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("manga")
	}
	if err != nil {
		return s.storageError("manga_delete_failed", err, "manga_id", id)
	}
	s.logger.Info("manga_deleted", "manga_id", id)
	return nil
}

func (s *mangaService) IncrementViews(ctx context.Context, id int64) (int64, error) {
	views, err := s.repo.IncrementViews(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("manga")
	}
	if err != nil {
		return 0, s.storageError("manga_views_failed", err, "manga_id", id)
	}
	return views, nil
}

func (s *mangaService) AddChapter(ctx context.Context, mangaID int64, in dto.AddChapterDTO) (*dto.ChapterResponse, error) {
	if in.Number <= 0 {
		return nil, apperr.Validation("chapter number must be positive")
	}
	seen := make(map[int]bool, len(in.Pages))
	pages := make([]models.Page, 0, len(in.Pages))
	for _, p := range in.Pages {
		if p.Number <= 0 || seen[p.Number] {
			return nil, apperr.Validation(fmt.Sprintf("invalid or duplicate page number %d", p.Number))
		}
		seen[p.Number] = true
		pages = append(pages, models.Page{Number: p.Number, ImageURL: p.ImageURL, FileName: p.FileName})
	}

	ok, err := s.repo.Exists(ctx, mangaID)
	if err != nil {
		return nil, s.storageError("chapter_add_failed", err, "manga_id", mangaID)
	}
	if !ok {
		return nil, apperr.NotFound("manga")
	}
	taken, err := s.repo.ChapterNumberExists(ctx, mangaID, in.Number)
	if err != nil {
		return nil, s.storageError("chapter_add_failed", err, "manga_id", mangaID)
	}
	if taken {
		return nil, apperr.Conflict(fmt.Sprintf("chapter %d already exists", in.Number))
	}

	ch := &models.Chapter{MangaID: mangaID, Number: in.Number, Title: strings.TrimSpace(in.Title), Pages: pages}
	if err := s.repo.AddChapter(ctx, ch); err != nil {
		return nil, s.storageError("chapter_add_failed", err, "manga_id", mangaID)
	}
	s.logger.Info("chapter_added", "manga_id", mangaID, "chapter", in.Number, "pages", len(pages))

	slices.SortFunc(ch.Pages, func(a, b models.Page) int { return a.Number - b.Number })
	resp := dto.FromChapterModel(*ch)
	return &resp, nil
}

// RateManga records the caller's 1..10 score and returns the manga with the new average.
func (s *mangaService) RateManga(ctx context.Context, userID string, mangaID int64, score int) (*dto.MangaResponse, error) {
	if score < 1 || score > 10 {
		return nil, apperr.Validation("rating must be between 1 and 10")
	}
	ok, err := s.repo.Exists(ctx, mangaID)
	if err != nil {
		return nil, s.storageError("manga_rate_failed", err, "manga_id", mangaID)
	}
	if !ok {
		return nil, apperr.NotFound("manga")
	}
	if err := s.repo.UpsertRating(ctx, userID, mangaID, score); err != nil {
		return nil, s.storageError("manga_rate_failed", err, "manga_id", mangaID)
	}
	return s.GetManga(ctx, mangaID)
}
