package service

import (
	"context"
	"log/slog"
	"strings"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/models"
	"mangareader/internal/microservices/http-api/repository"
)

type GenreService interface {
	GetAll(ctx context.Context) ([]models.Genre, error)
	Create(ctx context.Context, name string) (*models.Genre, error)
}

type genreService struct {
	repo   repository.GenreRepository
	logger *slog.Logger
}

func NewGenreService(r repository.GenreRepository, logger *slog.Logger) GenreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &genreService{repo: r, logger: logger}
}

func (s *genreService) GetAll(ctx context.Context) ([]models.Genre, error) {
	list, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("genre_list_failed", "error", err)
		return nil, apperr.Storage(err)
	}
	return list, nil
}

func (s *genreService) Create(ctx context.Context, name string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("genre name required")
	}
	g := &models.Genre{Name: name}
	if err := s.repo.Create(ctx, g); err != nil {
		s.logger.Error("genre_create_failed", "name", name, "error", err)
		return nil, apperr.Storage(err)
	}
	return g, nil
}
