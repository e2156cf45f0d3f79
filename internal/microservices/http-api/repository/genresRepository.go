package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mangareader/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type GenreRepository interface {
	GetAll(ctx context.Context) ([]models.Genre, error)
	Create(ctx context.Context, g *models.Genre) error
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) GetAll(ctx context.Context) ([]models.Genre, error) {
	list := []models.Genre{}
	if err := r.db.WithContext(ctx).Order("name asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	return list, nil
}

// Create returns the existing row when a genre with the same name (any case) exists.
func (r *genreRepository) Create(ctx context.Context, g *models.Genre) error {
	resolved, err := resolveGenres(r.db.WithContext(ctx), []string{g.Name})
	if err != nil {
		return err
	}
	*g = resolved[0]
	return nil
}

// resolveGenres finds or creates one genre row per distinct name, matching
// names case-insensitively and keeping the first spelling seen.
func resolveGenres(tx *gorm.DB, names []string) ([]models.Genre, error) {
	seen := make(map[string]bool, len(names))
	out := make([]models.Genre, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		var g models.Genre
		err := tx.Where("LOWER(name) = ?", key).First(&g).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g = models.Genre{Name: name}
			if err := tx.Create(&g).Error; err != nil {
				return nil, fmt.Errorf("create genre %q: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("find genre %q: %w", name, err)
		}
		out = append(out, g)
	}
	return out, nil
}
