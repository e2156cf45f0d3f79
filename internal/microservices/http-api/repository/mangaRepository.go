package repository

import (
	"context"
	"fmt"
	"strings"

	"mangareader/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MangaFilter narrows a catalog listing. Empty fields match everything.
type MangaFilter struct {
	Search string
	Genre  string
}

type MangaRepository interface {
	List(ctx context.Context, filter MangaFilter, limit, offset int) ([]models.Manga, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Manga, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, m *models.Manga, genres []string) error
	Update(ctx context.Context, id int64, fields map[string]any, genres []string) error
	Delete(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) (int64, error)

	ListChapters(ctx context.Context, mangaID int64) ([]models.Chapter, error)
	GetChapter(ctx context.Context, mangaID, chapterID int64) (*models.Chapter, error)
	ChapterNumberExists(ctx context.Context, mangaID int64, number int) (bool, error)
	AddChapter(ctx context.Context, ch *models.Chapter) error

	UpsertRating(ctx context.Context, userID string, mangaID int64, score int) error
}

type mangaRepository struct {
	db *gorm.DB
}

func NewMangaRepository(db *gorm.DB) MangaRepository {
	return &mangaRepository{db: db}
}

const mangaColumns = "manga.*" +
	", (SELECT COUNT(*) FROM chapters ch WHERE ch.manga_id = manga.id) AS chapter_count" +
	", (SELECT CAST(AVG(rt.rating) AS DOUBLE PRECISION) FROM ratings rt WHERE rt.manga_id = manga.id) AS avg_rating"

func withDerived(db *gorm.DB) *gorm.DB {
	return db.Select(mangaColumns)
}

func (f MangaFilter) scope(db *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		p := "%" + strings.ToLower(s) + "%"
		db = db.Where("(LOWER(manga.title) LIKE ? OR LOWER(manga.author) LIKE ?)", p, p)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		p := "%" + strings.ToLower(g) + "%"
		db = db.Where(`EXISTS (
			SELECT 1 FROM manga_genres mg JOIN genres g ON g.id = mg.genre_id
			WHERE mg.manga_id = manga.id AND LOWER(g.name) LIKE ?)`, p)
	}
	return db
}

// List returns one page of manga, newest first, and the total under the same filter.
func (r *mangaRepository) List(ctx context.Context, filter MangaFilter, limit, offset int) ([]models.Manga, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Manga{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count manga: %w", err)
	}

	list := []models.Manga{}
	if err := r.db.WithContext(ctx).
		Scopes(filter.scope, withDerived).
		Preload("Genres").
		Order("manga.created_at DESC, manga.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list manga: %w", err)
	}
	return list, total, nil
}

func (r *mangaRepository) GetByID(ctx context.Context, id int64) (*models.Manga, error) {
	var m models.Manga
	if err := r.db.WithContext(ctx).
		Scopes(withDerived).
		Preload("Genres").
		Where("manga.id = ?", id).
		First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mangaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Manga{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check manga: %w", err)
	}
	return n > 0, nil
}

func (r *mangaRepository) Create(ctx context.Context, m *models.Manga, genres []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := resolveGenres(tx, genres)
		if err != nil {
			return err
		}
		m.Genres = resolved
		if err := tx.Omit("Genres.*").Create(m).Error; err != nil {
			return fmt.Errorf("create manga: %w", err)
		}
		return nil
	})
}

// Update writes fields and, when genres is non-nil, replaces the genre set.
func (r *mangaRepository) Update(ctx context.Context, id int64, fields map[string]any, genres []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Manga
		if err := tx.Select("id").First(&m, id).Error; err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&m).Updates(fields).Error; err != nil {
				return fmt.Errorf("update manga: %w", err)
			}
		}
		if genres != nil {
			resolved, err := resolveGenres(tx, genres)
			if err != nil {
				return err
			}
			if err := tx.Model(&m).Association("Genres").Replace(resolved); err != nil {
				return fmt.Errorf("replace genres: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the manga with its pages, chapters, comments, likes, ratings
// and genre links.
func (r *mangaRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			sql  string
		}{
			{"pages", "DELETE FROM pages WHERE chapter_id IN (SELECT id FROM chapters WHERE manga_id = ?)"},
			{"chapters", "DELETE FROM chapters WHERE manga_id = ?"},
			{"comment likes", "DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE manga_id = ?)"},
			{"comments", "DELETE FROM comments WHERE manga_id = ?"},
			{"ratings", "DELETE FROM ratings WHERE manga_id = ?"},
			{"genre links", "DELETE FROM manga_genres WHERE manga_id = ?"},
		}
		for _, s := range steps {
			if err := tx.Exec(s.sql, id).Error; err != nil {
				return fmt.Errorf("delete %s: %w", s.name, err)
			}
		}

		result := tx.Delete(&models.Manga{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete manga: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *mangaRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	var views int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Manga{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + 1"))
		if result.Error != nil {
			return fmt.Errorf("increment views: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&models.Manga{}).Select("views").Where("id = ?", id).Scan(&views).Error; err != nil {
			return fmt.Errorf("read views: %w", err)
		}
		return nil
	})
	return views, err
}

// ListChapters returns chapter headers in ascending number order; gaps are kept.
func (r *mangaRepository) ListChapters(ctx context.Context, mangaID int64) ([]models.Chapter, error) {
	list := []models.Chapter{}
	if err := r.db.WithContext(ctx).
		Select("id", "manga_id", "number", "title", "created_at").
		Where("manga_id = ?", mangaID).
		Order("number ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return list, nil
}

func (r *mangaRepository) GetChapter(ctx context.Context, mangaID, chapterID int64) (*models.Chapter, error) {
	var ch models.Chapter
	if err := r.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("pages.number ASC") }).
		Where("id = ? AND manga_id = ?", chapterID, mangaID).
		First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *mangaRepository) ChapterNumberExists(ctx context.Context, mangaID int64, number int) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Chapter{}).
		Where("manga_id = ? AND number = ?", mangaID, number).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check chapter number: %w", err)
	}
	return n > 0, nil
}

// AddChapter inserts the chapter together with its pages.
func (r *mangaRepository) AddChapter(ctx context.Context, ch *models.Chapter) error {
	if err := r.db.WithContext(ctx).Create(ch).Error; err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// UpsertRating keeps one rating per (user, manga); a second call overwrites the score.
func (r *mangaRepository) UpsertRating(ctx context.Context, userID string, mangaID int64, score int) error {
	rating := models.Rating{UserID: userID, MangaID: mangaID, Rating: score}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "manga_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(&rating).Error; err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}
