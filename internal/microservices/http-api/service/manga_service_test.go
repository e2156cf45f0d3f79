package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/models"
	"mangareader/internal/microservices/http-api/repository"
	"mangareader/pkg/pagination"
)

type MockMangaRepository struct {
	mock.Mock
}

func (m *MockMangaRepository) List(ctx context.Context, filter repository.MangaFilter, limit, offset int) ([]models.Manga, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Manga), args.Get(1).(int64), args.Error(2)
}

func (m *MockMangaRepository) GetByID(ctx context.Context, id int64) (*models.Manga, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Manga), args.Error(1)
}

func (m *MockMangaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockMangaRepository) Create(ctx context.Context, manga *models.Manga, genres []string) error {
	args := m.Called(ctx, manga, genres)
	return args.Error(0)
}

func (m *MockMangaRepository) Update(ctx context.Context, id int64, fields map[string]any, genres []string) error {
	args := m.Called(ctx, id, fields, genres)
	return args.Error(0)
}

func (m *MockMangaRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMangaRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMangaRepository) ListChapters(ctx context.Context, mangaID int64) ([]models.Chapter, error) {
	args := m.Called(ctx, mangaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Chapter), args.Error(1)
}

func (m *MockMangaRepository) GetChapter(ctx context.Context, mangaID, chapterID int64) (*models.Chapter, error) {
	args := m.Called(ctx, mangaID, chapterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *MockMangaRepository) ChapterNumberExists(ctx context.Context, mangaID int64, number int) (bool, error) {
	args := m.Called(ctx, mangaID, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockMangaRepository) AddChapter(ctx context.Context, ch *models.Chapter) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockMangaRepository) UpsertRating(ctx context.Context, userID string, mangaID int64, score int) error {
	args := m.Called(ctx, userID, mangaID, score)
	return args.Error(0)
}

func TestMangaService_ListManga(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMangaRepository)
	svc := NewMangaService(repo, nil)

	filter := repository.MangaFilter{Search: "one", Genre: "action"}
	repo.On("List", ctx, filter, 10, 10).Return([]models.Manga{
		{ID: 11, Title: "One Piece", Genres: []models.Genre{{ID: 1, Name: "Action"}}},
	}, int64(11), nil)

	resp, err := svc.ListManga(ctx, pagination.Params{Page: 2, Limit: 10}, "one", "action")
	require.NoError(t, err)
	require.Len(t, resp.Manga, 1)
	assert.Equal(t, []string{"Action"}, resp.Manga[0].Genres)
	assert.Equal(t, int64(2), resp.Pagination.Pages)
}

func TestMangaService_GetManga(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		avg := 7.5
		repo.On("GetByID", ctx, int64(1)).Return(&models.Manga{ID: 1, Title: "Berserk", ChapterCount: 3, AvgRating: &avg}, nil)

		resp, err := svc.GetManga(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Berserk", resp.Title)
		assert.Equal(t, int64(3), resp.ChapterCount)
		assert.Equal(t, 7.5, *resp.AvgRating)
		assert.Empty(t, resp.Genres)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("GetByID", ctx, int64(2)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetManga(ctx, 2)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("StorageError", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("GetByID", ctx, int64(3)).Return(nil, errors.New("db down"))

		_, err := svc.GetManga(ctx, 3)
		assert.True(t, apperr.HasCode(err, apperr.CodeStorage))
	})
}

func TestMangaService_GetChapter(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMangaRepository)
	svc := NewMangaService(repo, nil)

	repo.On("GetChapter", ctx, int64(1), int64(5)).Return(&models.Chapter{
		ID: 5, MangaID: 1, Number: 2,
		Pages: []models.Page{{ID: 1, Number: 1, ImageURL: "a"}, {ID: 2, Number: 2, ImageURL: "b"}},
	}, nil)
	repo.On("GetChapter", ctx, int64(2), int64(5)).Return(nil, gorm.ErrRecordNotFound)

	resp, err := svc.GetChapter(ctx, 1, 5)
	require.NoError(t, err)
	assert.Len(t, resp.Pages, 2)
	assert.Equal(t, 1, resp.Pages[0].Number)

	_, err = svc.GetChapter(ctx, 2, 5)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestMangaService_CreateManga(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultsApplied", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)

		repo.On("Create", ctx, mock.MatchedBy(func(m *models.Manga) bool {
			return m.Title == "Vagabond" && m.Status == models.StatusOngoing && m.Type == models.TypeManga
		}), []string{"Seinen"}).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Manga).ID = 9
		}).Return(nil)
		repo.On("GetByID", ctx, int64(9)).Return(&models.Manga{ID: 9, Title: "Vagabond", Genres: []models.Genre{{Name: "Seinen"}}}, nil)

		resp, err := svc.CreateManga(ctx, dto.CreateMangaDTO{Title: " Vagabond ", Genres: []string{"Seinen"}})
		require.NoError(t, err)
		assert.Equal(t, int64(9), resp.ID)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)

		_, err := svc.CreateManga(ctx, dto.CreateMangaDTO{Title: "X", Status: "paused"})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)

		_, err := svc.CreateManga(ctx, dto.CreateMangaDTO{Title: "X", Rating: 10.5})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})
}

func TestMangaService_UpdateManga(t *testing.T) {
	ctx := context.Background()
	title := "New Title"

	t.Run("PartialUpdate", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("Update", ctx, int64(1), map[string]any{"title": "New Title"}, []string(nil)).Return(nil)
		repo.On("GetByID", ctx, int64(1)).Return(&models.Manga{ID: 1, Title: title}, nil)

		resp, err := svc.UpdateManga(ctx, 1, dto.UpdateMangaDTO{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, resp.Title)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("Update", ctx, int64(4), mock.Anything, mock.Anything).Return(gorm.ErrRecordNotFound)

		_, err := svc.UpdateManga(ctx, 4, dto.UpdateMangaDTO{Title: &title})
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("BlankTitle", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		blank := "  "

		_, err := svc.UpdateManga(ctx, 1, dto.UpdateMangaDTO{Title: &blank})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})
}

func TestMangaService_AddChapter(t *testing.T) {
	ctx := context.Background()
	in := dto.AddChapterDTO{Number: 3, Title: "Dawn", Pages: []dto.PageDTO{
		{Number: 2, ImageURL: "p2"}, {Number: 1, ImageURL: "p1"},
	}}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("Exists", ctx, int64(1)).Return(true, nil)
		repo.On("ChapterNumberExists", ctx, int64(1), 3).Return(false, nil)
		repo.On("AddChapter", ctx, mock.AnythingOfType("*models.Chapter")).Return(nil)

		resp, err := svc.AddChapter(ctx, 1, in)
		require.NoError(t, err)
		require.Len(t, resp.Pages, 2)
		assert.Equal(t, 1, resp.Pages[0].Number)
		assert.Equal(t, "p2", resp.Pages[1].ImageURL)
	})

	t.Run("DuplicateNumber", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("Exists", ctx, int64(1)).Return(true, nil)
		repo.On("ChapterNumberExists", ctx, int64(1), 3).Return(true, nil)

		_, err := svc.AddChapter(ctx, 1, in)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("UnknownManga", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		repo.On("Exists", ctx, int64(2)).Return(false, nil)

		_, err := svc.AddChapter(ctx, 2, in)
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})

	t.Run("DuplicatePageNumber", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)

		_, err := svc.AddChapter(ctx, 1, dto.AddChapterDTO{Number: 1, Pages: []dto.PageDTO{{Number: 1}, {Number: 1}}})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	})
}

func TestMangaService_RateManga(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		avg := 8.0
		repo.On("Exists", ctx, int64(1)).Return(true, nil)
		repo.On("UpsertRating", ctx, "u1", int64(1), 8).Return(nil)
		repo.On("GetByID", ctx, int64(1)).Return(&models.Manga{ID: 1, AvgRating: &avg}, nil)

		resp, err := svc.RateManga(ctx, "u1", 1, 8)
		require.NoError(t, err)
		assert.Equal(t, 8.0, *resp.AvgRating)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		repo := new(MockMangaRepository)
		svc := NewMangaService(repo, nil)
		for _, score := range []int{0, 11} {
			_, err := svc.RateManga(ctx, "u1", 1, score)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		}
	})
}

func TestMangaService_IncrementViewsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMangaRepository)
	svc := NewMangaService(repo, nil)

	repo.On("IncrementViews", ctx, int64(1)).Return(int64(5), nil)
	repo.On("IncrementViews", ctx, int64(2)).Return(int64(0), gorm.ErrRecordNotFound)
	repo.On("Delete", ctx, int64(1)).Return(nil)
	repo.On("Delete", ctx, int64(2)).Return(gorm.ErrRecordNotFound)

	views, err := svc.IncrementViews(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), views)

	_, err = svc.IncrementViews(ctx, 2)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	assert.NoError(t, svc.DeleteManga(ctx, 1))
	assert.True(t, apperr.HasCode(svc.DeleteManga(ctx, 2), apperr.CodeNotFound))
}
