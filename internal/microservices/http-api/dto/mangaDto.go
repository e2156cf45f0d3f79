package dto

import (
	"time"

	"mangareader/internal/microservices/http-api/models"
	"mangareader/pkg/pagination"
)

// CreateMangaDTO used for POST /manga
type CreateMangaDTO struct {
	Title         string   `json:"title" binding:"required"`
	Author        string   `json:"author"`
	Artist        string   `json:"artist"`
	Description   string   `json:"description"`
	Genres        []string `json:"genres"`
	Status        string   `json:"status"`
	Type          string   `json:"type"`
	ReleaseYear   string   `json:"release_year"`
	Serialization string   `json:"serialization"`
	Rating        float64  `json:"rating"`
	CoverURL      string   `json:"cover_url"`
}

// UpdateMangaDTO used for PUT /manga/:manga_id (partial updates allowed)
type UpdateMangaDTO struct {
	Title         *string  `json:"title,omitempty"`
	Author        *string  `json:"author,omitempty"`
	Artist        *string  `json:"artist,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Genres        []string `json:"genres,omitempty"`
	Status        *string  `json:"status,omitempty"`
	Type          *string  `json:"type,omitempty"`
	ReleaseYear   *string  `json:"release_year,omitempty"`
	Serialization *string  `json:"serialization,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	CoverURL      *string  `json:"cover_url,omitempty"`
}

// Fields returns the column updates carried by the DTO.
func (d UpdateMangaDTO) Fields() map[string]any {
	fields := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			fields[col] = *v
		}
	}
	set("title", d.Title)
	set("author", d.Author)
	set("artist", d.Artist)
	set("description", d.Description)
	set("status", d.Status)
	set("type", d.Type)
	set("release_year", d.ReleaseYear)
	set("serialization", d.Serialization)
	set("cover_url", d.CoverURL)
	if d.Rating != nil {
		fields["rating"] = *d.Rating
	}
	return fields
}

type PageDTO struct {
	Number   int    `json:"page_number" binding:"required,gt=0"`
	ImageURL string `json:"image_url"`
	FileName string `json:"file_name"`
}

// AddChapterDTO used for POST /manga/:manga_id/chapters
type AddChapterDTO struct {
	Number int       `json:"number" binding:"required,gt=0"`
	Title  string    `json:"title"`
	Pages  []PageDTO `json:"pages" binding:"dive"`
}

type RateMangaDTO struct {
	Rating int `json:"rating" binding:"required"`
}

type MangaResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Artist        string    `json:"artist"`
	Description   string    `json:"description"`
	Genres        []string  `json:"genres"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	ReleaseYear   string    `json:"release_year"`
	Serialization string    `json:"serialization"`
	Rating        float64   `json:"rating"`
	CoverURL      string    `json:"cover_url"`
	Views         int64     `json:"views"`
	ChapterCount  int64     `json:"chapter_count"`
	AvgRating     *float64  `json:"avg_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func FromModelToResponse(m models.Manga) MangaResponse {
	return MangaResponse{
		ID:            m.ID,
		Title:         m.Title,
		Author:        m.Author,
		Artist:        m.Artist,
		Description:   m.Description,
		Genres:        m.GenreNames(),
		Status:        m.Status,
		Type:          m.Type,
		ReleaseYear:   m.ReleaseYear,
		Serialization: m.Serialization,
		Rating:        m.Rating,
		CoverURL:      m.CoverURL,
		Views:         m.Views,
		ChapterCount:  m.ChapterCount,
		AvgRating:     m.AvgRating,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MangaListResponse is the body of GET /manga.
type MangaListResponse struct {
	Manga      []MangaResponse `json:"manga"`
	Pagination pagination.Meta `json:"pagination"`
}

type ChapterSummary struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type PageResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"page_number"`
	ImageURL string `json:"image_url"`
	FileName string `json:"file_name"`
}

type ChapterResponse struct {
	ID        int64          `json:"id"`
	MangaID   int64          `json:"manga_id"`
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	Pages     []PageResponse `json:"pages"`
}

func FromChapterModels(list []models.Chapter) []ChapterSummary {
	out := make([]ChapterSummary, 0, len(list))
	for _, ch := range list {
		out = append(out, ChapterSummary{ID: ch.ID, Number: ch.Number, Title: ch.Title, CreatedAt: ch.CreatedAt})
	}
	return out
}

func FromChapterModel(ch models.Chapter) ChapterResponse {
	pages := make([]PageResponse, 0, len(ch.Pages))
	for _, p := range ch.Pages {
		pages = append(pages, PageResponse{ID: p.ID, Number: p.Number, ImageURL: p.ImageURL, FileName: p.FileName})
	}
	return ChapterResponse{
		ID:        ch.ID,
		MangaID:   ch.MangaID,
		Number:    ch.Number,
		Title:     ch.Title,
		CreatedAt: ch.CreatedAt,
		Pages:     pages,
	}
}
