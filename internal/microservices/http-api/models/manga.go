package models

import "time"

const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
	StatusCancelled = "cancelled"

	TypeManga  = "manga"
	TypeManhwa = "manhwa"
	TypeManhua = "manhua"
	TypeNovel  = "novel"
)

var (
	MangaStatuses = []string{StatusOngoing, StatusCompleted, StatusHiatus, StatusCancelled}
	MangaTypes    = []string{TypeManga, TypeManhwa, TypeManhua, TypeNovel}
)

type Manga struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title         string    `json:"title" gorm:"not null;index"`
	Author        string    `json:"author"`
	Artist        string    `json:"artist"`
	Description   string    `json:"description" gorm:"type:text"`
	Status        string    `json:"status" gorm:"size:20;not null;default:ongoing"`
	Type          string    `json:"type" gorm:"size:20;not null;default:manga"`
	ReleaseYear   string    `json:"release_year" gorm:"size:10"`
	Serialization string    `json:"serialization"`
	Rating        float64   `json:"rating" gorm:"type:decimal(4,2);not null;default:0"`
	CoverURL      string    `json:"cover_url"`
	Views         int64     `json:"views" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// association
	Genres   []Genre   `json:"genres" gorm:"many2many:manga_genres;constraint:OnDelete:CASCADE;"`
	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:MangaID;constraint:OnDelete:CASCADE;"`

	// derived, filled by catalog queries
	ChapterCount int64    `json:"chapter_count" gorm:"->;-:migration"`
	AvgRating    *float64 `json:"avg_rating" gorm:"->;-:migration"`
}

func (Manga) TableName() string {
	return "manga"
}

// GenreNames flattens the genre association.
func (m *Manga) GenreNames() []string {
	names := make([]string, len(m.Genres))
	for i, g := range m.Genres {
		names[i] = g.Name
	}
	return names
}
