package models

import "time"

// Chapter numbers are caller-assigned and may have gaps.
type Chapter struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	MangaID   int64     `json:"manga_id" gorm:"not null;uniqueIndex:idx_chapters_manga_number"`
	Number    int       `json:"number" gorm:"not null;uniqueIndex:idx_chapters_manga_number"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	Pages []Page `json:"pages,omitempty" gorm:"foreignKey:ChapterID;constraint:OnDelete:CASCADE;"`
}

func (Chapter) TableName() string {
	return "chapters"
}

type Page struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	ChapterID int64  `json:"chapter_id" gorm:"not null;uniqueIndex:idx_pages_chapter_number"`
	Number    int    `json:"page_number" gorm:"not null;uniqueIndex:idx_pages_chapter_number"`
	ImageURL  string `json:"image_url"`
	FileName  string `json:"file_name"`
}

func (Page) TableName() string {
	return "pages"
}
