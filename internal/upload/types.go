// Package upload persists manga submissions: cover and page images go to the
// blob store, the assembled record goes onto the uploaded-manga shelf kept in
// the key-value store.
package upload

import "time"

// EmptyRef is the image reference recorded for a page whose image could not be stored.
const EmptyRef = ""

const shelfKey = "uploaded_manga"

var (
	validStatuses = []string{"ongoing", "completed", "hiatus", "cancelled"}
	validTypes    = []string{"manga", "manhwa", "manhua", "novel"}
)

// File is one uploaded image.
type File struct {
	FileName string
	Data     []byte
}

type ChapterSubmission struct {
	Number int
	Title  string
	Pages  []File
}

type Submission struct {
	Title         string
	Author        string
	Artist        string
	Description   string
	Genres        []string
	Status        string
	Type          string
	Released      string
	Serialization string
	Rating        float64
	Cover         *File
	Chapters      []ChapterSubmission
	UploadedBy    string
}

type Manga struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Artist        string    `json:"artist"`
	Description   string    `json:"description"`
	Genres        []string  `json:"genres"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Released      string    `json:"released"`
	Serialization string    `json:"serialization"`
	Rating        float64   `json:"rating"`
	CoverImage    string    `json:"coverImage"`
	Chapters      []Chapter `json:"chapters"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UploadedBy    string    `json:"uploadedBy"`
	PostedOn      time.Time `json:"postedOn"`
	UpdatedOn     time.Time `json:"updatedOn"`
	Views         int64     `json:"views"`
}

type Chapter struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Pages  []Page `json:"pages"`
}

type Page struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
	FileName   string `json:"fileName"`
}

// MissingPages counts pages stored with EmptyRef.
func (m *Manga) MissingPages() int {
	n := 0
	for _, ch := range m.Chapters {
		for _, p := range ch.Pages {
			if p.ImageURL == EmptyRef {
				n++
			}
		}
	}
	return n
}

// Changes is a partial metadata update; nil fields are left alone.
type Changes struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Artist        *string  `json:"artist"`
	Description   *string  `json:"description"`
	Genres        []string `json:"genres"`
	Status        *string  `json:"status"`
	Type          *string  `json:"type"`
	Released      *string  `json:"released"`
	Serialization *string  `json:"serialization"`
	Rating        *float64 `json:"rating"`
}

type Stats struct {
	TotalManga      int            `json:"totalManga"`
	TotalChapters   int            `json:"totalChapters"`
	TotalPages      int            `json:"totalPages"`
	MissingPages    int            `json:"missingPages"`
	AverageRating   float64        `json:"averageRating"`
	StatusBreakdown map[string]int `json:"statusBreakdown"`
	GenreBreakdown  map[string]int `json:"genreBreakdown"`
}

// ProgressFunc receives the completed percentage and a status line.
type ProgressFunc func(percent int, status string)
