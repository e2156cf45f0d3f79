package library

import "time"

// SavedManga is one entry of a reader's library.
type SavedManga struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	CoverImage    string         `json:"coverImage"`
	Rating        float64        `json:"rating"`
	Genres        []string       `json:"genres"`
	SavedAt       time.Time      `json:"savedAt"`
	LocalPath     string         `json:"localPath,omitempty"`
	TotalChapters int            `json:"totalChapters,omitempty"`
	Chapters      []LocalChapter `json:"chapters,omitempty"`
}

type LocalChapter struct {
	ID         string      `json:"id"`
	Number     int         `json:"number"`
	Title      string      `json:"title"`
	FolderPath string      `json:"folderPath"`
	Pages      []LocalPage `json:"pages"`
}

type LocalPage struct {
	ID         string `json:"id"`
	PageNumber int    `json:"pageNumber"`
	FileName   string `json:"fileName"`
	FilePath   string `json:"filePath"`
}

type UserLibrary struct {
	UserID string       `json:"userId"`
	Mangas []SavedManga `json:"mangas"`
}

type Stats struct {
	TotalMangas   int          `json:"totalMangas"`
	RecentlyAdded []SavedManga `json:"recentlyAdded"`
}

// ReadingProgress is the single current position for one manga. ReadingTime is in seconds.
type ReadingProgress struct {
	MangaID        string    `json:"mangaId"`
	CurrentChapter int       `json:"currentChapter"`
	CurrentPage    int       `json:"currentPage"`
	TotalChapters  int       `json:"totalChapters"`
	LastReadAt     time.Time `json:"lastReadAt"`
	ReadingTime    int       `json:"readingTime"`
}

type Preferences struct {
	ReadingMode      string `json:"readingMode"`
	AutoBookmark     bool   `json:"autoBookmark"`
	Notifications    bool   `json:"notifications"`
	Theme            string `json:"theme"`
	Language         string `json:"language"`
	AdultContent     bool   `json:"adultContent"`
	AutoPlay         bool   `json:"autoPlay"`
	ReadingDirection string `json:"readingDirection"`
}

// DefaultPreferences is returned until a reader saves their own.
func DefaultPreferences() Preferences {
	return Preferences{
		ReadingMode:      "single",
		AutoBookmark:     true,
		Notifications:    true,
		Theme:            "dark",
		Language:         "en",
		AdultContent:     false,
		AutoPlay:         false,
		ReadingDirection: "ltr",
	}
}

type Bookmark struct {
	ID            string    `json:"id"`
	MangaID       string    `json:"mangaId"`
	ChapterNumber int       `json:"chapterNumber"`
	PageNumber    int       `json:"pageNumber"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type HistoryItem struct {
	MangaID     string    `json:"mangaId"`
	Title       string    `json:"title"`
	CoverImage  string    `json:"coverImage"`
	LastChapter int       `json:"lastChapter"`
	LastPage    int       `json:"lastPage"`
	ReadAt      time.Time `json:"readAt"`
	ReadingTime int       `json:"readingTime"`
}

// Snapshot is the export/import document.
type Snapshot struct {
	Library     *UserLibrary  `json:"library"`
	Preferences *Preferences  `json:"preferences"`
	History     []HistoryItem `json:"history"`
	Bookmarks   []Bookmark    `json:"bookmarks"`
	ExportedAt  time.Time     `json:"exportedAt"`
}
