package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"mangareader/internal/apperr"
	"mangareader/internal/library"
	"mangareader/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 10 << 20

// LibraryHandler serves a reader's library, progress, bookmarks, history and
// preferences. The group must run ReaderIdentity.
type LibraryHandler struct {
	libraries *library.Manager
}

func NewLibraryHandler(libraries *library.Manager) *LibraryHandler {
	return &LibraryHandler{libraries: libraries}
}

func (h *LibraryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Save)
	rg.GET("/stats", h.Stats)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)
	rg.GET("/:manga_id/saved", h.Contains)
	rg.DELETE("/:manga_id", h.Remove)
	rg.GET("/:manga_id/chapters/:number/pages", h.LocalPages)

	rg.GET("/progress", h.AllProgress)
	rg.GET("/progress/:manga_id", h.Progress)
	rg.PUT("/progress/:manga_id", h.SaveProgress)
	rg.DELETE("/progress/:manga_id", h.ClearProgress)
	rg.POST("/progress/:manga_id/time", h.AddReadingTime)

	rg.GET("/bookmarks", h.Bookmarks)
	rg.POST("/bookmarks", h.AddBookmark)

	rg.GET("/history", h.History)
	rg.POST("/history", h.AddToHistory)

	rg.GET("/preferences", h.Preferences)
	rg.PUT("/preferences", h.SavePreferences)
}

func (h *LibraryHandler) store(c *gin.Context) *library.Store {
	return h.libraries.For(c.GetString(middleware.KeyReaderID))
}

// List GET /library?q=&genre=&sort=title|author|rating|dateAdded&order=asc|desc
// Filters are AND-combined and the result is sorted when sort or order is given.
func (h *LibraryHandler) List(c *gin.Context) {
	q := library.Query{
		Search: c.Query("q"),
		Genre:  c.Query("genre"),
		Desc:   c.Query("order") == "desc",
	}
	if c.Query("sort") != "" || c.Query("order") != "" {
		field, err := library.ParseSortField(c.Query("sort"))
		if err != nil {
			respondError(c, err)
			return
		}
		q.SortBy = field
	}

	list, err := h.store(c).Find(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mangas": list})
}

func (h *LibraryHandler) Save(c *gin.Context) {
	var entry library.SavedManga
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, err.Error())
		return
	}
	added, err := h.store(c).Save(c.Request.Context(), entry)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"added": added})
}

func (h *LibraryHandler) Remove(c *gin.Context) {
	removed, err := h.store(c).Remove(c.Request.Context(), c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *LibraryHandler) Contains(c *gin.Context) {
	saved, err := h.store(c).Contains(c.Request.Context(), c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (h *LibraryHandler) Stats(c *gin.Context) {
	stats, err := h.store(c).Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *LibraryHandler) LocalPages(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		badRequest(c, "invalid chapter number")
		return
	}
	pages, err := h.store(c).LocalPages(c.Request.Context(), c.Param("manga_id"), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

func (h *LibraryHandler) AllProgress(c *gin.Context) {
	all, err := h.store(c).AllProgress(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": all})
}

// Progress answers {"progress": null} when nothing was recorded.
func (h *LibraryHandler) Progress(c *gin.Context) {
	p, err := h.store(c).Progress(c.Request.Context(), c.Param("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": p})
}

func (h *LibraryHandler) SaveProgress(c *gin.Context) {
	var p library.ReadingProgress
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	p.MangaID = c.Param("manga_id")
	if err := h.store(c).SaveProgress(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": p})
}

func (h *LibraryHandler) ClearProgress(c *gin.Context) {
	if err := h.store(c).ClearProgress(c.Request.Context(), c.Param("manga_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type readingTimeRequest struct {
	Seconds int `json:"seconds" binding:"required,gt=0"`
}

func (h *LibraryHandler) AddReadingTime(c *gin.Context) {
	var req readingTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := h.store(c).IncrementReadingTime(c.Request.Context(), c.Param("manga_id"), req.Seconds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// Bookmarks GET /library/bookmarks?manga_id=
func (h *LibraryHandler) Bookmarks(c *gin.Context) {
	list, err := h.store(c).Bookmarks(c.Request.Context(), c.Query("manga_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": list})
}

func (h *LibraryHandler) AddBookmark(c *gin.Context) {
	var b library.Bookmark
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.store(c).AddBookmark(c.Request.Context(), b)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *LibraryHandler) History(c *gin.Context) {
	items, err := h.store(c).History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

func (h *LibraryHandler) AddToHistory(c *gin.Context) {
	var item library.HistoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store(c).AddToHistory(c.Request.Context(), item); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LibraryHandler) Preferences(c *gin.Context) {
	prefs, err := h.store(c).Preferences(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *LibraryHandler) SavePreferences(c *gin.Context) {
	var prefs library.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store(c).SavePreferences(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *LibraryHandler) Export(c *gin.Context) {
	data, err := h.store(c).Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="manga-library.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (h *LibraryHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"code": apperr.CodeValidation, "error": "import file too large"})
			return
		}
		respondError(c, apperr.Parse(err))
		return
	}
	if err := h.store(c).Import(c.Request.Context(), data); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true})
}
