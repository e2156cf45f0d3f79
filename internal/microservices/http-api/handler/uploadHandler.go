package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/middleware"
	"mangareader/internal/upload"

	"github.com/gin-gonic/gin"
)

const chapterFieldPrefix = "chapter_"

// UploadHandler serves the admin upload shelf.
type UploadHandler struct {
	pipeline *upload.Pipeline
	maxBytes int64
}

func NewUploadHandler(pipeline *upload.Pipeline, maxBytes int64) *UploadHandler {
	return &UploadHandler{pipeline: pipeline, maxBytes: maxBytes}
}

// RegisterRoutes expects a group already restricted to admins.
func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Upload)
	rg.GET("", h.List)
	rg.GET("/search", h.Search)
	rg.GET("/stats", h.Stats)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/chapters", h.AddChapter)
	rg.POST("/:id/views", h.IncrementViews)
}

// Upload accepts multipart/form-data:
//
//	title, author, artist, description, status, type, released, serialization, rating
//	genres       repeated or comma separated
//	cover        optional image
//	chapter_<n>  page images of chapter n, in page order
//	chapter_<n>_title
//
// With "Accept: text/event-stream" progress is streamed as SSE "progress"
// events followed by a "complete" or "error" event.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, ok := h.multipart(c)
	if !ok {
		return
	}
	sub, err := submissionFromForm(form)
	if err != nil {
		respondError(c, err)
		return
	}
	sub.UploadedBy = c.GetString(middleware.KeyUsername)
	if err := upload.ValidateSubmission(sub); err != nil {
		respondError(c, err)
		return
	}

	if !wantsEventStream(c) {
		m, err := h.pipeline.Upload(c.Request.Context(), sub, nil)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"manga": m, "missingPages": m.MissingPages()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	m, err := h.pipeline.Upload(c.Request.Context(), sub, func(percent int, status string) {
		c.SSEvent("progress", gin.H{"percent": percent, "status": status})
		c.Writer.Flush()
	})
	if err != nil {
		ae := apperr.As(err)
		if ae == nil {
			ae = apperr.Internal(err)
		}
		_ = c.Error(err)
		c.SSEvent("error", gin.H{"code": ae.Code, "error": ae.Message})
		return
	}
	c.SSEvent("complete", gin.H{"manga": m, "missingPages": m.MissingPages()})
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func (h *UploadHandler) multipart(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "invalid multipart form: "+err.Error())
		return nil, false
	}
	return form, true
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func readFile(fh *multipart.FileHeader) (upload.File, error) {
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{FileName: fh.Filename, Data: data}, nil
}

func splitGenres(values []string) []string {
	var out []string
	for _, v := range values {
		for _, g := range strings.Split(v, ",") {
			if g = strings.TrimSpace(g); g != "" {
				out = append(out, g)
			}
		}
	}
	return out
}

// chapterFromForm reads chapter_<n> files and chapter_<n>_title.
func chapterFromForm(form *multipart.Form, number int) (upload.ChapterSubmission, error) {
	key := chapterFieldPrefix + strconv.Itoa(number)
	ch := upload.ChapterSubmission{Number: number, Title: formValue(form, key+"_title")}
	for _, fh := range form.File[key] {
		f, err := readFile(fh)
		if err != nil {
			return ch, apperr.Validation(fmt.Sprintf("unreadable page %q", fh.Filename))
		}
		ch.Pages = append(ch.Pages, f)
	}
	return ch, nil
}

func submissionFromForm(form *multipart.Form) (upload.Submission, error) {
	sub := upload.Submission{
		Title:         formValue(form, "title"),
		Author:        formValue(form, "author"),
		Artist:        formValue(form, "artist"),
		Description:   formValue(form, "description"),
		Genres:        splitGenres(form.Value["genres"]),
		Status:        formValue(form, "status"),
		Type:          formValue(form, "type"),
		Released:      formValue(form, "released"),
		Serialization: formValue(form, "serialization"),
	}
	if r := formValue(form, "rating"); r != "" {
		rating, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return sub, apperr.Validation("rating must be a number")
		}
		sub.Rating = rating
	}
	if covers := form.File["cover"]; len(covers) > 0 {
		cover, err := readFile(covers[0])
		if err != nil {
			return sub, apperr.Validation("unreadable cover image")
		}
		sub.Cover = &cover
	}

	var numbers []int
	for key := range form.File {
		rest, ok := strings.CutPrefix(key, chapterFieldPrefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return sub, apperr.Validation(fmt.Sprintf("invalid chapter field %q", key))
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		ch, err := chapterFromForm(form, n)
		if err != nil {
			return sub, err
		}
		sub.Chapters = append(sub.Chapters, ch)
	}
	return sub, nil
}

func (h *UploadHandler) List(c *gin.Context) {
	list, err := h.pipeline.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"manga": list})
}

func (h *UploadHandler) Get(c *gin.Context) {
	m, err := h.pipeline.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *UploadHandler) Update(c *gin.Context) {
	var changes upload.Changes
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.pipeline.Update(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.pipeline.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Manga deleted successfully"})
}

// AddChapter takes multipart fields number, title and files pages.
func (h *UploadHandler) AddChapter(c *gin.Context) {
	form, ok := h.multipart(c)
	if !ok {
		return
	}
	number, err := strconv.Atoi(formValue(form, "number"))
	if err != nil {
		badRequest(c, "number must be an integer")
		return
	}
	ch := upload.ChapterSubmission{Number: number, Title: formValue(form, "title")}
	for _, fh := range form.File["pages"] {
		f, err := readFile(fh)
		if err != nil {
			badRequest(c, fmt.Sprintf("unreadable page %q", fh.Filename))
			return
		}
		ch.Pages = append(ch.Pages, f)
	}

	added, err := h.pipeline.AddChapter(c.Request.Context(), c.Param("id"), ch, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (h *UploadHandler) Search(c *gin.Context) {
	list, err := h.pipeline.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"manga": list})
}

func (h *UploadHandler) Stats(c *gin.Context) {
	stats, err := h.pipeline.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UploadHandler) IncrementViews(c *gin.Context) {
	views, err := h.pipeline.IncrementViews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}
