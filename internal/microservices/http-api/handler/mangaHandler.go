package handler

import (
	"net/http"

	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/middleware"
	"mangareader/internal/microservices/http-api/service"
	"mangareader/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type MangaHandler struct {
	svc service.MangaService
}

func NewMangaHandler(svc service.MangaService) *MangaHandler {
	return &MangaHandler{svc: svc}
}

func (h *MangaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// Public routes
	rg.GET("", h.List)
	rg.GET("/:manga_id", h.Get)
	rg.GET("/:manga_id/chapters", h.ListChapters)
	rg.GET("/:manga_id/chapters/:chapter_id", h.GetChapter)
	rg.POST("/:manga_id/views", h.IncrementViews)

	// Any signed-in reader
	rg.PUT("/:manga_id/rating", middleware.RequireUser(), h.Rate)

	// Admin-only routes
	admin := rg.Group("", middleware.RequireUser(), middleware.RequireAdmin())
	admin.POST("", h.Create)
	admin.PUT("/:manga_id", h.Update)
	admin.DELETE("/:manga_id", h.Delete)
	admin.POST("/:manga_id/chapters", h.AddChapter)
}

// List GET /manga?page=&limit=&search=&genre=
func (h *MangaHandler) List(c *gin.Context) {
	resp, err := h.svc.ListManga(c.Request.Context(), pagination.FromContext(c), c.Query("search"), c.Query("genre"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MangaHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	m, err := h.svc.GetManga(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MangaHandler) ListChapters(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	chapters, err := h.svc.ListChapters(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *MangaHandler) GetChapter(c *gin.Context) {
	mangaID, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	chapterID, ok := pathID(c, "chapter_id")
	if !ok {
		return
	}
	ch, err := h.svc.GetChapter(c.Request.Context(), mangaID, chapterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *MangaHandler) Create(c *gin.Context) {
	var req dto.CreateMangaDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.svc.CreateManga(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MangaHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	var req dto.UpdateMangaDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.svc.UpdateManga(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MangaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteManga(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Manga deleted successfully"})
}

func (h *MangaHandler) IncrementViews(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	views, err := h.svc.IncrementViews(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

func (h *MangaHandler) AddChapter(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	var req dto.AddChapterDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ch, err := h.svc.AddChapter(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// Rate PUT /manga/:manga_id/rating {"rating": 1..10}
func (h *MangaHandler) Rate(c *gin.Context) {
	id, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	var req dto.RateMangaDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.svc.RateManga(c.Request.Context(), c.GetString(middleware.KeyUserID), id, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
