package handler

import (
	"net/http"

	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/middleware"
	"mangareader/internal/microservices/http-api/service"
	"mangareader/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// RegisterRoutes registers comment-related routes. The group is expected to
// run OptionalAuth so listings can report the viewer's likes.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/replies/:id", h.ListReplies)
	rg.GET("/:manga_id", h.List)
	rg.GET("/:manga_id/:chapter_id", h.List)

	rg.POST("", middleware.RequireUser(), h.Create)
	rg.PUT("/:id", middleware.RequireUser(), h.Update)
	rg.DELETE("/:id", middleware.RequireUser(), h.Delete)
	rg.POST("/:id/like", middleware.RequireUser(), h.ToggleLike)
}

// List returns top-level comments of a manga, or of one of its chapters.
// GET /comments/:manga_id[/:chapter_id]
func (h *CommentHandler) List(c *gin.Context) {
	mangaID, ok := pathID(c, "manga_id")
	if !ok {
		return
	}
	var chapterID *int64
	if c.Param("chapter_id") != "" {
		id, ok := pathID(c, "chapter_id")
		if !ok {
			return
		}
		chapterID = &id
	}

	resp, err := h.commentService.ListComments(c.Request.Context(), mangaID, chapterID,
		c.GetString(middleware.KeyUserID), pagination.FromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListReplies returns the direct replies of a comment, oldest first.
// GET /comments/replies/:id
func (h *CommentHandler) ListReplies(c *gin.Context) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	replies, err := h.commentService.ListReplies(c.Request.Context(), parentID, c.GetString(middleware.KeyUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}

// Create creates a new comment
// POST /comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req dto.CreateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), actorFrom(c), service.CreateCommentInput{
		MangaID:   req.MangaID,
		ChapterID: req.ChapterID,
		ParentID:  req.ParentID,
		Content:   req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// Update updates an existing comment
// PUT /comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCommentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), commentID, actorFrom(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// Delete deletes a comment and its replies
// DELETE /comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.commentService.DeleteComment(c.Request.Context(), commentID, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// ToggleLike flips the caller's like on a comment
// POST /comments/:id/like
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	liked, err := h.commentService.ToggleLike(c.Request.Context(), commentID, c.GetString(middleware.KeyUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeResponse{Liked: liked})
}
