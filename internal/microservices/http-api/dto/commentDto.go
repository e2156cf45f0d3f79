package dto

import (
	"time"

	"mangareader/internal/microservices/http-api/models"
	"mangareader/pkg/pagination"
)

// CreateCommentDTO for POST /comments. Length rules are enforced after trimming
// by the service.
type CreateCommentDTO struct {
	Content   string `json:"content" binding:"required"`
	MangaID   int64  `json:"manga_id" binding:"required,gt=0"`
	ChapterID *int64 `json:"chapter_id,omitempty" binding:"omitempty,gt=0"`
	ParentID  *int64 `json:"parent_id,omitempty" binding:"omitempty,gt=0"`
}

// UpdateCommentDTO for PUT /comments/:id
type UpdateCommentDTO struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID        int64      `json:"id"`
	MangaID   int64      `json:"manga_id"`
	ChapterID *int64     `json:"chapter_id"`
	ParentID  *int64     `json:"parent_id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Edited    bool       `json:"edited"`
	LikeCount int64      `json:"like_count"`
	UserLiked bool       `json:"user_liked"`
	LikedBy   []string   `json:"liked_by"`
}

func FromModelToCommentResponse(c *models.Comment) *CommentResponse {
	likedBy := c.LikedBy
	if likedBy == nil {
		likedBy = []string{}
	}
	return &CommentResponse{
		ID:        c.ID,
		MangaID:   c.MangaID,
		ChapterID: c.ChapterID,
		ParentID:  c.ParentID,
		UserID:    c.UserID,
		Username:  c.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.EditedAt,
		Edited:    c.EditedAt != nil,
		LikeCount: c.LikeCount,
		UserLiked: c.UserLiked,
		LikedBy:   likedBy,
	}
}

func FromModelsToCommentResponses(list []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(list))
	for i := range list {
		out = append(out, *FromModelToCommentResponse(&list[i]))
	}
	return out
}

// CommentListResponse is the body of GET /comments/:manga_id[/:chapter_id].
type CommentListResponse struct {
	Comments   []CommentResponse `json:"comments"`
	Pagination pagination.Meta   `json:"pagination"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}
