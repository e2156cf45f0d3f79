package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/models"
	"mangareader/internal/microservices/http-api/repository"
	"mangareader/pkg/pagination"

	"gorm.io/gorm"
)

const MaxCommentLength = 1000

type CreateCommentInput struct {
	MangaID   int64
	ChapterID *int64
	ParentID  *int64
	Content   string
}

type CommentService interface {
	ListComments(ctx context.Context, mangaID int64, chapterID *int64, viewerID string, p pagination.Params) (*dto.CommentListResponse, error)
	ListReplies(ctx context.Context, parentID int64, viewerID string) ([]dto.CommentResponse, error)
	GetComment(ctx context.Context, commentID int64, viewerID string) (*dto.CommentResponse, error)
	CreateComment(ctx context.Context, author Actor, in CreateCommentInput) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, commentID int64, actor Actor, content string) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, commentID int64, actor Actor) error
	ToggleLike(ctx context.Context, commentID int64, userID string) (bool, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewCommentService(commentRepo repository.CommentRepository, logger *slog.Logger) CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &commentService{
		commentRepo: commentRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// normalizeContent trims content and enforces 1..MaxCommentLength characters.
func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("comment content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", apperr.Validation("comment content must be at most 1000 characters")
	}
	return content, nil
}

func (s *commentService) storageError(event string, err error, attrs ...any) error {
	s.logger.Error(event, append(attrs, "error", err)...)
	return apperr.Storage(err)
}

func (s *commentService) ListComments(ctx context.Context, mangaID int64, chapterID *int64, viewerID string, p pagination.Params) (*dto.CommentListResponse, error) {
	comments, total, err := s.commentRepo.ListTopLevel(ctx, mangaID, chapterID, viewerID, p.Limit, p.Offset())
	if err != nil {
		return nil, s.storageError("comment_list_failed", err, "manga_id", mangaID)
	}
	return &dto.CommentListResponse{
		Comments:   dto.FromModelsToCommentResponses(comments),
		Pagination: pagination.NewMeta(p, total),
	}, nil
}

func (s *commentService) ListReplies(ctx context.Context, parentID int64, viewerID string) ([]dto.CommentResponse, error) {
	replies, err := s.commentRepo.ListReplies(ctx, parentID, viewerID)
	if err != nil {
		return nil, s.storageError("comment_replies_failed", err, "parent_id", parentID)
	}
	return dto.FromModelsToCommentResponses(replies), nil
}

func (s *commentService) GetComment(ctx context.Context, commentID int64, viewerID string) (*dto.CommentResponse, error) {
	comment, err := s.find(ctx, commentID, viewerID)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToCommentResponse(comment), nil
}

func (s *commentService) find(ctx context.Context, commentID int64, viewerID string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("comment")
	}
	if err != nil {
		return nil, s.storageError("comment_get_failed", err, "comment_id", commentID)
	}
	return comment, nil
}

// CreateComment checks that the manga, chapter and parent exist before
// inserting. The checks and the insert are separate statements.
func (s *commentService) CreateComment(ctx context.Context, author Actor, in CreateCommentInput) (*dto.CommentResponse, error) {
	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}

	ok, err := s.commentRepo.MangaExists(ctx, in.MangaID)
	if err != nil {
		return nil, s.storageError("comment_create_failed", err, "manga_id", in.MangaID)
	}
	if !ok {
		return nil, apperr.NotFound("manga")
	}

	if in.ChapterID != nil {
		ok, err := s.commentRepo.ChapterBelongsToManga(ctx, *in.ChapterID, in.MangaID)
		if err != nil {
			return nil, s.storageError("comment_create_failed", err, "chapter_id", *in.ChapterID)
		}
		if !ok {
			return nil, apperr.NotFound("chapter")
		}
	}

	if in.ParentID != nil {
		ok, err := s.commentRepo.CommentBelongsToManga(ctx, *in.ParentID, in.MangaID)
		if err != nil {
			return nil, s.storageError("comment_create_failed", err, "parent_id", *in.ParentID)
		}
		if !ok {
			return nil, apperr.NotFound("parent comment")
		}
	}

	comment := &models.Comment{
		MangaID:   in.MangaID,
		ChapterID: in.ChapterID,
		ParentID:  in.ParentID,
		UserID:    author.UserID,
		Username:  author.Username,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, s.storageError("comment_create_failed", err, "manga_id", in.MangaID)
	}

	s.logger.Info("comment_created", "comment_id", comment.ID, "manga_id", comment.MangaID, "user_id", author.UserID)
	return dto.FromModelToCommentResponse(comment), nil
}

// UpdateComment checks existence, then ownership, then the new content.
func (s *commentService) UpdateComment(ctx context.Context, commentID int64, actor Actor, content string) (*dto.CommentResponse, error) {
	comment, err := s.find(ctx, commentID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(comment.UserID) {
		return nil, apperr.Forbidden("you don't have permission to update this comment")
	}
	content, err = normalizeContent(content)
	if err != nil {
		return nil, err
	}

	editedAt := s.now()
	if err := s.commentRepo.UpdateContent(ctx, commentID, content, editedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment")
		}
		return nil, s.storageError("comment_update_failed", err, "comment_id", commentID)
	}

	comment.Content = content
	comment.EditedAt = &editedAt
	return dto.FromModelToCommentResponse(comment), nil
}

// DeleteComment removes the comment and all replies below it.
func (s *commentService) DeleteComment(ctx context.Context, commentID int64, actor Actor) error {
	comment, err := s.find(ctx, commentID, "")
	if err != nil {
		return err
	}
	if !actor.CanModify(comment.UserID) {
		return apperr.Forbidden("you don't have permission to delete this comment")
	}

	deleted, err := s.commentRepo.DeleteCascade(ctx, commentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("comment")
	}
	if err != nil {
		return s.storageError("comment_delete_failed", err, "comment_id", commentID)
	}
	s.logger.Info("comment_deleted", "comment_id", commentID, "removed", deleted, "by", actor.UserID)
	return nil
}

func (s *commentService) ToggleLike(ctx context.Context, commentID int64, userID string) (bool, error) {
	if _, err := s.find(ctx, commentID, ""); err != nil {
		return false, err
	}
	liked, err := s.commentRepo.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return false, s.storageError("comment_like_failed", err, "comment_id", commentID)
	}
	return liked, nil
}
