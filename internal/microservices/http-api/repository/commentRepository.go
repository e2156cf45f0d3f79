package repository

import (
	"context"
	"fmt"
	"time"

	"mangareader/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	ListTopLevel(ctx context.Context, mangaID int64, chapterID *int64, viewerID string, limit, offset int) ([]models.Comment, int64, error)
	ListReplies(ctx context.Context, parentID int64, viewerID string) ([]models.Comment, error)
	GetByID(ctx context.Context, commentID int64, viewerID string) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, commentID int64, content string, editedAt time.Time) error
	DeleteCascade(ctx context.Context, commentID int64) (int64, error)
	ToggleLike(ctx context.Context, commentID int64, userID string) (bool, error)

	MangaExists(ctx context.Context, mangaID int64) (bool, error)
	ChapterBelongsToManga(ctx context.Context, chapterID, mangaID int64) (bool, error)
	CommentBelongsToManga(ctx context.Context, commentID, mangaID int64) (bool, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

const likeCountColumn = "(SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = comments.id) AS like_count"

// withLikes selects the comment row plus its like count, and whether viewerID
// liked it when a viewer is known.
func withLikes(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db.Select("comments.*, " + likeCountColumn)
		}
		return db.Select("comments.*, "+likeCountColumn+
			", EXISTS (SELECT 1 FROM comment_likes uv WHERE uv.comment_id = comments.id AND uv.user_id = ?) AS user_liked", viewerID)
	}
}

// attachLikers fills LikedBy for every comment in one query.
func (r *commentRepository) attachLikers(ctx context.Context, comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]int64, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
		comments[i].LikedBy = []string{}
	}

	var likes []models.CommentLike
	if err := r.db.WithContext(ctx).
		Where("comment_id IN ?", ids).
		Order("id ASC").
		Find(&likes).Error; err != nil {
		return fmt.Errorf("load comment likes: %w", err)
	}

	byComment := make(map[int64][]string, len(comments))
	for _, l := range likes {
		byComment[l.CommentID] = append(byComment[l.CommentID], l.UserID)
	}
	for i := range comments {
		if users, ok := byComment[comments[i].ID]; ok {
			comments[i].LikedBy = users
		}
	}
	return nil
}

// ListTopLevel returns one page of top-level comments, newest first, and the
// total under the same filter.
func (r *commentRepository) ListTopLevel(ctx context.Context, mangaID int64, chapterID *int64, viewerID string, limit, offset int) ([]models.Comment, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("comments.manga_id = ? AND comments.parent_id IS NULL", mangaID)
		if chapterID != nil {
			db = db.Where("comments.chapter_id = ?", *chapterID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).
		Scopes(filter, withLikes(viewerID)).
		Order("comments.created_at DESC, comments.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	if err := r.attachLikers(ctx, comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListReplies returns the direct replies of parentID, oldest first.
func (r *commentRepository) ListReplies(ctx context.Context, parentID int64, viewerID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	if err := r.db.WithContext(ctx).
		Scopes(withLikes(viewerID)).
		Where("comments.parent_id = ?", parentID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	if err := r.attachLikers(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID int64, viewerID string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Scopes(withLikes(viewerID)).
		Where("comments.id = ?", commentID).
		First(&comment).Error; err != nil {
		return nil, err
	}
	list := []models.Comment{comment}
	if err := r.attachLikers(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	comment.LikedBy = []string{}
	return nil
}

// UpdateContent sets the content and the edited timestamp.
func (r *commentRepository) UpdateContent(ctx context.Context, commentID int64, content string, editedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", commentID).
		Updates(map[string]any{"content": content, "updated_at": editedAt})
	if result.Error != nil {
		return fmt.Errorf("update comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCascade removes the comment, every comment whose parent chain leads
// to it, and their likes. It returns the number of comments removed.
func (r *commentRepository) DeleteCascade(ctx context.Context, commentID int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Raw(`
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM comments WHERE id = ?
				UNION ALL
				SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
			)
			SELECT id FROM subtree`, commentID).Scan(&ids).Error; err != nil {
			return fmt.Errorf("collect reply tree: %w", err)
		}
		if len(ids) == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if result.Error != nil {
			return fmt.Errorf("delete comments: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

// ToggleLike removes the (comment, user) like if present, otherwise adds it.
// It reports whether the user likes the comment afterwards.
func (r *commentRepository) ToggleLike(ctx context.Context, commentID int64, userID string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if result.Error != nil {
			return fmt.Errorf("unlike comment: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			liked = false
			return nil
		}
		if err := tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID}).Error; err != nil {
			return fmt.Errorf("like comment: %w", err)
		}
		liked = true
		return nil
	})
	return liked, err
}

func (r *commentRepository) MangaExists(ctx context.Context, mangaID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Manga{}).Where("id = ?", mangaID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check manga: %w", err)
	}
	return n > 0, nil
}

func (r *commentRepository) ChapterBelongsToManga(ctx context.Context, chapterID, mangaID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Chapter{}).
		Where("id = ? AND manga_id = ?", chapterID, mangaID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check chapter: %w", err)
	}
	return n > 0, nil
}

func (r *commentRepository) CommentBelongsToManga(ctx context.Context, commentID, mangaID int64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND manga_id = ?", commentID, mangaID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check parent comment: %w", err)
	}
	return n > 0, nil
}
