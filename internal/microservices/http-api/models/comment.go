package models

import "time"

// Comment belongs to a manga and optionally to one of its chapters. A nil
// ParentID marks a top-level comment.
type Comment struct {
	ID        int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	MangaID   int64      `json:"manga_id" gorm:"not null;index:idx_comments_manga_chapter"`
	ChapterID *int64     `json:"chapter_id" gorm:"index:idx_comments_manga_chapter"`
	ParentID  *int64     `json:"parent_id" gorm:"index"`
	UserID    string     `json:"user_id" gorm:"not null;index"`
	Username  string     `json:"username" gorm:"not null"`
	Content   string     `json:"content" gorm:"not null;type:text"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	EditedAt  *time.Time `json:"updated_at,omitempty" gorm:"column:updated_at"`

	LikeCount int64    `json:"like_count" gorm:"->;-:migration"`
	UserLiked bool     `json:"user_liked" gorm:"->;-:migration"`
	LikedBy   []string `json:"liked_by" gorm:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

type CommentLike struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CommentID int64     `json:"comment_id" gorm:"not null;uniqueIndex:idx_comment_likes_comment_user"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_comment_likes_comment_user"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CommentLike) TableName() string {
	return "comment_likes"
}
