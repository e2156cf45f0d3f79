package handler_test

import (
	"context"
	"net/http"
	"testing"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/dto"
	"mangareader/internal/microservices/http-api/handler"
	"mangareader/internal/microservices/http-api/service"
	"mangareader/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) ListComments(ctx context.Context, mangaID int64, chapterID *int64, viewerID string, p pagination.Params) (*dto.CommentListResponse, error) {
	args := m.Called(ctx, mangaID, chapterID, viewerID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentListResponse), args.Error(1)
}

func (m *MockCommentService) ListReplies(ctx context.Context, parentID int64, viewerID string) ([]dto.CommentResponse, error) {
	args := m.Called(ctx, parentID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) GetComment(ctx context.Context, commentID int64, viewerID string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, commentID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) CreateComment(ctx context.Context, author service.Actor, in service.CreateCommentInput) (*dto.CommentResponse, error) {
	args := m.Called(ctx, author, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) UpdateComment(ctx context.Context, commentID int64, actor service.Actor, content string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, commentID, actor, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) DeleteComment(ctx context.Context, commentID int64, actor service.Actor) error {
	args := m.Called(ctx, commentID, actor)
	return args.Error(0)
}

func (m *MockCommentService) ToggleLike(ctx context.Context, commentID int64, userID string) (bool, error) {
	args := m.Called(ctx, commentID, userID)
	return args.Bool(0), args.Error(1)
}

func setupCommentRouter() (*MockCommentService, http.Handler) {
	svc := new(MockCommentService)
	r := newRouter()
	handler.NewCommentHandler(svc).RegisterRoutes(r.Group("/comments"))
	return svc, r
}

func TestCommentHandler_List(t *testing.T) {
	svc, r := setupCommentRouter()

	chapterID := int64(4)
	svc.On("ListComments", mock.Anything, int64(1), (*int64)(nil), "", pagination.Params{Page: 2, Limit: 5}).
		Return(&dto.CommentListResponse{Comments: []dto.CommentResponse{{ID: 9}}, Pagination: pagination.Meta{Page: 2, Limit: 5, Total: 6, Pages: 2}}, nil)
	svc.On("ListComments", mock.Anything, int64(1), &chapterID, "u1", pagination.Params{Page: 1, Limit: 20}).
		Return(&dto.CommentListResponse{Comments: []dto.CommentResponse{}}, nil)

	w := call{method: http.MethodGet, path: "/comments/1?page=2&limit=5"}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var body dto.CommentListResponse
	decode(t, w, &body)
	assert.Len(t, body.Comments, 1)
	assert.Equal(t, int64(2), body.Pagination.Pages)

	w = call{method: http.MethodGet, path: "/comments/1/4", user: "u1"}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call{method: http.MethodGet, path: "/comments/abc"}.do(t, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestCommentHandler_Create(t *testing.T) {
	t.Run("RequiresUser", func(t *testing.T) {
		_, r := setupCommentRouter()
		w := call{method: http.MethodPost, path: "/comments", body: gin.H{"content": "hi", "manga_id": 1}}.do(t, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Created", func(t *testing.T) {
		svc, r := setupCommentRouter()
		svc.On("CreateComment", mock.Anything,
			service.Actor{UserID: "u1", Username: "name-u1"},
			service.CreateCommentInput{MangaID: 1, Content: "hi"},
		).Return(&dto.CommentResponse{ID: 3, Content: "hi", LikedBy: []string{}}, nil)

		w := call{method: http.MethodPost, path: "/comments", body: gin.H{"content": "hi", "manga_id": 1}, user: "u1"}.do(t, r)
		assert.Equal(t, http.StatusCreated, w.Code)
		var body struct {
			Comment dto.CommentResponse `json:"comment"`
		}
		decode(t, w, &body)
		assert.Equal(t, int64(3), body.Comment.ID)
	})

	t.Run("MissingManga", func(t *testing.T) {
		svc, r := setupCommentRouter()
		svc.On("CreateComment", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperr.NotFound("manga"))

		w := call{method: http.MethodPost, path: "/comments", body: gin.H{"content": "hi", "manga_id": 7}, user: "u1"}.do(t, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"code":"NOT_FOUND","error":"manga not found"}`, w.Body.String())
	})

	t.Run("BadBody", func(t *testing.T) {
		_, r := setupCommentRouter()
		w := call{method: http.MethodPost, path: "/comments", body: gin.H{"content": "hi"}, user: "u1"}.do(t, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCommentHandler_UpdateDeleteLike(t *testing.T) {
	svc, r := setupCommentRouter()
	stranger := service.Actor{UserID: "u2", Username: "name-u2"}

	svc.On("UpdateComment", mock.Anything, int64(5), stranger, "x").
		Return(nil, apperr.Forbidden("you don't have permission to update this comment"))
	svc.On("DeleteComment", mock.Anything, int64(5), stranger).Return(apperr.Forbidden("no"))
	svc.On("DeleteComment", mock.Anything, int64(6), stranger).Return(nil)
	svc.On("ToggleLike", mock.Anything, int64(5), "u2").Return(true, nil)
	svc.On("ToggleLike", mock.Anything, int64(8), "u2").Return(false, apperr.NotFound("comment"))

	w := call{method: http.MethodPut, path: "/comments/5", body: gin.H{"content": "x"}, user: "u2"}.do(t, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call{method: http.MethodDelete, path: "/comments/5", user: "u2"}.do(t, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call{method: http.MethodDelete, path: "/comments/6", user: "u2"}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call{method: http.MethodPost, path: "/comments/5/like", user: "u2"}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":true}`, w.Body.String())

	w = call{method: http.MethodPost, path: "/comments/8/like", user: "u2"}.do(t, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentHandler_ListReplies(t *testing.T) {
	svc, r := setupCommentRouter()
	svc.On("ListReplies", mock.Anything, int64(2), "").Return([]dto.CommentResponse{{ID: 3}, {ID: 4}}, nil)

	w := call{method: http.MethodGet, path: "/comments/replies/2"}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Replies []dto.CommentResponse `json:"replies"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Replies, 2)
}
