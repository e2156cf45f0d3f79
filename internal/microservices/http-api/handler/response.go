package handler

import (
	"net/http"
	"strconv"

	"mangareader/internal/apperr"
	"mangareader/internal/microservices/http-api/middleware"
	"mangareader/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// respondError renders err as {"code", "error"}. Anything that is not an
// AppError becomes a 500; server-side failures are attached to the gin
// context so the request logger records the cause.
func respondError(c *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err)
	}
	if ae.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(ae.HTTPStatus, gin.H{"code": ae.Code, "error": ae.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": apperr.CodeValidation, "error": msg})
}

// pathID parses a positive integer path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:   c.GetString(middleware.KeyUserID),
		Username: c.GetString(middleware.KeyUsername),
		Role:     c.GetString(middleware.KeyRole),
	}
}
