package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"tabletop/backend/internal/models"
)

type fakeTokens map[string]uint

func (f fakeTokens) ParseToken(token string) (uint, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

type fakeUsers map[uint]*models.User

func (f fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "authenticated": ok})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(fakeTokens{"good": 7}))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)

	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"authenticated":true}`, w.Body.String())
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := newRouter(OptionalAuthMiddleware(fakeTokens{"good": 7}))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"authenticated":false}`, w.Body.String())

	w = do(r, "Bearer good")
	assert.JSONEq(t, `{"user_id":7,"authenticated":true}`, w.Body.String())
}

func TestAdminMiddleware(t *testing.T) {
	tokens := fakeTokens{"admin": 1, "user": 2, "ghost": 3}
	users := fakeUsers{
		1: {Role: models.RoleAdmin},
		2: {Role: models.RoleUser},
	}
	r := newRouter(AuthMiddleware(tokens), AdminMiddleware(users))

	assert.Equal(t, http.StatusOK, do(r, "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer user").Code)
	assert.Equal(t, http.StatusNotFound, do(r, "Bearer ghost").Code)

	bare := newRouter(AdminMiddleware(users))
	assert.Equal(t, http.StatusUnauthorized, do(bare, "").Code)
}
