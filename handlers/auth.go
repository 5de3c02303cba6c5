package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"voicevault-backend/models"
	"voicevault-backend/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "user_id"

// UserLookup resolves accounts by email
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireUser authenticates requests with HTTP basic auth (email and password)
// and stores the user id in the gin context.
func RequireUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				unauthorized(c)
				return
			}
			slog.Error("Failed to load user", slog.String("error", err.Error()))
			respondError(c, http.StatusInternalServerError, "AUTH_FAILED", "Failed to authenticate")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			unauthorized(c)
			return
		}

		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="voicevault"`)
	respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
}
