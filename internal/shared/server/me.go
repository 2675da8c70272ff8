package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-enhancer/internal/shared/server/middleware"
	"resume-enhancer/internal/shared/server/respond"
)

// MeResponse describes the caller as resolved by the auth middleware.
type MeResponse struct {
	UserID   string `json:"userId"`
	IsGuest  bool   `json:"isGuest"`
	Provider string `json:"provider"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

func me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}
	provider, _, found := strings.Cut(userID, ":")
	if !found {
		provider = "token"
	}
	respond.OK(c, MeResponse{
		UserID:   userID,
		IsGuest:  middleware.IsGuest(c),
		Provider: provider,
		Email:    middleware.UserEmailFromContext(c),
		Name:     middleware.UserNameFromContext(c),
		Picture:  middleware.UserPictureFromContext(c),
	})
}
