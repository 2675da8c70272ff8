package middleware

import "github.com/gin-gonic/gin"

// Context keys shared by middleware, handlers and respond.Error.
const (
	requestIDKey   = "requestId"
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	isGuestKey     = "isGuest"

	// SessionIDKey and StageTransitionKey are set by session handlers for request logs.
	SessionIDKey       = "sessionId"
	StageTransitionKey = "stageTransition"
)

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// RequestIDFromContext fetches the request ID stored by RequestID middleware.
func RequestIDFromContext(c *gin.Context) string { return stringFromContext(c, requestIDKey) }

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string { return stringFromContext(c, userIDKey) }

func UserEmailFromContext(c *gin.Context) string   { return stringFromContext(c, userEmailKey) }
func UserNameFromContext(c *gin.Context) string    { return stringFromContext(c, userNameKey) }
func UserPictureFromContext(c *gin.Context) string { return stringFromContext(c, userPictureKey) }

// IsGuest reports whether the caller identified with X-Guest-Id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return c.GetBool(isGuestKey)
}
