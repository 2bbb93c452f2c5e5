package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
)

// getUserID extracts the authenticated user's ID from the Gin context.
// Returns an empty string and false if not authenticated.
func getUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// mustUserID extracts the authenticated user's ID or aborts with 401. Handlers
// behind AuthMiddleware call this first.
func mustUserID(c *gin.Context) (string, bool) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    apperrors.ErrUnauthorized.Code,
				"message": apperrors.ErrUnauthorized.Message,
			},
		})
		return "", false
	}
	return userID, true
}

// respondWithError sends a consistent JSON error response. AppErrors map to
// their own status and code; anything else becomes a logged 500.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// respondWithValidationError maps a binding failure to an INVALID_INPUT
// response carrying the validation detail.
func respondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInvalidInput.Code,
			"message": err.Error(),
		},
	})
}
