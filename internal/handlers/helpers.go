// Package handlers はHTTPリクエストを処理するGinハンドラーを提供します。
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/apperror"
	"go-next-task/backend/internal/validation"
)

// currentUserID は AuthMiddleware が設定したユーザーIDを取り出します。
func currentUserID(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return "", false
	}
	userID, ok := userIDVal.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID type in context"})
		return "", false
	}
	return userID, true
}

// idParam はパスの :id が 24桁の16進数であることを確認します。
func idParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !validation.IsObjectID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return "", false
	}
	return id, true
}

// bindJSON はリクエストボディをJSONオブジェクトとして読み込みます。
func bindJSON(c *gin.Context) (map[string]any, bool) {
	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return nil, false
	}
	return body, true
}

// bindOptionalJSON はボディが空の場合に空のオブジェクトを返します。
func bindOptionalJSON(c *gin.Context) (map[string]any, bool) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return map[string]any{}, true
	}
	return bindJSON(c)
}

// respondError はエラーの分類をステータスコードに変換し、メッセージをそのまま返します。
func respondError(c *gin.Context, err error) {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "details": verr.Fields})
		return
	}

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(appErr, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(appErr, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(appErr, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		}
		if status == http.StatusInternalServerError && appErr.Err != nil {
			log.Printf("%s: %v", appErr.Message, appErr.Err)
		}
		c.JSON(status, gin.H{"error": appErr.Message})
		return
	}

	log.Printf("Unexpected error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
