package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-next-task/backend/internal/models"
	"go-next-task/backend/internal/services"
)

// UserHandler はユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService  *services.UserService
	guestService *services.GuestService
	jwtService   *services.JWTService
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, guestService *services.GuestService, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{userService: userService, guestService: guestService, jwtService: jwtService}
}

// RegisterHandler はユーザー登録を処理します。
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	body, ok := bindJSON(c)
	if !ok {
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// LoginHandler はユーザーログインを処理します。
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req models.UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueTokens(c, user)
}

// GuestLoginHandler はゲストアカウントを作成してログインします。
func (h *UserHandler) GuestLoginHandler(c *gin.Context) {
	res, err := h.guestService.LoginAsGuest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RefreshHandler はリフレッシュトークンから新しいトークンを発行します。
func (h *UserHandler) RefreshHandler(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	claims, err := h.jwtService.ValidateToken(req.RefreshToken, services.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	h.issueTokens(c, user)
}

// LogoutHandler はログアウトを処理します。トークンはステートレスなのでクライアント側で破棄します。
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// MeHandler はログイン中のユーザーを返します。
func (h *UserHandler) MeHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) issueTokens(c *gin.Context, user *models.User) {
	tokens, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, models.AuthResponse{User: user, TokenPair: tokens})
}
