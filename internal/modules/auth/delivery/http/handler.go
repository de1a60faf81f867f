package handler

import (
	"net/http"
	"time"

	"anoa.com/blogapp/internal/middleware"
	"anoa.com/blogapp/internal/modules/auth/dto"
	authService "anoa.com/blogapp/internal/modules/auth/service"
	"anoa.com/blogapp/internal/modules/auth/session"
	"anoa.com/blogapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type CookieOptions struct {
	Name   string
	Secure bool
	// ExposeResetToken returns forgot-password tokens in the response body.
	// Only meant for development, where there is no mail delivery.
	ExposeResetToken bool
}

type AuthHandler struct {
	authService authService.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService authService.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res.Session)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    res.User,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if claims := middleware.SessionClaims(c); claims != nil {
		if err := h.authService.Logout(c.Request.Context(), claims.SessionID); err != nil {
			response.Error(c, err)
			return
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	sess, err := h.authService.ChangePassword(c.Request.Context(), userID, middleware.SessionClaims(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.authService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": res})
}

func (h *AuthHandler) UploadProfilePicture(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	res, err := h.authService.UploadProfilePicture(c.Request.Context(), userID, dto.PictureFile{
		Reader:   file,
		FileName: fileHeader.Filename,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) CurrentUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	token, err := h.authService.ForgotPassword(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{"message": "If the email exists, a password reset link has been sent."}
	if h.cookie.ExposeResetToken && token != "" {
		body["resetToken"] = token
	}
	c.JSON(http.StatusOK, body)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

// setSessionCookie writes a browser-session cookie unless the session is
// persistent, in which case the cookie lives as long as the token.
func (h *AuthHandler) setSessionCookie(c *gin.Context, sess *session.Session) {
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Persistent {
		cookie.Expires = sess.ExpiresAt
		cookie.MaxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	http.SetCookie(c.Writer, cookie)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
