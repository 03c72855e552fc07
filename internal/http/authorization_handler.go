package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geofeed/backend/internal/lib"
	"github.com/geofeed/backend/internal/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var request registerRequest
	if err := bindJSON(c, lib.RegisterSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	user, err := h.authorization.Register(c.Request.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	err := h.authorization.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) Login(c *gin.Context) {
	var request loginRequest
	if err := bindJSON(c, lib.LoginSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	tokens, err := h.authorization.Login(c.Request.Context(), request.Email, request.Password, clientInfo(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.authorization.Logout(c.Request.Context()); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshToken takes the refresh token as a bearer token.
func (h *Handler) RefreshToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		middleware.AbortWithError(c, lib.UnauthenticatedError(""))
		return
	}

	tokens, err := h.authorization.RefreshToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "), clientInfo(c))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var request forgotPasswordRequest
	if err := bindJSON(c, lib.ForgotPasswordSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	if err := h.authorization.RequestPasswordReset(c.Request.Context(), request.Email); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var request resetPasswordRequest
	if err := bindJSON(c, lib.ResetPasswordSchema, &request); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	if err := h.authorization.ResetPassword(c.Request.Context(), request.Token, request.Password); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.authorization.CurrentUser(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}
