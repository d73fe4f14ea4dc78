package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/market-backend/internal/interface/http/dto"
	"github.com/ignatzorin/market-backend/internal/interface/http/response"
	"github.com/ignatzorin/market-backend/internal/service"
)

// AuthHandler регистрация, вход и обновление токенов.
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp POST /api/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите email и пароль")
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), service.Credentials{Email: req.Email, Password: req.Password}, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toAuthResponse(result))
}

// SignIn POST /api/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите email и пароль")
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), service.Credentials{Email: req.Email, Password: req.Password}, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toAuthResponse(result))
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh_token обязателен")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// SignOut POST /api/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "refresh_token обязателен")
		return
	}

	if err := h.auth.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"signed_out": true})
}

func toAuthResponse(r *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		UserID:  r.User.ID,
		Email:   r.User.Email,
		Profile: dto.ToProfileResponse(r.Profile),
		Tokens: dto.TokenResponse{
			AccessToken:  r.TokenPair.AccessToken,
			RefreshToken: r.TokenPair.RefreshToken,
		},
	}
}
