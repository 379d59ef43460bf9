package handler

import (
	"encoding/json"
	"fmt"
	"go-contacts-api/common"
	"go-contacts-api/model"
	"go-contacts-api/service"
	"net/http"
)

// AuthHandler exposes the authentication protocols over HTTP.
type AuthHandler struct {
	AuthService *service.AuthService
	EmailSender service.IEmailSender
	BaseURL     string
}

func NewAuthHandler(authService *service.AuthService, emailSender service.IEmailSender, baseURL string) *AuthHandler {
	return &AuthHandler{
		AuthService: authService,
		EmailSender: emailSender,
		BaseURL:     baseURL,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an unconfirmed account and emails a confirmation link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RegisterRequest true "Registration payload"
// @Success      201  {object}  model.User
// @Failure      409  {object}  common.AppError
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	user, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		return mapServiceError(err)
	}

	if token, err := h.AuthService.EmailConfirmationToken(user.Email); err == nil {
		link := fmt.Sprintf("%s/users/confirm-email?token=%s", h.BaseURL, token)
		service.SendAsync(h.EmailSender, user.Email, "Confirm your email",
			"Welcome, "+user.Username+"! Confirm your email: "+link)
	}

	writeJSON(w, http.StatusCreated, user)
	return nil
}

// Login godoc
// @Summary      Authenticate a user
// @Description  Verifies credentials and returns an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Login payload"
// @Success      200  {object}  model.TokenResponse
// @Failure      401  {object}  common.AppError
// @Failure      403  {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.AuthService.Login(r.Context(), req.Username, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Description  Exchanges a refresh token for a new token pair; the presented token is revoked
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RefreshRequest true "Refresh payload"
// @Success      200  {object}  model.TokenResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken, clientIP(r), r.UserAgent())
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented access token and refresh token
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        request body model.RefreshRequest true "Refresh payload"
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RefreshRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	accessToken, _ := r.Context().Value(AccessTokenKey).(string)
	if err := h.AuthService.Logout(r.Context(), accessToken, req.RefreshToken); err != nil {
		return mapServiceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RequestPasswordReset godoc
// @Summary      Request a password reset link
// @Description  Always answers with the same message, whether or not the email exists
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.RequestEmailPayload true "Email payload"
// @Success      200  {object}  model.MessageResponse
// @Router       /auth/request-password-reset [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RequestEmailPayload
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	token, user, err := h.AuthService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		return mapServiceError(err)
	}
	if token != "" {
		link := fmt.Sprintf("%s/auth/reset-password?token=%s", h.BaseURL, token)
		service.SendAsync(h.EmailSender, user.Email, "Reset your password",
			"Hello, "+user.Username+"! Reset your password: "+link)
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password reset instructions sent to your email"})
	return nil
}

// ResetPassword godoc
// @Summary      Reset a password
// @Description  Consumes a single-use reset token and stores the new password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body model.ResetPasswordRequest true "Reset payload"
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password has been successfully reset"})
	return nil
}
