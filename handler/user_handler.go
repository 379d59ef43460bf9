package handler

import (
	"fmt"
	"go-contacts-api/common"
	"go-contacts-api/model"
	"go-contacts-api/service"
	"net/http"
)

type UserHandler struct {
	AuthService *service.AuthService
	UserService *service.UserService
	EmailSender service.IEmailSender
	BaseURL     string
}

func NewUserHandler(authService *service.AuthService, userService *service.UserService,
	emailSender service.IEmailSender, baseURL string) *UserHandler {
	return &UserHandler{
		AuthService: authService,
		UserService: userService,
		EmailSender: emailSender,
		BaseURL:     baseURL,
	}
}

// Me godoc
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.User
// @Failure      401  {object}  common.AppError
// @Failure      429  {object}  common.AppError
// @Router       /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	accessToken, _ := r.Context().Value(AccessTokenKey).(string)

	user, err := h.AuthService.GetCurrentUser(r.Context(), accessToken)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, user)
	return nil
}

// ConfirmEmail godoc
// @Summary      Confirm an email address
// @Description  Consumes a confirmation token from the emailed link
// @Tags         users
// @Produce      json
// @Param        token query string true "Confirmation token"
// @Success      200  {object}  model.MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /users/confirm-email [get]
func (h *UserHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) *common.AppError {
	token := r.URL.Query().Get("token")
	if token == "" {
		return common.NewAppError(http.StatusBadRequest, "Missing confirmation token", nil)
	}

	already, err := h.AuthService.ConfirmEmail(r.Context(), token)
	if err != nil {
		return mapServiceError(err)
	}

	message := "Your email successfully confirmed"
	if already {
		message = "Your email already confirmed"
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: message})
	return nil
}

// RequestEmailConfirmation godoc
// @Summary      Request a new confirmation email
// @Description  Always answers with the same message, whether or not the email exists
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body model.RequestEmailPayload true "Email payload"
// @Success      200  {object}  model.MessageResponse
// @Router       /users/request-email-confirmation [post]
func (h *UserHandler) RequestEmailConfirmation(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RequestEmailPayload
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	token, user, err := h.AuthService.RequestEmailConfirmation(r.Context(), req.Email)
	if err != nil {
		return mapServiceError(err)
	}
	if token != "" {
		link := fmt.Sprintf("%s/users/confirm-email?token=%s", h.BaseURL, token)
		service.SendAsync(h.EmailSender, user.Email, "Confirm your email",
			"Hello, "+user.Username+"! Confirm your email: "+link)
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Check your email"})
	return nil
}

// UpdateAvatar godoc
// @Summary      Update the current user's avatar URL
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.UpdateAvatarRequest true "Avatar payload"
// @Success      200  {object}  model.User
// @Failure      403  {object}  common.AppError
// @Router       /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateAvatarRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	accessToken, _ := r.Context().Value(AccessTokenKey).(string)
	user, err := h.AuthService.GetCurrentUser(r.Context(), accessToken)
	if err != nil {
		return mapServiceError(err)
	}

	updated, err := h.UserService.UpdateAvatar(r.Context(), user.Email, req.Avatar)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, updated)
	return nil
}

// Admin godoc
// @Summary      Admin-only probe
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.MessageResponse
// @Failure      403  {object}  common.AppError
// @Router       /users/admin [get]
func (h *UserHandler) Admin(w http.ResponseWriter, r *http.Request) *common.AppError {
	username, _ := r.Context().Value(UsernameKey).(string)
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Welcome, %s! This is an administrative route", username),
	})
	return nil
}
