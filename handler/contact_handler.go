package handler

import (
	"go-contacts-api/common"
	"go-contacts-api/model"
	"go-contacts-api/repository"
	"go-contacts-api/service"
	"net/http"
	"strconv"
)

type ContactHandler struct {
	AuthService    *service.AuthService
	ContactService *service.ContactService
}

func NewContactHandler(authService *service.AuthService, contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{
		AuthService:    authService,
		ContactService: contactService,
	}
}

// currentUserID resolves the authenticated user behind the request.
func (h *ContactHandler) currentUserID(r *http.Request) (int, *common.AppError) {
	accessToken, _ := r.Context().Value(AccessTokenKey).(string)
	user, err := h.AuthService.GetCurrentUser(r.Context(), accessToken)
	if err != nil {
		return 0, mapServiceError(err)
	}
	return user.ID, nil
}

func pathID(r *http.Request) (int, *common.AppError) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, common.NewAppError(http.StatusBadRequest, "Invalid contact id", nil)
	}
	return id, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// Create godoc
// @Summary      Create a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.ContactRequest true "Contact payload"
// @Success      201  {object}  model.Contact
// @Router       /contacts [post]
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}

	var req model.ContactRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	contact, err := h.ContactService.Create(r.Context(), userID, req)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusCreated, contact)
	return nil
}

// List godoc
// @Summary      List contacts
// @Description  Optional filters: first_name, last_name, email; paging via limit/offset
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Contact
// @Router       /contacts [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}

	filter := repository.ContactFilter{
		FirstName: r.URL.Query().Get("first_name"),
		LastName:  r.URL.Query().Get("last_name"),
		Email:     r.URL.Query().Get("email"),
		Limit:     queryInt(r, "limit"),
		Offset:    queryInt(r, "offset"),
	}

	contacts, err := h.ContactService.List(r.Context(), userID, filter)
	if err != nil {
		return mapServiceError(err)
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}

	writeJSON(w, http.StatusOK, contacts)
	return nil
}

// Get godoc
// @Summary      Get a contact
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Success      200  {object}  model.Contact
// @Failure      404  {object}  common.AppError
// @Router       /contacts/{id} [get]
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := pathID(r)
	if appErr != nil {
		return appErr
	}

	contact, err := h.ContactService.Get(r.Context(), id, userID)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, contact)
	return nil
}

// Update godoc
// @Summary      Update a contact
// @Tags         contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Param        request body model.ContactRequest true "Contact payload"
// @Success      200  {object}  model.Contact
// @Failure      404  {object}  common.AppError
// @Router       /contacts/{id} [put]
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := pathID(r)
	if appErr != nil {
		return appErr
	}

	var req model.ContactRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	contact, err := h.ContactService.Update(r.Context(), id, userID, req)
	if err != nil {
		return mapServiceError(err)
	}

	writeJSON(w, http.StatusOK, contact)
	return nil
}

// Delete godoc
// @Summary      Delete a contact
// @Tags         contacts
// @Security     BearerAuth
// @Param        id path int true "Contact ID"
// @Success      204
// @Failure      404  {object}  common.AppError
// @Router       /contacts/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}
	id, appErr := pathID(r)
	if appErr != nil {
		return appErr
	}

	if err := h.ContactService.Delete(r.Context(), id, userID); err != nil {
		return mapServiceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// UpcomingBirthdays godoc
// @Summary      List contacts with birthdays in the next week
// @Tags         contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Contact
// @Router       /contacts/birthdays [get]
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, appErr := h.currentUserID(r)
	if appErr != nil {
		return appErr
	}

	contacts, err := h.ContactService.UpcomingBirthdays(r.Context(), userID, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		return mapServiceError(err)
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}

	writeJSON(w, http.StatusOK, contacts)
	return nil
}
