package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	profilesvc "github.com/girmay-ak/lang-app-sub002/internal/services/profiles"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/dto"
	httperrors "github.com/girmay-ak/lang-app-sub002/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
}

func NewProfileHandler(service *profilesvc.Service) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "user id must be a valid uuid")
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, profilesvc.ErrNotFound) {
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: "user not found"})
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
		return
	}

	httperrors.Write(w, http.StatusOK, mapUserResponse(user))
}

func (h *ProfileHandler) SaveLocation(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeBadRequest(w, "VALIDATION_ERROR", "lat and lon are required")
		return
	}

	if err := h.service.SaveLocation(r.Context(), identity.UserID, *req.Lat, *req.Lon); err != nil {
		if errors.Is(err, profilesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "coordinates out of range")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to save location")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileLocationResponse{OK: true})
}

func (h *ProfileHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileAvailabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	status := enums.Availability(req.Status)
	if err := h.service.SetAvailability(r.Context(), identity.UserID, status); err != nil {
		if errors.Is(err, profilesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown availability status")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to update availability")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileAvailabilityResponse{Status: string(status)})
}

func (h *ProfileHandler) SetLanguages(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.ProfileLanguagesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	if err := h.service.SetLanguages(r.Context(), identity.UserID, req.Native, req.Learning); err != nil {
		if errors.Is(err, profilesvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid language list")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to update languages")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileLanguagesResponse{OK: true})
}

func mapUserResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{
		UserID:            u.ID.String(),
		DisplayName:       u.DisplayName,
		Bio:               u.Bio,
		City:              u.City,
		Lat:               u.Lat,
		Lon:               u.Lon,
		AvailabilityState: string(u.Availability),
		IsOnline:          u.IsOnline,
		LastActiveAt:      u.LastActiveAt,
		Speaks:            u.Speaks,
		Learning:          u.Learning,
	}
}
