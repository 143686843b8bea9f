package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	connsvc "github.com/girmay-ak/lang-app-sub002/internal/services/connections"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/dto"
	httperrors "github.com/girmay-ak/lang-app-sub002/internal/transport/http/errors"
)

type ConnectionsHandler struct {
	service *connsvc.Service
}

func NewConnectionsHandler(service *connsvc.Service) *ConnectionsHandler {
	return &ConnectionsHandler{service: service}
}

func (h *ConnectionsHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONNECTIONS_SERVICE_UNAVAILABLE", "connections service is unavailable")
		return
	}

	ids, err := h.service.ListFavoriteUserIDs(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list favorites")
		return
	}

	encoded := make([]string, 0, len(ids))
	for _, id := range ids {
		encoded = append(encoded, id.String())
	}

	httperrors.Write(w, http.StatusOK, dto.FavoritesListResponse{UserIDs: encoded})
}

func (h *ConnectionsHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONNECTIONS_SERVICE_UNAVAILABLE", "connections service is unavailable")
		return
	}

	var req dto.FavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id must be a valid user id")
		return
	}

	desired := true
	if req.Desired != nil {
		desired = *req.Desired
	}

	result, err := h.service.SetFavorite(r.Context(), identity.UserID, targetID, desired, req.ActorName)
	if err != nil {
		writeConnectionsError(w, err, "failed to update favorite")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FavoriteResponse{AlreadyFavorited: result.AlreadyFavorited})
}

func (h *ConnectionsHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONNECTIONS_SERVICE_UNAVAILABLE", "connections service is unavailable")
		return
	}

	var req dto.FriendRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id must be a valid user id")
		return
	}

	result, err := h.service.SendFriendRequest(r.Context(), identity.UserID, targetID, req.ActorName)
	if err != nil {
		writeConnectionsError(w, err, "failed to send friend request")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FriendRequestResponse{AlreadyPending: result.AlreadyPending})
}

func (h *ConnectionsHandler) SendEventInvite(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CONNECTIONS_SERVICE_UNAVAILABLE", "connections service is unavailable")
		return
	}

	var req dto.EventInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id must be a valid user id")
		return
	}

	if err := h.service.SendEventInvite(r.Context(), identity.UserID, targetID, req.ActorName, req.EventTitle); err != nil {
		writeConnectionsError(w, err, "failed to send event invite")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.EventInviteResponse{OK: true})
}

func writeConnectionsError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, connsvc.ErrUnauthenticated):
		writeUnauthorized(w, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, connsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid connection request")
	default:
		writeInternal(w, "INTERNAL_ERROR", fallback)
	}
}
