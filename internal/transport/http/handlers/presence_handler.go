package handlers

import (
	"net/http"

	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	presencesvc "github.com/girmay-ak/lang-app-sub002/internal/services/presence"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/dto"
	httperrors "github.com/girmay-ak/lang-app-sub002/internal/transport/http/errors"
)

type PresenceHandler struct {
	service *presencesvc.Service
}

func NewPresenceHandler(service *presencesvc.Service) *PresenceHandler {
	return &PresenceHandler{service: service}
}

func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PRESENCE_SERVICE_UNAVAILABLE", "presence service is unavailable")
		return
	}

	if err := h.service.Heartbeat(r.Context(), identity.UserID); err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to record heartbeat")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.HeartbeatResponse{Online: true})
}
