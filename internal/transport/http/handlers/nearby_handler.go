package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/dto"
	httperrors "github.com/girmay-ak/lang-app-sub002/internal/transport/http/errors"
)

type NearbyHandler struct {
	service *discoverysvc.Service
}

func NewNearbyHandler(service *discoverysvc.Service) *NearbyHandler {
	return &NearbyHandler{service: service}
}

// Get handles GET /nearby?lat=..&lon=..&radius_km=..&available_now=..&languages=en,nl
func (h *NearbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	q, err := parseNearbyQuery(r)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	users, err := h.service.Discover(r.Context(), identity.UserID, q)
	if err != nil {
		switch {
		case errors.Is(err, discoverysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid search coordinates")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to find nearby users")
		}
		return
	}

	items := make([]dto.NearbyUserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, mapNearbyUser(user))
	}

	httperrors.Write(w, http.StatusOK, dto.NearbyResponse{Users: items})
}

func parseNearbyQuery(r *http.Request) (discoverysvc.Query, error) {
	values := r.URL.Query()

	lat, err := strconv.ParseFloat(values.Get("lat"), 64)
	if err != nil {
		return discoverysvc.Query{}, errors.New("lat is required")
	}
	lon, err := strconv.ParseFloat(values.Get("lon"), 64)
	if err != nil {
		return discoverysvc.Query{}, errors.New("lon is required")
	}

	q := discoverysvc.Query{Lat: lat, Lon: lon}

	if raw := values.Get("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return discoverysvc.Query{}, errors.New("radius_km must be a positive number")
		}
		q.RadiusKM = radius
	}
	if raw := values.Get("available_now"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return discoverysvc.Query{}, errors.New("available_now must be a boolean")
		}
		q.AvailableNow = available
	}
	q.Languages = splitList(values.Get("languages"))
	q.SkillLevels = splitList(values.Get("skill_levels"))

	return q, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			items = append(items, v)
		}
	}
	return items
}

func mapNearbyUser(user model.NearbyUser) dto.NearbyUserResponse {
	var distance *float64
	if !math.IsNaN(user.DistanceKM) {
		v := user.DistanceKM
		distance = &v
	}

	return dto.NearbyUserResponse{
		UserID:            user.ID.String(),
		DisplayName:       user.DisplayName,
		Bio:               user.Bio,
		City:              user.City,
		AvailabilityState: string(user.Availability),
		IsOnline:          user.IsOnline,
		LastActiveAt:      user.LastActiveAt,
		Speaks:            user.Speaks,
		Learning:          user.Learning,
		DistanceKM:        distance,
		FormattedDistance: user.FormattedDistance,
		AvatarURL:         user.AvatarURL,
	}
}
