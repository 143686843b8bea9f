package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
	authsvc "github.com/girmay-ak/lang-app-sub002/internal/services/auth"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
	"github.com/girmay-ak/lang-app-sub002/internal/transport/http/dto"
)

type stubSearchStore struct {
	records []pgrepo.NearbyRecord
}

func (s *stubSearchStore) Search(_ context.Context, _ pgrepo.NearbySearch) ([]pgrepo.NearbyRecord, error) {
	return s.records, nil
}

func (s *stubSearchStore) ListActive(_ context.Context, _ uuid.UUID, _ bool, _ int) ([]pgrepo.NearbyRecord, error) {
	return s.records, nil
}

type stubLanguageStore struct{}

func (stubLanguageStore) ListForUsers(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]pgrepo.LanguageSet, error) {
	return map[uuid.UUID]pgrepo.LanguageSet{}, nil
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: uuid.New(),
		SID:    "sid-1",
	})
	return req.WithContext(ctx)
}

func TestNearbyGetRequiresAuthentication(t *testing.T) {
	handler := NewNearbyHandler(discoverysvc.NewService(&stubSearchStore{}, stubLanguageStore{}, discoverysvc.Config{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/nearby?lat=52.0&lon=4.3", nil)
	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestNearbyGetRejectsMissingCoordinates(t *testing.T) {
	handler := NewNearbyHandler(discoverysvc.NewService(&stubSearchStore{}, stubLanguageStore{}, discoverysvc.Config{}, nil))

	rr := httptest.NewRecorder()
	handler.Get(rr, authedRequest(http.MethodGet, "/v1/nearby?lon=4.3"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestNearbyGetSerializesUnknownDistanceAsNull(t *testing.T) {
	withCoords := pgrepo.NearbyRecord{
		UserID:       uuid.New(),
		DisplayName:  "near",
		Lat:          floatPtr(52.08),
		Lon:          floatPtr(4.31),
		Availability: "available",
	}
	withoutCoords := pgrepo.NearbyRecord{
		UserID:       uuid.New(),
		DisplayName:  "hidden",
		Availability: "available",
	}
	store := &stubSearchStore{records: []pgrepo.NearbyRecord{withCoords, withoutCoords}}
	handler := NewNearbyHandler(discoverysvc.NewService(store, stubLanguageStore{}, discoverysvc.Config{}, nil))

	rr := httptest.NewRecorder()
	handler.Get(rr, authedRequest(http.MethodGet, "/v1/nearby?lat=52.07&lon=4.30&radius_km=10"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d body %s", rr.Code, rr.Body.String())
	}

	var resp dto.NearbyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("unexpected user count: %d", len(resp.Users))
	}

	for _, u := range resp.Users {
		switch u.DisplayName {
		case "near":
			if u.DistanceKM == nil {
				t.Fatal("known distance serialized as null")
			}
		case "hidden":
			if u.DistanceKM != nil {
				t.Fatalf("unknown distance serialized as %v", *u.DistanceKM)
			}
			if u.FormattedDistance != "—" {
				t.Fatalf("unexpected formatted distance: %q", u.FormattedDistance)
			}
		default:
			t.Fatalf("unexpected user %q", u.DisplayName)
		}
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
