package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/postpilot/api/internal/domain/profile"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/http/handlers"
	"github.com/postpilot/api/internal/http/middlewares"
	"github.com/postpilot/api/internal/quota"
)

const (
	ownerID    = "11111111-1111-1111-1111-111111111111"
	strangerID = "22222222-2222-2222-2222-222222222222"
	profileID  = "33333333-3333-3333-3333-333333333333"
	missingID  = "44444444-4444-4444-4444-444444444444"
)

const validProfileBody = `{
	"business_name": "Acme Coffee",
	"industry": "Food & Beverage",
	"target_audience_description": "Local coffee lovers between 20 and 40",
	"target_audience_keywords": "coffee, espresso, local"
}`

type fakeProfileStore struct {
	createFn      func(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error)
	getByIDFn     func(ctx context.Context, id string) (profile.Profile, error)
	listByUserFn  func(ctx context.Context, userID string) ([]profile.Profile, error)
	countByUserFn func(ctx context.Context, userID string) (int, error)
	updateFn      func(ctx context.Context, p profile.Profile) (profile.Profile, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (f *fakeProfileStore) Create(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return profile.NewFromCreateRequest(req), nil
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (profile.Profile, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (f *fakeProfileStore) ListByUser(ctx context.Context, userID string) ([]profile.Profile, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeProfileStore) CountByUser(ctx context.Context, userID string) (int, error) {
	if f.countByUserFn != nil {
		return f.countByUserFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeProfileStore) Update(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, p)
	}
	return p, nil
}

func (f *fakeProfileStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// ownedProfile is a profile belonging to ownerID, used across the guard tests.
func ownedProfile() profile.Profile {
	return profile.Profile{
		ID:             profileID,
		UserID:         ownerID,
		BusinessName:   "Acme Coffee",
		Industry:       "Food & Beverage",
		TargetAudience: "Local coffee lovers between 20 and 40",
		TargetKeywords: "coffee, espresso, local",
	}
}

func guardStore() *fakeProfileStore {
	return &fakeProfileStore{
		getByIDFn: func(ctx context.Context, id string) (profile.Profile, error) {
			if id == profileID {
				return ownedProfile(), nil
			}
			return profile.Profile{}, profile.ErrNotFound
		},
	}
}

// profilesRouter mounts the handler behind the real session middleware with a
// stub resolver, so the tests exercise the same path the server wires up.
func profilesRouter(store *fakeProfileStore, users *fakeUsers) *gin.Engine {
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, token string) (string, bool, error) {
			switch token {
			case "owner-token":
				return ownerID, true, nil
			case "stranger-token":
				return strangerID, true, nil
			}
			return "", false, nil
		},
	}

	if users == nil {
		users = &fakeUsers{}
	}

	mw := middlewares.NewSessionMiddleware(resolver)
	h := handlers.NewProfilesHandler(store, users)

	r := gin.New()
	g := r.Group("/api/business-profiles")
	g.Use(mw.RequireSession())
	{
		g.POST("", h.CreateProfile)
		g.GET("", h.ListProfiles)
		g.GET("/can-create", h.CanCreate)
		g.GET("/:id", h.GetProfileById)
		g.PUT("/:id", h.UpdateProfile)
		g.DELETE("/:id", h.DeleteProfile)
	}
	return r
}

func ownerCookie() *http.Cookie {
	return &http.Cookie{Name: middlewares.SessionCookieName, Value: "owner-token"}
}

func strangerCookie() *http.Cookie {
	return &http.Cookie{Name: middlewares.SessionCookieName, Value: "stranger-token"}
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to unmarshal error body: %v", err)
	}
	return resp.Error.Code
}

func TestCreateProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotUserID string

		store := &fakeProfileStore{
			createFn: func(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error) {
				gotUserID = req.UserID
				return profile.NewFromCreateRequest(req), nil
			},
		}

		r := profilesRouter(store, nil)
		w := doJSON(r, http.MethodPost, "/api/business-profiles", validProfileBody, ownerCookie())

		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		// ownership always comes from the session, never from the payload
		if gotUserID != ownerID {
			t.Fatalf("stored user_id = %q, want %q", gotUserID, ownerID)
		}
	})

	t.Run("payload_cannot_override_owner", func(t *testing.T) {
		var gotUserID string

		store := &fakeProfileStore{
			createFn: func(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error) {
				gotUserID = req.UserID
				return profile.NewFromCreateRequest(req), nil
			},
		}

		body := `{
			"user_id": "` + strangerID + `",
			"business_name": "Acme Coffee",
			"industry": "Food & Beverage",
			"target_audience_description": "Local coffee lovers between 20 and 40",
			"target_audience_keywords": "coffee, espresso, local"
		}`

		r := profilesRouter(store, nil)
		w := doJSON(r, http.MethodPost, "/api/business-profiles", body, ownerCookie())

		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
		}

		if gotUserID != ownerID {
			t.Fatalf("stored user_id = %q, want %q", gotUserID, ownerID)
		}
	})

	t.Run("quota_exceeded", func(t *testing.T) {
		store := &fakeProfileStore{
			createFn: func(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error) {
				return profile.Profile{}, quota.ErrQuotaExceeded
			},
		}

		r := profilesRouter(store, nil)
		w := doJSON(r, http.MethodPost, "/api/business-profiles", validProfileBody, ownerCookie())

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusForbidden)
		}

		if code := errorCode(t, w.Body.Bytes()); code != "quota_exceeded" {
			t.Fatalf("got error code %q, want quota_exceeded", code)
		}
	})

	t.Run("validation_error", func(t *testing.T) {
		r := profilesRouter(&fakeProfileStore{}, nil)
		w := doJSON(r, http.MethodPost, "/api/business-profiles", `{"business_name":"Acme"}`, ownerCookie())

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("no_session", func(t *testing.T) {
		r := profilesRouter(&fakeProfileStore{}, nil)
		w := doJSON(r, http.MethodPost, "/api/business-profiles", validProfileBody)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestListProfiles(t *testing.T) {
	store := &fakeProfileStore{
		listByUserFn: func(ctx context.Context, userID string) ([]profile.Profile, error) {
			if userID == ownerID {
				return []profile.Profile{ownedProfile()}, nil
			}
			return nil, nil
		},
	}

	r := profilesRouter(store, nil)

	t.Run("owner_sees_own_profiles", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/business-profiles", "", ownerCookie())

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp struct {
			Items []profile.Profile `json:"items"`
			Count int               `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Count != 1 || len(resp.Items) != 1 {
			t.Fatalf("got count=%d items=%d, want 1/1", resp.Count, len(resp.Items))
		}
	})

	t.Run("other_user_sees_empty_list", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/business-profiles", "", strangerCookie())

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusOK)
		}

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Count != 0 {
			t.Fatalf("got count=%d, want 0", resp.Count)
		}
	})
}

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name          string
		tier          string
		ownedProfiles int
		want          bool
	}{
		{name: "free_with_none", tier: user.TierFree, ownedProfiles: 0, want: true},
		{name: "free_at_limit", tier: user.TierFree, ownedProfiles: 1, want: false},
		{name: "starter_with_many", tier: user.TierStarter, ownedProfiles: 7, want: true},
		{name: "pro_with_many", tier: user.TierPro, ownedProfiles: 42, want: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{
				getByIDFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{ID: id, Tier: tt.tier}, nil
				},
			}

			store := &fakeProfileStore{
				countByUserFn: func(ctx context.Context, userID string) (int, error) {
					return tt.ownedProfiles, nil
				},
			}

			r := profilesRouter(store, users)
			w := doJSON(r, http.MethodGet, "/api/business-profiles/can-create", "", ownerCookie())

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
			}

			var resp struct {
				CanCreate bool `json:"canCreate"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.CanCreate != tt.want {
				t.Fatalf("canCreate = %v, want %v", resp.CanCreate, tt.want)
			}
		})
	}
}

func TestGetProfileById(t *testing.T) {
	r := profilesRouter(guardStore(), nil)

	tests := []struct {
		name           string
		path           string
		cookie         *http.Cookie
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "owner_gets_profile",
			path:           "/api/business-profiles/" + profileID,
			cookie:         ownerCookie(),
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "stranger_gets_403",
			path:           "/api/business-profiles/" + profileID,
			cookie:         strangerCookie(),
			wantStatusCode: http.StatusForbidden,
			wantCode:       "forbidden",
		},
		{
			name:           "missing_profile_is_404",
			path:           "/api/business-profiles/" + missingID,
			cookie:         ownerCookie(),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "malformed_id_is_404",
			path:           "/api/business-profiles/not-a-uuid",
			cookie:         ownerCookie(),
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "no_session",
			path:           "/api/business-profiles/" + profileID,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}

			w := doJSON(r, http.MethodGet, tt.path, "", cookies...)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				if code := errorCode(t, w.Body.Bytes()); code != tt.wantCode {
					t.Fatalf("got error code %q, want %q", code, tt.wantCode)
				}
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Run("partial_update_keeps_other_fields", func(t *testing.T) {
		store := guardStore()

		var gotUpdate profile.Profile
		store.updateFn = func(ctx context.Context, p profile.Profile) (profile.Profile, error) {
			gotUpdate = p
			return p, nil
		}

		r := profilesRouter(store, nil)
		w := doJSON(r, http.MethodPut, "/api/business-profiles/"+profileID, `{"business_name":"Acme Roasters"}`, ownerCookie())

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		if gotUpdate.BusinessName != "Acme Roasters" {
			t.Fatalf("business_name = %q, want Acme Roasters", gotUpdate.BusinessName)
		}
		if gotUpdate.Industry != "Food & Beverage" {
			t.Fatalf("industry was clobbered: %q", gotUpdate.Industry)
		}
		if gotUpdate.UserID != ownerID {
			t.Fatalf("user_id changed to %q", gotUpdate.UserID)
		}
	})

	t.Run("stranger_gets_403", func(t *testing.T) {
		r := profilesRouter(guardStore(), nil)
		w := doJSON(r, http.MethodPut, "/api/business-profiles/"+profileID, `{"business_name":"Hijack"}`, strangerCookie())

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("validation_error", func(t *testing.T) {
		r := profilesRouter(guardStore(), nil)
		w := doJSON(r, http.MethodPut, "/api/business-profiles/"+profileID, `{"target_audience_description":"short"}`, ownerCookie())

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestDeleteProfile(t *testing.T) {
	t.Run("owner_deletes", func(t *testing.T) {
		store := guardStore()

		deleted := ""
		store.deleteFn = func(ctx context.Context, id string) error {
			deleted = id
			return nil
		}

		r := profilesRouter(store, nil)
		w := doJSON(r, http.MethodDelete, "/api/business-profiles/"+profileID, "", ownerCookie())

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		if deleted != profileID {
			t.Fatalf("deleted id = %q, want %q", deleted, profileID)
		}
	})

	t.Run("stranger_gets_403", func(t *testing.T) {
		r := profilesRouter(guardStore(), nil)
		w := doJSON(r, http.MethodDelete, "/api/business-profiles/"+profileID, "", strangerCookie())

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("missing_profile_is_404", func(t *testing.T) {
		r := profilesRouter(guardStore(), nil)
		w := doJSON(r, http.MethodDelete, "/api/business-profiles/"+missingID, "", ownerCookie())

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}
