package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/domain/profile"
	"github.com/postpilot/api/internal/domain/user"
	"github.com/postpilot/api/internal/http/middlewares"
	"github.com/postpilot/api/internal/quota"
	"github.com/postpilot/api/internal/utils"
)

type ProfileStore interface {
	Create(ctx context.Context, req profile.CreateProfileRequest) (profile.Profile, error)
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]profile.Profile, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, p profile.Profile) (profile.Profile, error)
	Delete(ctx context.Context, id string) error
}

type ProfilesHandler struct {
	repo  ProfileStore
	users UserReader
}

func NewProfilesHandler(repo ProfileStore, users UserReader) *ProfilesHandler {
	return &ProfilesHandler{
		repo:  repo,
		users: users,
	}
}

func (h *ProfilesHandler) CreateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	var req profile.CreateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// the session is the source of truth for ownership
	req.UserID = userID

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// the store re-checks the quota under a lock on the owner row, so two
	// concurrent creates cannot both slip past the limit
	p, err := h.repo.Create(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, quota.ErrQuotaExceeded):
			RespondForbidden(ctx, "quota_exceeded", "Free accounts are limited to 1 business profile. Upgrade to add more.")
		case errors.Is(err, user.ErrNotFound):
			RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		default:
			RespondInternal(ctx, "Could not create business profile")
		}
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *ProfilesHandler) ListProfiles(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	profiles, err := h.repo.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list business profiles")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": profiles,
		"count": len(profiles),
	})
}

func (h *ProfilesHandler) CanCreate(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Authentication required")
			return
		}

		RespondInternal(ctx, "Could not check profile creation eligibility")
		return
	}

	owned, err := h.repo.CountByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not check profile creation eligibility")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"canCreate": quota.CanCreate(u.Tier, owned)})
}

func (h *ProfilesHandler) GetProfileById(ctx *gin.Context) {
	p, ok := h.loadOwnedProfile(ctx)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProfilesHandler) UpdateProfile(ctx *gin.Context) {
	p, ok := h.loadOwnedProfile(ctx)

	if !ok {
		return
	}

	var req profile.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, p.Apply(req))

	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, "Business profile not found")
			return
		}

		RespondInternal(ctx, "Could not update business profile")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *ProfilesHandler) DeleteProfile(ctx *gin.Context) {
	p, ok := h.loadOwnedProfile(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, p.ID)

	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, "Business profile not found")
			return
		}

		RespondInternal(ctx, "Could not delete business profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Business profile deleted successfully"})
}

// loadOwnedProfile fetches the :id profile and enforces the ownership guard.
// Absence is a 404; someone else's profile is a 403.
func (h *ProfilesHandler) loadOwnedProfile(ctx *gin.Context) (profile.Profile, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Authentication required")
		return profile.Profile{}, false
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Business profile not found")
		return profile.Profile{}, false
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			RespondNotFound(ctx, "Business profile not found")
			return profile.Profile{}, false
		}

		RespondInternal(ctx, "Could not fetch business profile")
		return profile.Profile{}, false
	}

	if p.UserID != userID {
		RespondForbidden(ctx, "forbidden", "You do not have access to this business profile.")
		return profile.Profile{}, false
	}

	return p, true
}
