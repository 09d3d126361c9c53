package profile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	BusinessName      string    `json:"business_name"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	Industry          string    `json:"industry"`
	FacebookPageURL   *string   `json:"facebook_page_url,omitempty"`
	TwitterHandle     *string   `json:"twitter_handle,omitempty"`
	InstagramHandle   *string   `json:"instagram_handle,omitempty"`
	LinkedinPageURL   *string   `json:"linkedin_page_url,omitempty"`
	TargetAudience    string    `json:"target_audience_description"`
	TargetKeywords    string    `json:"target_audience_keywords"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("business profile not found")

type CreateProfileRequest struct {
	UserID            string  `json:"-"`
	BusinessName      string  `json:"business_name" binding:"required,min=1,max=200"`
	ProfilePictureURL *string `json:"profile_picture_url" binding:"omitempty,url"`
	Industry          string  `json:"industry" binding:"required,min=1,max=120"`
	FacebookPageURL   *string `json:"facebook_page_url" binding:"omitempty,url"`
	TwitterHandle     *string `json:"twitter_handle" binding:"omitempty,max=60"`
	InstagramHandle   *string `json:"instagram_handle" binding:"omitempty,max=60"`
	LinkedinPageURL   *string `json:"linkedin_page_url" binding:"omitempty,url"`
	TargetAudience    string  `json:"target_audience_description" binding:"required,min=10"`
	TargetKeywords    string  `json:"target_audience_keywords" binding:"required,min=1"`
}

// partial update: nil means "leave unchanged"
type UpdateProfileRequest struct {
	BusinessName      *string `json:"business_name" binding:"omitempty,min=1,max=200"`
	ProfilePictureURL *string `json:"profile_picture_url" binding:"omitempty,url"`
	Industry          *string `json:"industry" binding:"omitempty,min=1,max=120"`
	FacebookPageURL   *string `json:"facebook_page_url" binding:"omitempty,url"`
	TwitterHandle     *string `json:"twitter_handle" binding:"omitempty,max=60"`
	InstagramHandle   *string `json:"instagram_handle" binding:"omitempty,max=60"`
	LinkedinPageURL   *string `json:"linkedin_page_url" binding:"omitempty,url"`
	TargetAudience    *string `json:"target_audience_description" binding:"omitempty,min=10"`
	TargetKeywords    *string `json:"target_audience_keywords" binding:"omitempty,min=1"`
}

// A factory to build a Profile from the incoming DTO.
func NewFromCreateRequest(req CreateProfileRequest) Profile {
	now := time.Now().UTC()

	return Profile{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		BusinessName:      req.BusinessName,
		ProfilePictureURL: req.ProfilePictureURL,
		Industry:          req.Industry,
		FacebookPageURL:   req.FacebookPageURL,
		TwitterHandle:     req.TwitterHandle,
		InstagramHandle:   req.InstagramHandle,
		LinkedinPageURL:   req.LinkedinPageURL,
		TargetAudience:    req.TargetAudience,
		TargetKeywords:    req.TargetKeywords,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Apply overlays the non-nil fields of an update onto an existing profile.
func (p Profile) Apply(req UpdateProfileRequest) Profile {
	if req.BusinessName != nil {
		p.BusinessName = *req.BusinessName
	}
	if req.ProfilePictureURL != nil {
		p.ProfilePictureURL = req.ProfilePictureURL
	}
	if req.Industry != nil {
		p.Industry = *req.Industry
	}
	if req.FacebookPageURL != nil {
		p.FacebookPageURL = req.FacebookPageURL
	}
	if req.TwitterHandle != nil {
		p.TwitterHandle = req.TwitterHandle
	}
	if req.InstagramHandle != nil {
		p.InstagramHandle = req.InstagramHandle
	}
	if req.LinkedinPageURL != nil {
		p.LinkedinPageURL = req.LinkedinPageURL
	}
	if req.TargetAudience != nil {
		p.TargetAudience = *req.TargetAudience
	}
	if req.TargetKeywords != nil {
		p.TargetKeywords = *req.TargetKeywords
	}
	p.UpdatedAt = time.Now().UTC()
	return p
}
