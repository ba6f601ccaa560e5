package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

// ProfileService handles user profile operations
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile retrieves a user's profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile writes the allowed fields (name, premium flag,
// payment-customer reference) for the given user only.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.IsPremium != nil {
		profile.IsPremium = *req.IsPremium
	}
	if req.StripeCustomerID != nil {
		profile.StripeCustomerID = *req.StripeCustomerID
	}

	if err := s.db.WithContext(ctx).Save(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// IsPremium reports whether the user holds the premium entitlement. A
// missing profile reads as not premium.
func (s *ProfileService) IsPremium(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := s.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.IsPremium, nil
}

// SetPremium flips the premium entitlement, recording the payment
// customer reference when one is supplied. Used by the checkout flow.
func (s *ProfileService) SetPremium(ctx context.Context, userID uuid.UUID, premium bool, stripeCustomerID string) (*models.UserProfile, error) {
	req := &types.UpdateProfileRequest{IsPremium: &premium}
	if stripeCustomerID != "" {
		req.StripeCustomerID = &stripeCustomerID
	}
	return s.UpdateProfile(ctx, userID, req)
}
