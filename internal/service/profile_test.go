package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/backend/internal/types"
)

func TestGetProfileNotFound(t *testing.T) {
	svc := NewProfileService(testDB(t))

	_, err := svc.GetProfile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc := NewProfileService(testDB(t))
	userID := seedProfile(t, svc, false)

	name := "Alice Cooper"
	updated, err := svc.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.False(t, updated.IsPremium)
}

func TestIsPremiumMissingProfile(t *testing.T) {
	svc := NewProfileService(testDB(t))

	premium, err := svc.IsPremium(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestSetPremiumRoundTrip(t *testing.T) {
	svc := NewProfileService(testDB(t))
	userID := seedProfile(t, svc, false)
	ctx := context.Background()

	profile, err := svc.SetPremium(ctx, userID, true, "cus_42")
	require.NoError(t, err)
	assert.True(t, profile.IsPremium)
	assert.Equal(t, "cus_42", profile.StripeCustomerID)

	profile, err = svc.SetPremium(ctx, userID, false, "")
	require.NoError(t, err)
	assert.False(t, profile.IsPremium)
	// Clearing premium keeps the customer reference for re-subscription.
	assert.Equal(t, "cus_42", profile.StripeCustomerID)
}
