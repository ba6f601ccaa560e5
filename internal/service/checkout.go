package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

// Plan is a purchasable subscription tier.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceID     string `json:"price_id"`
	AmountCents int    `json:"amount_cents"`
	Interval    string `json:"interval"`
}

// plans are fixed at build time; the billing backend resolves PriceID to
// the actual charge.
var plans = map[string]Plan{
	"monthly": {
		ID:          "monthly",
		Name:        "Premium Monthly",
		PriceID:     "price_monthly_premium",
		AmountCents: 999,
		Interval:    "month",
	},
	"annual": {
		ID:          "annual",
		Name:        "Premium Annual",
		PriceID:     "price_annual_premium",
		AmountCents: 7999,
		Interval:    "year",
	},
}

// CheckoutService drives the premium subscription flow against an
// external billing backend. In demo mode the client may confirm the
// purchase itself; outside demo mode entitlement changes only follow a
// backend-confirmed event.
type CheckoutService struct {
	apiURL   string
	demoMode bool
	profiles *ProfileService
	client   *http.Client
	logger   *zap.Logger
}

func NewCheckoutService(cfg config.BillingConfig, profiles *ProfileService, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		apiURL:   cfg.APIURL,
		demoMode: cfg.DemoMode,
		profiles: profiles,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Plans lists the purchasable tiers in a stable order.
func (s *CheckoutService) Plans() []Plan {
	return []Plan{plans["monthly"], plans["annual"]}
}

// StartCheckout asks the billing backend for a hosted checkout session
// for the given plan. An unknown plan id is a validation error, not a
// backend failure.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID uuid.UUID, planID string) (*types.CheckoutSession, error) {
	plan, ok := plans[planID]
	if !ok {
		return nil, &ValidationError{Fields: []string{"plan_id"}}
	}

	if s.demoMode && s.apiURL == "" {
		// Demo deployments run without a billing backend; hand back a
		// synthetic session the client can "complete" locally.
		session := &types.CheckoutSession{
			SessionID: "demo_" + uuid.NewString(),
			URL:       fmt.Sprintf("/billing/demo-checkout?plan=%s", plan.ID),
		}
		s.logger.Info("checkout session created",
			zap.String("mode", "demo"),
			zap.String("user_id", userID.String()),
			zap.String("plan", plan.ID))
		return session, nil
	}

	payload := struct {
		UserID  string `json:"user_id"`
		PriceID string `json:"price_id"`
	}{UserID: userID.String(), PriceID: plan.PriceID}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &CheckoutError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v1/checkout/sessions", bytes.NewBuffer(data))
	if err != nil {
		return nil, &CheckoutError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &CheckoutError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CheckoutError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &CheckoutError{Err: fmt.Errorf("billing backend returned status %d: %s", resp.StatusCode, string(body))}
	}

	var session types.CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, &CheckoutError{Err: fmt.Errorf("decode response: %w", err)}
	}

	s.logger.Info("checkout session created",
		zap.String("mode", "live"),
		zap.String("user_id", userID.String()),
		zap.String("plan", plan.ID),
		zap.String("session_id", session.SessionID))
	return &session, nil
}

// ConfirmPremium grants the premium entitlement on the client's say-so.
// Permitted only in demo mode: a production deployment confirms from the
// billing backend's signed event, never from the browser.
func (s *CheckoutService) ConfirmPremium(ctx context.Context, userID uuid.UUID, sessionID string) (*models.UserProfile, error) {
	if !s.demoMode {
		return nil, &CheckoutError{Err: fmt.Errorf("client-side confirmation is disabled outside demo mode")}
	}

	profile, err := s.profiles.SetPremium(ctx, userID, true, "demo_customer_"+userID.String())
	if err != nil {
		return nil, err
	}
	s.logger.Info("premium confirmed",
		zap.String("mode", "demo"),
		zap.String("user_id", userID.String()),
		zap.String("session_id", sessionID))
	return profile, nil
}

// CancelSubscription ends the subscription. The premium flag is cleared
// only after the billing backend acknowledges the cancellation (or
// immediately in demo mode, where there is nothing to acknowledge).
func (s *CheckoutService) CancelSubscription(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if !s.demoMode {
		payload := struct {
			UserID string `json:"user_id"`
		}{UserID: userID.String()}

		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &CheckoutError{Err: fmt.Errorf("marshal request: %w", err)}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/v1/subscriptions/cancel", bytes.NewBuffer(data))
		if err != nil {
			return nil, &CheckoutError{Err: fmt.Errorf("create request: %w", err)}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, &CheckoutError{Err: fmt.Errorf("send request: %w", err)}
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, &CheckoutError{Err: fmt.Errorf("billing backend returned status %d: %s", resp.StatusCode, string(body))}
		}
	}

	profile, err := s.profiles.SetPremium(ctx, userID, false, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscription cancelled", zap.String("user_id", userID.String()))
	return profile, nil
}
