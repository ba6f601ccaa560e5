package types

import (
	"time"

	"github.com/google/uuid"
)

// TokenClaims carries the identity embedded in a session token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// UpdateProfileRequest lists the profile fields a user may change.
// Pointer fields distinguish "not supplied" from a zero value.
type UpdateProfileRequest struct {
	Name             *string `json:"name"`
	IsPremium        *bool   `json:"is_premium"`
	StripeCustomerID *string `json:"stripe_customer_id"`
}

// SearchFilters narrows a public recipe search. Zero values mean
// "no constraint".
type SearchFilters struct {
	Cuisine             string   `json:"cuisine" form:"cuisine"`
	Difficulty          string   `json:"difficulty" form:"difficulty"`
	MaxCookTime         int      `json:"max_cook_time" form:"max_cook_time"`
	DietaryRestrictions []string `json:"dietary_restrictions" form:"dietary"`
}

// UpdateRecipeRequest is a partial recipe update. Only non-nil fields
// are applied.
type UpdateRecipeRequest struct {
	Title               *string   `json:"title"`
	Description         *string   `json:"description"`
	Ingredients         *[]string `json:"ingredients"`
	Instructions        *[]string `json:"instructions"`
	PrepTime            *int      `json:"prep_time"`
	CookTime            *int      `json:"cook_time"`
	Servings            *int      `json:"servings"`
	Difficulty          *string   `json:"difficulty"`
	CuisineType         *string   `json:"cuisine_type"`
	DietaryRestrictions *[]string `json:"dietary_restrictions"`
	ImageURL            *string   `json:"image_url"`
	IsPublic            *bool     `json:"is_public"`
}

// RecipeRequest describes what the caller wants the assistant to cook up.
// Every field is optional.
type RecipeRequest struct {
	Ingredients         []string `json:"ingredients"`
	Cuisine             string   `json:"cuisine"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Difficulty          string   `json:"difficulty"`
	CookingTime         int      `json:"cooking_time"`
	Servings            int      `json:"servings"`
}

// GeneratedRecipe is the assistant's output shape. It is transient:
// the caller may turn it into a stored recipe via the recipe service.
type GeneratedRecipe struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Ingredients         []string `json:"ingredients"`
	Instructions        []string `json:"instructions"`
	PrepTime            int      `json:"prepTime"`
	CookTime            int      `json:"cookTime"`
	Servings            int      `json:"servings"`
	Difficulty          string   `json:"difficulty"`
	CuisineType         string   `json:"cuisineType"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

// CheckoutSession is the handle returned by the billing backend.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// ChatExchange is one question/answer pair in a user's advice history.
type ChatExchange struct {
	UserID   uuid.UUID `json:"user_id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}
