package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/backend/internal/types"
)

func TestGenerateRecipeFallback(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/assistant/recipe", types.RecipeRequest{
		Ingredients: []string{"salmon", "lemon", "dill"},
		CookingTime: 40,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Recipe types.GeneratedRecipe `json:"recipe"`
	}
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Recipe.Title, "salmon")
	assert.Equal(t, 12, resp.Recipe.PrepTime)
	assert.Equal(t, 28, resp.Recipe.CookTime)
}

func TestGenerateRecipeRequiresAuth(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assistant/recipe", types.RecipeRequest{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdviceRecordsHistory(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/assistant/advice", AdviceRequest{
		Question: "What can I substitute for butter?",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Answer string `json:"answer"`
	}
	decodeBody(t, w, &resp)
	assert.NotEmpty(t, resp.Answer)

	// History runs on redis; without it the listing is just empty.
	w = doJSON(t, router, http.MethodGet, "/api/v1/assistant/history", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		History []types.ChatExchange `json:"history"`
	}
	decodeBody(t, w, &history)
	assert.Empty(t, history.History)
}

func TestImproveRecipeRequiresPremium(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	improveReq := ImproveRecipeRequest{
		Recipe: types.GeneratedRecipe{
			Title:        "Plain Toast",
			Description:  "Bread, toasted",
			Ingredients:  []string{"bread"},
			Instructions: []string{"toast the bread"},
			Servings:     1,
			Difficulty:   "easy",
		},
		Feedback: "make it more interesting",
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/assistant/improve", improveReq, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Upgrade through the demo checkout flow, then retry.
	w = doJSON(t, router, http.MethodPost, "/api/v1/billing/checkout", CheckoutRequest{PlanID: "monthly"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session types.CheckoutSession
	decodeBody(t, w, &session)

	w = doJSON(t, router, http.MethodPost, "/api/v1/billing/confirm", ConfirmRequest{SessionID: session.SessionID}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/assistant/improve", improveReq, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Recipe types.GeneratedRecipe `json:"recipe"`
	}
	decodeBody(t, w, &resp)
	assert.NotEmpty(t, resp.Recipe.Title)
}
