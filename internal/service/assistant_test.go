package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

func newAssistant(cfg config.AssistantConfig) *AssistantService {
	return NewAssistantService(cfg, testLogger())
}

// chatStub answers every chat-completions call with the given content.
func chatStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestGenerateRecipeLive(t *testing.T) {
	content := `Here is your recipe:
{"title":"Garlic Chicken","description":"Simple weeknight dinner","ingredients":["chicken","garlic"],"instructions":["cook it"],"prepTime":10,"cookTime":30,"servings":4,"difficulty":"easy","cuisineType":"Italian","dietaryRestrictions":[]}
Enjoy!`
	srv := chatStub(t, content)
	defer srv.Close()

	svc := newAssistant(config.AssistantConfig{APIKey: "test-key", APIURL: srv.URL, Model: "test-model"})
	recipe, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Garlic Chicken", recipe.Title)
	assert.Equal(t, 10, recipe.PrepTime)
	assert.Equal(t, 30, recipe.CookTime)
	assert.Equal(t, "easy", recipe.Difficulty)
}

func TestGenerateRecipeParseErrorDoesNotFallBack(t *testing.T) {
	srv := chatStub(t, "I cannot produce JSON today, sorry.")
	defer srv.Close()

	svc := newAssistant(config.AssistantConfig{APIKey: "test-key", APIURL: srv.URL, FallbackEnabled: true})
	_, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{})
	var parseErr *GenerationParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGenerateRecipeTransportErrorFallsBack(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{
		APIKey:          "test-key",
		APIURL:          "http://127.0.0.1:1", // nothing listens here
		FallbackEnabled: true,
	})
	recipe, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{Ingredients: []string{"tofu"}})
	require.NoError(t, err)
	assert.Contains(t, recipe.Title, "tofu")
}

func TestGenerateRecipeUnconfiguredWithoutFallback(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{FallbackEnabled: false})
	_, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{})
	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
}

func TestFallbackRecipeTimeSplit(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{FallbackEnabled: true})

	recipe, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{CookingTime: 40})
	require.NoError(t, err)
	assert.Equal(t, 12, recipe.PrepTime)
	assert.Equal(t, 28, recipe.CookTime)

	// Without a requested time the defaults apply.
	recipe, err = svc.GenerateRecipe(context.Background(), &types.RecipeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 15, recipe.PrepTime)
	assert.Equal(t, 25, recipe.CookTime)
	assert.Equal(t, 4, recipe.Servings)
}

func TestFallbackRecipeDefaultIngredients(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{FallbackEnabled: true})

	recipe, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(recipe.Ingredients), 3)
	assert.Contains(t, recipe.Ingredients[0], "chicken")
	assert.Contains(t, recipe.Ingredients[1], "garlic")
	assert.Contains(t, recipe.Ingredients[2], "olive oil")
}

func TestFallbackRecipeFromFullRequest(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{FallbackEnabled: true})

	recipe, err := svc.GenerateRecipe(context.Background(), &types.RecipeRequest{
		Ingredients: []string{"chicken", "garlic", "olive oil"},
		Difficulty:  "medium",
		CookingTime: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, "medium", recipe.Difficulty)
	assert.Equal(t, 12, recipe.PrepTime)
	assert.Equal(t, 28, recipe.CookTime)
	require.GreaterOrEqual(t, len(recipe.Ingredients), 3)
	assert.Contains(t, recipe.Ingredients[0], "chicken")
	assert.Contains(t, recipe.Ingredients[1], "garlic")
	assert.Contains(t, recipe.Ingredients[2], "olive oil")
}

func TestParseGeneratedRecipeDefaults(t *testing.T) {
	// servings absent defaults to 1; a present zero prepTime stays zero.
	raw := `{"title":"T","description":"D","ingredients":["a"],"instructions":["b"],"prepTime":0,"cookTime":20,"difficulty":"extreme","cuisineType":"Fusion"}`
	recipe, err := parseGeneratedRecipe(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, recipe.Servings)
	assert.Equal(t, 0, recipe.PrepTime)
	assert.Equal(t, 20, recipe.CookTime)
	assert.Equal(t, models.DifficultyMedium, recipe.Difficulty)
	assert.Equal(t, []string{}, recipe.DietaryRestrictions)
}

func TestParseGeneratedRecipeStringNumbers(t *testing.T) {
	raw := `{"title":"T","description":"D","ingredients":["a"],"instructions":["b"],"prepTime":"15","cookTime":"oops","servings":"2","difficulty":"hard","cuisineType":""}`
	recipe, err := parseGeneratedRecipe(raw)
	require.NoError(t, err)
	assert.Equal(t, 15, recipe.PrepTime)
	assert.Equal(t, 0, recipe.CookTime)
	assert.Equal(t, 2, recipe.Servings)
}

func TestParseGeneratedRecipeMissingRequired(t *testing.T) {
	cases := map[string]string{
		"no title":        `{"description":"D","ingredients":["a"],"instructions":["b"]}`,
		"no description":  `{"title":"T","ingredients":["a"],"instructions":["b"]}`,
		"no ingredients":  `{"title":"T","description":"D","instructions":["b"]}`,
		"no instructions": `{"title":"T","description":"D","ingredients":["a"]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseGeneratedRecipe(raw)
			var parseErr *GenerationParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseGeneratedRecipeNonArrayCoercion(t *testing.T) {
	raw := `{"title":"T","description":"D","ingredients":"not a list","instructions":["b"],"dietaryRestrictions":42}`
	recipe, err := parseGeneratedRecipe(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{}, recipe.Ingredients)
	assert.Equal(t, []string{"b"}, recipe.Instructions)
	assert.Equal(t, []string{}, recipe.DietaryRestrictions)
}

func TestExtractJSONObject(t *testing.T) {
	obj, ok := extractJSONObject(`prefix {"a":{"b":"}"},"c":"\"{"} suffix`)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":"}"},"c":"\"{"}`, obj)

	_, ok = extractJSONObject("no braces here")
	assert.False(t, ok)

	_, ok = extractJSONObject(`{"unterminated":`)
	assert.False(t, ok)
}

func TestFallbackAdviceKeywords(t *testing.T) {
	assert.Contains(t, fallbackAdvice("What can I substitute for eggs?"), "substitut")
	assert.Contains(t, fallbackAdvice("What temperature for chicken?"), "165°F")
	assert.Contains(t, fallbackAdvice("How much salt?"), "Seasoning")
	assert.Contains(t, fallbackAdvice("Any tips?"), "mise en place")
}

func TestGetCookingAdviceFallback(t *testing.T) {
	svc := newAssistant(config.AssistantConfig{FallbackEnabled: true})
	answer, err := svc.GetCookingAdvice(context.Background(), "How do I bake bread?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
}
