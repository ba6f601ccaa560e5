package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkful/backend/internal/models"
)

func createRecipe(t *testing.T, router *gin.Engine, token string, mutate func(*CreateRecipeRequest)) models.Recipe {
	t.Helper()

	req := CreateRecipeRequest{
		Title:        "Spaghetti Carbonara",
		Description:  "Classic Roman pasta",
		Ingredients:  []string{"spaghetti", "eggs", "guanciale"},
		Instructions: []string{"Boil pasta", "Mix eggs", "Combine"},
		PrepTime:     10,
		CookTime:     20,
		Servings:     2,
		Difficulty:   "medium",
		CuisineType:  "Italian",
		IsPublic:     true,
	}
	if mutate != nil {
		mutate(&req)
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", req, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recipe models.Recipe
	decodeBody(t, w, &recipe)
	return recipe
}

func TestCreateAndGetRecipe(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	recipe := createRecipe(t, router, token, nil)
	require.NotEmpty(t, recipe.ID)

	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Recipe
	decodeBody(t, w, &got)
	assert.Equal(t, recipe.ID, got.ID)
	assert.Equal(t, "Spaghetti Carbonara", got.Title)
}

func TestCreateRecipeRequiresAuth(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", CreateRecipeRequest{
		Title:        "Anonymous Dish",
		Ingredients:  []string{"a"},
		Instructions: []string{"b"},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeValidationResponse(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", map[string]any{
		"title":        "No Steps",
		"ingredients":  []string{"flour"},
		"instructions": []string{"  "},
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields []string `json:"fields"`
	}
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Fields, "instructions")
}

func TestPrivateRecipeVisibility(t *testing.T) {
	router := setupTestRouter(t)
	ownerToken := registerUser(t, router, "Alice", "alice@example.com")
	strangerToken := registerUser(t, router, "Bob", "bob@example.com")

	recipe := createRecipe(t, router, ownerToken, func(r *CreateRecipeRequest) {
		r.IsPublic = false
	})
	path := "/api/v1/recipes/" + recipe.ID.String()

	// Owner sees it.
	w := doJSON(t, router, http.MethodGet, path, nil, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// To anyone else it does not exist.
	w = doJSON(t, router, http.MethodGet, path, nil, strangerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, router, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// And it never shows up in public listings or search.
	var listing struct {
		Recipes []models.Recipe `json:"recipes"`
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &listing)
	assert.Empty(t, listing.Recipes)
}

func TestSearchRecipes(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	createRecipe(t, router, token, func(r *CreateRecipeRequest) {
		r.Title = "Vegan Curry"
		r.CuisineType = "Indian"
		r.DietaryRestrictions = []string{"vegan"}
	})
	createRecipe(t, router, token, func(r *CreateRecipeRequest) {
		r.Title = "Beef Stew"
		r.CuisineType = "French"
	})

	var resp struct {
		Recipes []models.Recipe `json:"recipes"`
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes/search?q=curry", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "Vegan Curry", resp.Recipes[0].Title)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes/search?cuisine=French", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "Beef Stew", resp.Recipes[0].Title)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes/search?dietary=vegan", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "Vegan Curry", resp.Recipes[0].Title)
}

func TestUpdateRecipeForbiddenForStranger(t *testing.T) {
	router := setupTestRouter(t)
	ownerToken := registerUser(t, router, "Alice", "alice@example.com")
	strangerToken := registerUser(t, router, "Bob", "bob@example.com")

	recipe := createRecipe(t, router, ownerToken, nil)
	path := "/api/v1/recipes/" + recipe.ID.String()

	w := doJSON(t, router, http.MethodPut, path, map[string]any{"title": "Stolen"}, strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPut, path, map[string]any{"title": "Improved"}, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Recipe
	decodeBody(t, w, &updated)
	assert.Equal(t, "Improved", updated.Title)
}

func TestDeleteRecipe(t *testing.T) {
	router := setupTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	recipe := createRecipe(t, router, token, nil)
	path := "/api/v1/recipes/" + recipe.ID.String()

	w := doJSON(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, path, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Idempotent: deleting again still succeeds.
	w = doJSON(t, router, http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListMine(t *testing.T) {
	router := setupTestRouter(t)
	aliceToken := registerUser(t, router, "Alice", "alice@example.com")
	bobToken := registerUser(t, router, "Bob", "bob@example.com")

	createRecipe(t, router, aliceToken, nil)
	createRecipe(t, router, aliceToken, func(r *CreateRecipeRequest) { r.IsPublic = false })
	createRecipe(t, router, bobToken, nil)

	var resp struct {
		Recipes []models.Recipe `json:"recipes"`
	}
	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes/mine", nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Recipes, 2)
}

func doImageUpload(t *testing.T, router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImageOwnershipCheckedBeforeStorage(t *testing.T) {
	router := setupTestRouter(t)
	ownerToken := registerUser(t, router, "Alice", "alice@example.com")
	strangerToken := registerUser(t, router, "Bob", "bob@example.com")

	recipe := createRecipe(t, router, ownerToken, nil)
	path := "/api/v1/recipes/" + recipe.ID.String() + "/image"

	// This harness has no object storage, so any attempt to store
	// surfaces as a 400. A non-owner must be turned away on ownership
	// first, before storage is ever touched.
	w := doImageUpload(t, router, path, strangerToken)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = doImageUpload(t, router, path, ownerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestGetRecipeInvalidID(t *testing.T) {
	router := setupTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
