package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/service"
	"github.com/forkful/backend/internal/types"
)

type CreateRecipeRequest struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	Ingredients         []string `json:"ingredients" binding:"required"`
	Instructions        []string `json:"instructions" binding:"required"`
	PrepTime            int      `json:"prep_time"`
	CookTime            int      `json:"cook_time"`
	Servings            int      `json:"servings"`
	Difficulty          string   `json:"difficulty"`
	CuisineType         string   `json:"cuisine_type"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	ImageURL            string   `json:"image_url"`
	IsPublic            bool     `json:"is_public"`
}

// RecipeHandler serves recipe CRUD, listing and search.
type RecipeHandler struct {
	recipes *service.RecipeService
	images  *service.ImageService
	logger  *zap.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, images *service.ImageService, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, images: images, logger: logger}
}

func (h *RecipeHandler) RegisterRoutes(r *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	recipes := r.Group("/recipes")
	{
		recipes.GET("", h.ListPublic)
		recipes.GET("/search", h.Search)
		recipes.GET("/mine", authMW, h.ListMine)
		recipes.GET("/:id", optionalAuthMW, h.Get)
		recipes.POST("", authMW, h.Create)
		recipes.PUT("/:id", authMW, h.Update)
		recipes.DELETE("/:id", authMW, h.Delete)
		recipes.POST("/:id/image", authMW, h.UploadImage)
	}
}

func (h *RecipeHandler) ListPublic(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	recipes, err := h.recipes.ListPublic(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) Search(c *gin.Context) {
	maxCookTime, _ := strconv.Atoi(c.Query("max_cook_time"))
	filters := types.SearchFilters{
		Cuisine:     c.Query("cuisine"),
		Difficulty:  c.Query("difficulty"),
		MaxCookTime: maxCookTime,
	}
	if dietary := c.Query("dietary"); dietary != "" {
		filters.DietaryRestrictions = strings.Split(dietary, ",")
	}

	recipes, err := h.recipes.Search(c.Request.Context(), c.Query("q"), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ListMine(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	recipes, err := h.recipes.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// Get returns one recipe. A private recipe is served only to its owner;
// to anyone else it does not exist.
func (h *RecipeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if !recipe.IsPublic {
		callerID, err := middleware.CurrentUserID(c)
		if err != nil || callerID != recipe.UserID {
			respondError(c, h.logger, service.ErrNotFound)
			return
		}
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) Create(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	servings := req.Servings
	if servings == 0 {
		servings = 1
	}

	recipe := &models.Recipe{
		UserID:              userID,
		Title:               req.Title,
		Description:         req.Description,
		Ingredients:         models.JSONBStringArray(req.Ingredients),
		Instructions:        models.JSONBStringArray(req.Instructions),
		PrepTime:            req.PrepTime,
		CookTime:            req.CookTime,
		Servings:            servings,
		Difficulty:          req.Difficulty,
		CuisineType:         req.CuisineType,
		DietaryRestrictions: models.JSONBStringArray(req.DietaryRestrictions),
		ImageURL:            req.ImageURL,
		IsPublic:            req.IsPublic,
	}

	created, err := h.recipes.Create(c.Request.Context(), recipe)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *RecipeHandler) Update(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.recipes.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage stores a recipe photo and records its URL on the recipe.
// Only the owner may attach an image.
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	// Ownership is checked before touching storage so a rejected
	// request never leaves an orphaned object behind.
	recipe, err := h.recipes.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if recipe.UserID != userID {
		respondError(c, h.logger, service.ErrForbidden)
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	url, err := h.images.UploadRecipeImage(c.Request.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	updated, err := h.recipes.Update(c.Request.Context(), userID, id, &types.UpdateRecipeRequest{ImageURL: &url})
	if err != nil {
		h.logger.Warn("image uploaded but not attached", zap.String("url", url), zap.Error(err))
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
