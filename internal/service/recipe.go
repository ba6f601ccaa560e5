package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

// searchPageSize caps every search result set.
const searchPageSize = 50

// defaultPublicLimit matches the public listing default of the web UI.
const defaultPublicLimit = 20

// RecipeService is the storage facade for recipes. Ownership rules are
// enforced here: only the owner may mutate or delete a recipe, and
// private recipes are only visible to their owner.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// Create validates and persists a new recipe. Blank ingredient and
// instruction entries are dropped before validation; order is preserved.
func (s *RecipeService) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	recipe.Ingredients = filterBlank(recipe.Ingredients)
	recipe.Instructions = filterBlank(recipe.Instructions)
	if recipe.Difficulty == "" {
		recipe.Difficulty = models.DifficultyMedium
	}

	var fields []string
	if strings.TrimSpace(recipe.Title) == "" {
		fields = append(fields, "title")
	}
	if len(recipe.Ingredients) == 0 {
		fields = append(fields, "ingredients")
	}
	if len(recipe.Instructions) == 0 {
		fields = append(fields, "instructions")
	}
	if !models.ValidDifficulty(recipe.Difficulty) {
		fields = append(fields, "difficulty")
	}
	if recipe.PrepTime < 0 {
		fields = append(fields, "prep_time")
	}
	if recipe.CookTime < 0 {
		fields = append(fields, "cook_time")
	}
	if recipe.Servings < 1 {
		fields = append(fields, "servings")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetByID returns the recipe or ErrNotFound. ErrNotFound is an expected
// outcome; callers must not treat it as a transport failure.
func (s *RecipeService) GetByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListByOwner returns all of a user's recipes, newest first, regardless
// of visibility.
func (s *RecipeService) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// ListPublic returns public recipes, newest first, bounded by limit.
func (s *RecipeService) ListPublic(ctx context.Context, limit int) ([]*models.Recipe, error) {
	if limit <= 0 {
		limit = defaultPublicLimit
	}
	if limit > searchPageSize {
		limit = searchPageSize
	}
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// Search returns public recipes whose title or description contains text
// (case-insensitive; empty text matches all), intersected with the
// supplied filters. Newest first, id as a stable tie-break, capped at 50.
func (s *RecipeService) Search(ctx context.Context, text string, filters types.SearchFilters) ([]*models.Recipe, error) {
	query := s.db.WithContext(ctx).Where("is_public = ?", true)

	if text != "" {
		like := "%" + strings.ToLower(text) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filters.Cuisine != "" {
		query = query.Where("cuisine_type = ?", filters.Cuisine)
	}
	if filters.Difficulty != "" {
		query = query.Where("difficulty = ?", filters.Difficulty)
	}
	if filters.MaxCookTime > 0 {
		query = query.Where("cook_time <= ?", filters.MaxCookTime)
	}
	for _, tag := range filters.DietaryRestrictions {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		// Match the JSON-encoded element, quotes included, so "dairy"
		// does not match a recipe tagged only "dairy-free".
		like := `%"` + strings.ToLower(tag) + `"%`
		if s.db.Dialector.Name() == "postgres" {
			query = query.Where("LOWER(dietary_restrictions::text) LIKE ?", like)
		} else {
			query = query.Where("LOWER(dietary_restrictions) LIKE ?", like)
		}
	}

	var recipes []models.Recipe
	err := query.
		Order("created_at DESC, id ASC").
		Limit(searchPageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return toPointers(recipes), nil
}

// Update applies a partial update. Only the owner may update; the
// persisted non-empty invariants are re-checked against the result.
func (s *RecipeService) Update(ctx context.Context, callerID, id uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error) {
	recipe, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != callerID {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Ingredients != nil {
		recipe.Ingredients = filterBlank(*req.Ingredients)
	}
	if req.Instructions != nil {
		recipe.Instructions = filterBlank(*req.Instructions)
	}
	if req.PrepTime != nil {
		recipe.PrepTime = *req.PrepTime
	}
	if req.CookTime != nil {
		recipe.CookTime = *req.CookTime
	}
	if req.Servings != nil {
		recipe.Servings = *req.Servings
	}
	if req.Difficulty != nil {
		recipe.Difficulty = *req.Difficulty
	}
	if req.CuisineType != nil {
		recipe.CuisineType = *req.CuisineType
	}
	if req.DietaryRestrictions != nil {
		recipe.DietaryRestrictions = models.JSONBStringArray(*req.DietaryRestrictions)
	}
	if req.ImageURL != nil {
		recipe.ImageURL = *req.ImageURL
	}
	if req.IsPublic != nil {
		recipe.IsPublic = *req.IsPublic
	}

	var fields []string
	if strings.TrimSpace(recipe.Title) == "" {
		fields = append(fields, "title")
	}
	if len(recipe.Ingredients) == 0 {
		fields = append(fields, "ingredients")
	}
	if len(recipe.Instructions) == 0 {
		fields = append(fields, "instructions")
	}
	if !models.ValidDifficulty(recipe.Difficulty) {
		fields = append(fields, "difficulty")
	}
	if recipe.PrepTime < 0 {
		fields = append(fields, "prep_time")
	}
	if recipe.CookTime < 0 {
		fields = append(fields, "cook_time")
	}
	if recipe.Servings < 1 {
		fields = append(fields, "servings")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes a recipe. Deleting an id that does not exist is not an
// error; deleting someone else's recipe is.
func (s *RecipeService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	recipe, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if recipe.UserID != callerID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&models.Recipe{}, "id = ?", id).Error
}

func filterBlank(in []string) models.JSONBStringArray {
	out := make(models.JSONBStringArray, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func toPointers(recipes []models.Recipe) []*models.Recipe {
	result := make([]*models.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result
}
