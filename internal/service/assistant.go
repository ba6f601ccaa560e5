package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

const recipeSystemPrompt = "You are a professional chef and recipe creator. Generate detailed, practical recipes in JSON format."

const adviceSystemPrompt = "You are a helpful cooking assistant. Provide practical, clear advice about cooking, recipes, ingredients, and kitchen techniques."

const improveSystemPrompt = "You are a professional chef. Improve recipes based on user feedback while maintaining the original structure."

// AssistantService talks to the chat-completions inference endpoint.
// It is stateless: one request in, one typed result out. When the
// endpoint is not configured or unreachable and fallback is enabled, it
// serves deterministic template results instead — always logged with
// mode=fallback so telemetry can tell them from live inference.
type AssistantService struct {
	apiKey          string
	apiURL          string
	model           string
	fallbackEnabled bool
	client          *http.Client
	logger          *zap.Logger
}

func NewAssistantService(cfg config.AssistantConfig, logger *zap.Logger) *AssistantService {
	return &AssistantService{
		apiKey:          cfg.APIKey,
		apiURL:          cfg.APIURL,
		model:           cfg.Model,
		fallbackEnabled: cfg.FallbackEnabled,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

func (s *AssistantService) live() bool {
	return s.apiKey != ""
}

// GenerateRecipe builds a prompt from the request, sends it to the
// inference endpoint and parses the reply into a GeneratedRecipe. A
// transport failure (or an unconfigured endpoint) yields the template
// fallback when enabled, otherwise an InferenceError. A reply that is
// not shape-conformant yields a GenerationParseError; the caller decides
// whether to retry.
func (s *AssistantService) GenerateRecipe(ctx context.Context, req *types.RecipeRequest) (*types.GeneratedRecipe, error) {
	if !s.live() {
		if s.fallbackEnabled {
			s.logger.Info("assistant generate", zap.String("mode", "fallback"), zap.String("reason", "inference not configured"))
			return s.fallbackRecipe(req), nil
		}
		return nil, &InferenceError{Err: fmt.Errorf("inference endpoint not configured")}
	}

	raw, err := s.chat(ctx, recipeSystemPrompt, buildRecipePrompt(req), 0.7, 1500)
	if err != nil {
		if s.fallbackEnabled {
			s.logger.Warn("assistant generate", zap.String("mode", "fallback"), zap.Error(err))
			return s.fallbackRecipe(req), nil
		}
		return nil, err
	}

	recipe, err := parseGeneratedRecipe(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assistant generate", zap.String("mode", "live"), zap.String("title", recipe.Title))
	return recipe, nil
}

// GetCookingAdvice answers a free-text question. The response text is
// returned verbatim; quality is never validated.
func (s *AssistantService) GetCookingAdvice(ctx context.Context, question string) (string, error) {
	if !s.live() {
		if s.fallbackEnabled {
			s.logger.Info("assistant advice", zap.String("mode", "fallback"), zap.String("reason", "inference not configured"))
			return fallbackAdvice(question), nil
		}
		return "", &InferenceError{Err: fmt.Errorf("inference endpoint not configured")}
	}

	answer, err := s.chat(ctx, adviceSystemPrompt, question, 0.7, 500)
	if err != nil {
		if s.fallbackEnabled {
			s.logger.Warn("assistant advice", zap.String("mode", "fallback"), zap.Error(err))
			return fallbackAdvice(question), nil
		}
		return "", err
	}
	s.logger.Info("assistant advice", zap.String("mode", "live"))
	return answer, nil
}

// ImproveRecipe reworks an existing recipe according to free-text
// feedback, under the same prompt/parse contract as GenerateRecipe.
func (s *AssistantService) ImproveRecipe(ctx context.Context, recipe *types.GeneratedRecipe, feedback string) (*types.GeneratedRecipe, error) {
	if !s.live() {
		if s.fallbackEnabled {
			s.logger.Info("assistant improve", zap.String("mode", "fallback"), zap.String("reason", "inference not configured"))
			return s.fallbackRecipe(&types.RecipeRequest{}), nil
		}
		return nil, &InferenceError{Err: fmt.Errorf("inference endpoint not configured")}
	}

	prompt := fmt.Sprintf(`Please improve this recipe based on the following feedback: %q

Current recipe:
Title: %s
Description: %s
Ingredients: %s
Instructions: %s

Please return the improved recipe in the same JSON format as before:
%s`,
		feedback,
		recipe.Title,
		recipe.Description,
		strings.Join(recipe.Ingredients, ", "),
		strings.Join(recipe.Instructions, " "),
		recipeJSONShape)

	raw, err := s.chat(ctx, improveSystemPrompt, prompt, 0.7, 1500)
	if err != nil {
		if s.fallbackEnabled {
			s.logger.Warn("assistant improve", zap.String("mode", "fallback"), zap.Error(err))
			return s.fallbackRecipe(&types.RecipeRequest{}), nil
		}
		return nil, err
	}

	improved, err := parseGeneratedRecipe(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assistant improve", zap.String("mode", "live"), zap.String("title", improved.Title))
	return improved, nil
}

// chat performs one chat-completions round trip and returns the first
// choice's content.
func (s *AssistantService) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &InferenceError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &InferenceError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &InferenceError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &InferenceError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &InferenceError{Err: fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, string(body))}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &InferenceError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Choices) == 0 {
		return "", &InferenceError{Err: fmt.Errorf("no choices in response")}
	}
	return result.Choices[0].Message.Content, nil
}

const recipeJSONShape = `{
  "title": "Recipe Name",
  "description": "Brief description of the dish",
  "ingredients": ["ingredient 1", "ingredient 2"],
  "instructions": ["step 1", "step 2"],
  "prepTime": number_in_minutes,
  "cookTime": number_in_minutes,
  "servings": number,
  "difficulty": "easy|medium|hard",
  "cuisineType": "cuisine name",
  "dietaryRestrictions": ["restriction1", "restriction2"]
}`

// buildRecipePrompt enumerates every supplied request field, then pins
// the exact output shape.
func buildRecipePrompt(req *types.RecipeRequest) string {
	var b strings.Builder
	b.WriteString("Generate a detailed recipe with the following requirements:\n")

	if len(req.Ingredients) > 0 {
		fmt.Fprintf(&b, "- Must include these ingredients: %s\n", strings.Join(req.Ingredients, ", "))
	}
	if req.Cuisine != "" {
		fmt.Fprintf(&b, "- Cuisine type: %s\n", req.Cuisine)
	}
	if len(req.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "- Dietary restrictions: %s\n", strings.Join(req.DietaryRestrictions, ", "))
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, "- Difficulty level: %s\n", req.Difficulty)
	}
	if req.CookingTime > 0 {
		fmt.Fprintf(&b, "- Maximum cooking time: %d minutes\n", req.CookingTime)
	}
	if req.Servings > 0 {
		fmt.Fprintf(&b, "- Number of servings: %d\n", req.Servings)
	}

	b.WriteString("\nPlease return the recipe in this exact JSON format:\n")
	b.WriteString(recipeJSONShape)
	return b.String()
}

// parseGeneratedRecipe extracts the first balanced JSON object from the
// response text and shape-validates it. Numeric fields use explicit
// presence checks: a present zero stays zero, only absent or
// unparseable values take the 0/0/1 defaults.
func parseGeneratedRecipe(response string) (*types.GeneratedRecipe, error) {
	obj, ok := extractJSONObject(response)
	if !ok {
		return nil, &GenerationParseError{Reason: "no JSON object found in response"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, &GenerationParseError{Reason: "malformed JSON object: " + err.Error()}
	}

	title, ok := coerceString(fields["title"])
	if !ok || title == "" {
		return nil, &GenerationParseError{Reason: "missing required field: title"}
	}
	description, ok := coerceString(fields["description"])
	if !ok {
		return nil, &GenerationParseError{Reason: "missing required field: description"}
	}
	if _, present := fields["ingredients"]; !present {
		return nil, &GenerationParseError{Reason: "missing required field: ingredients"}
	}
	if _, present := fields["instructions"]; !present {
		return nil, &GenerationParseError{Reason: "missing required field: instructions"}
	}

	difficulty, _ := coerceString(fields["difficulty"])
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if !models.ValidDifficulty(difficulty) {
		difficulty = models.DifficultyMedium
	}
	cuisine, _ := coerceString(fields["cuisineType"])

	return &types.GeneratedRecipe{
		Title:               title,
		Description:         description,
		Ingredients:         coerceStringArray(fields["ingredients"]),
		Instructions:        coerceStringArray(fields["instructions"]),
		PrepTime:            coerceInt(fields["prepTime"], 0),
		CookTime:            coerceInt(fields["cookTime"], 0),
		Servings:            coerceInt(fields["servings"], 1),
		Difficulty:          difficulty,
		CuisineType:         cuisine,
		DietaryRestrictions: coerceStringArray(fields["dietaryRestrictions"]),
	}, nil
}

// extractJSONObject returns the first balanced JSON object in s,
// tracking brace depth while skipping string literals and escapes.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func coerceString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func coerceStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err != nil {
		return []string{}
	}
	return arr
}

func coerceInt(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 {
		return fallback
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return fallback
}

// fallbackRecipe fills a fixed template from the request so the product
// stays usable without inference credentials. The prep/cook split of a
// requested cooking time is 30/70.
func (s *AssistantService) fallbackRecipe(req *types.RecipeRequest) *types.GeneratedRecipe {
	ingredients := req.Ingredients
	if len(ingredients) == 0 {
		ingredients = []string{"chicken breast", "garlic", "olive oil"}
	}
	cuisine := req.Cuisine
	if cuisine == "" {
		cuisine = "Italian"
	}
	difficulty := req.Difficulty
	if !models.ValidDifficulty(difficulty) {
		difficulty = models.DifficultyMedium
	}

	second := "garlic"
	if len(ingredients) > 1 {
		second = ingredients[1]
	}
	third := "olive oil"
	if len(ingredients) > 2 {
		third = ingredients[2]
	}

	prepTime, cookTime := 15, 25
	if req.CookingTime > 0 {
		prepTime = req.CookingTime * 3 / 10
		cookTime = req.CookingTime * 7 / 10
	}
	servings := req.Servings
	if servings <= 0 {
		servings = 4
	}
	restrictions := req.DietaryRestrictions
	if restrictions == nil {
		restrictions = []string{}
	}

	return &types.GeneratedRecipe{
		Title:       fmt.Sprintf("Delicious %s %s Recipe", cuisine, ingredients[0]),
		Description: fmt.Sprintf("A wonderful %s recipe featuring %s with authentic %s flavors.", difficulty, strings.Join(ingredients, ", "), cuisine),
		Ingredients: []string{
			fmt.Sprintf("2 lbs %s", ingredients[0]),
			fmt.Sprintf("3 cloves %s, minced", second),
			fmt.Sprintf("2 tbsp %s", third),
			"1 tsp salt",
			"1/2 tsp black pepper",
			"1 tsp dried herbs",
		},
		Instructions: []string{
			"Preheat your oven to 375°F (190°C).",
			"Season the main ingredient with salt and pepper.",
			"Heat oil in a large skillet over medium-high heat.",
			"Cook the main ingredient until golden brown on both sides.",
			"Add garlic and herbs, cook for another minute.",
			"Transfer to oven and bake for 15-20 minutes until cooked through.",
			"Let rest for 5 minutes before serving.",
		},
		PrepTime:            prepTime,
		CookTime:            cookTime,
		Servings:            servings,
		Difficulty:          difficulty,
		CuisineType:         cuisine,
		DietaryRestrictions: restrictions,
	}
}

// fallbackAdvice answers common cooking questions from canned text,
// keyed on question keywords.
func fallbackAdvice(question string) string {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "substitute") || strings.Contains(q, "replace"):
		return "For ingredient substitutions, consider the role the ingredient plays in the recipe. For example, if substituting eggs in baking, you can use applesauce, mashed banana, or commercial egg replacers. For dairy milk, try almond, oat, or soy milk. Always consider how the substitution might affect taste, texture, and cooking time."
	case strings.Contains(q, "temperature") || strings.Contains(q, "cook") || strings.Contains(q, "bake"):
		return "Cooking temperatures are crucial for food safety and quality. For meat, use a thermometer to ensure proper internal temperatures: chicken should reach 165°F (74°C), beef steaks 145°F (63°C) for medium-rare, and ground meats 160°F (71°C). For baking, preheat your oven and use the middle rack for even cooking."
	case strings.Contains(q, "season") || strings.Contains(q, "salt") || strings.Contains(q, "spice"):
		return "Seasoning is key to great cooking! Start with less and taste as you go. Salt enhances flavors, so add it gradually. Fresh herbs should be added near the end of cooking, while dried herbs can be added earlier. Toast whole spices before grinding for maximum flavor."
	default:
		return "That's a great cooking question! Here are some general tips: Always read the entire recipe before starting, prep all ingredients first (mise en place), taste as you cook, and don't be afraid to adjust seasonings. Cooking is both an art and a science - practice makes perfect!"
	}
}
