package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/types"
)

const minPasswordLength = 8

// LoginLimiter throttles login attempts per account. A nil limiter
// disables throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// AuthService owns accounts and sessions. Tokens are HS256 JWTs; logout
// puts the presented token on a redis denylist until it expires.
type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	limiter   LoginLimiter
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, limiter LoginLimiter, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		db:        db,
		redis:     redisClient,
		limiter:   limiter,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates an account and its profile record. The profile write
// is best-effort: the account already exists at that point, so a failed
// profile insert must not leave the user unable to log in. Login repairs
// a missing profile with an idempotent upsert.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", &AuthError{Reason: AuthReasonWeakPassword}
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, "", &AuthError{Reason: AuthReasonEmailInUse}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", err
	}

	profile := models.UserProfile{
		UserID: user.ID,
		Name:   name,
		Email:  email,
	}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		s.logger.Warn("profile record write failed after account creation, will upsert on first login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login authenticates an account and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *models.UserProfile, string, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "login:"+email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, nil, "", &AuthError{Reason: AuthReasonRateLimited}
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", &AuthError{Reason: AuthReasonUserNotFound}
		}
		return nil, nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, "", &AuthError{Reason: AuthReasonInvalidCredentials}
	}

	profile, err := s.ensureProfile(ctx, &user)
	if err != nil {
		return nil, nil, "", err
	}

	token, err := s.generateToken(&user)
	if err != nil {
		return nil, nil, "", err
	}
	return &user, profile, token, nil
}

// EnsureProfile returns the user's profile, recreating it from the
// account row when the registration-time write was lost. Identity reads
// go through here so the repair does not wait for the next login.
func (s *AuthService) EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.ensureProfile(ctx, &user)
}

// ensureProfile loads the profile record, creating it when the
// registration-time write was lost.
func (s *AuthService) ensureProfile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	profile := models.UserProfile{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}
	err := s.db.WithContext(ctx).
		Where(models.UserProfile{UserID: user.ID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Logout revokes the presented token until its natural expiry. Without
// redis this is a no-op and the client simply discards the token.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if s.redis == nil {
		return nil
	}
	claims, err := s.parseClaims(rawToken)
	if err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(rawToken), "1", ttl).Err()
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken checks signature, expiry and the revocation list, and
// returns the embedded identity.
func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (*types.TokenClaims, error) {
	claims, err := s.parseClaims(rawToken)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		revoked, err := s.redis.Exists(ctx, revokedKey(rawToken)).Result()
		if err == nil && revoked > 0 {
			return nil, errors.New("token revoked")
		}
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}
	email, _ := claims["email"].(string)

	return &types.TokenClaims{UserID: userID, Email: email}, nil
}

func (s *AuthService) parseClaims(rawToken string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func revokedKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return "session:revoked:" + hex.EncodeToString(sum[:])
}
