package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/database"
)

// setupTestRouter builds the full API on an isolated in-memory database
// with no redis, demo billing and the assistant fallback enabled. This
// is the whole stack minus external processes.
func setupTestRouter(t *testing.T) *gin.Engine {
	router, _ := setupTestStack(t)
	return router
}

// setupTestStack additionally exposes the database for tests that need
// to manipulate rows behind the API's back.
func setupTestStack(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "api-test-secret",
			TokenTTL:  time.Hour,
		},
		Assistant: config.AssistantConfig{
			FallbackEnabled: true,
		},
		Billing: config.BillingConfig{
			DemoMode: true,
		},
	}

	router := gin.New()
	SetupAPI(router, Deps{
		DB:     db,
		Config: cfg,
		Logger: zap.NewNop(),
	})
	return router, db
}

// doJSON performs one request against the router, marshaling body when
// present and attaching the bearer token when one is given.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, router *gin.Engine, name, email string) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
