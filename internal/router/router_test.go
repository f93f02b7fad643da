package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crm-api/internal/authz"
	"crm-api/internal/database"
	"crm-api/internal/domain"
	"crm-api/internal/metrics"
)

const (
	testSecret   = "test-secret"
	testBasePath = "/api/crm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// setupTestRouter creates a router backed by sqlite and a private metrics registry
func setupTestRouter(t *testing.T, basePath string) (http.Handler, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())

	r := Setup(Config{
		DB:        db,
		Logger:    zap.NewNop(),
		JWTSecret: testSecret,
		BasePath:  basePath,
		Metrics:   m,
		Gatherer:  registry,
	})
	return r, db
}

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func createProfile(t *testing.T, db *gorm.DB, role authz.Role) uuid.UUID {
	t.Helper()
	profile := domain.Profile{Email: "user@example.com", Role: string(role)}
	profile.ID = uuid.New()
	require.NoError(t, db.Create(&profile).Error)
	return profile.ID
}

func doRequest(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMetricsEndpoint_RootPath(t *testing.T) {
	r, _ := setupTestRouter(t, "")

	// Record at least one request so the HTTP counters are exported
	doRequest(r, http.MethodGet, "/clients", "", "")
	w := doRequest(r, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Contains(t, body, "# HELP")
	assert.Contains(t, body, "# TYPE")
	assert.Contains(t, body, "crm_api_http_requests_total")
}

func TestMetricsEndpoint_WithBasePath(t *testing.T) {
	r, _ := setupTestRouter(t, testBasePath)

	for _, path := range []string{"/metrics", testBasePath + "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestMetricsEndpoint_ContainsAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	_ = metrics.NewWithRegistry(registry, zap.NewNop())

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	expected := []string{
		"crm_api_db_connections_open",
		"crm_api_db_connections_in_use",
		"crm_api_db_connections_idle",
		"crm_api_db_connections_max",
		"crm_api_db_connection_wait_total",
		"crm_api_db_connection_wait_duration_seconds_total",
		"crm_api_lead_conversions_total",
		"crm_api_board_stages_degraded_total",
		"crm_api_board_sessions_active",
	}
	for _, metric := range expected {
		assert.True(t, names[metric], "Registry should contain metric: %s", metric)
	}
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := setupTestRouter(t, testBasePath)

	for _, path := range []string{"/health", "/ready", testBasePath + "/health", testBasePath + "/ready"} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestAuthenticatedRoutes_RequireToken(t *testing.T) {
	r, _ := setupTestRouter(t, testBasePath)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token"},
		{name: "garbage token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, testBasePath+"/pipelines", tt.token, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestPipelines_ListSeededPipeline(t *testing.T) {
	r, db := setupTestRouter(t, testBasePath)
	_, err := database.SeedDefaultPipeline(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	token := signToken(t, createProfile(t, db, authz.RoleSalesRep))

	w := doRequest(r, http.MethodGet, testBasePath+"/pipelines", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data []struct {
			ID     uuid.UUID `json:"id"`
			Name   string    `json:"name"`
			Stages []struct {
				ID   uuid.UUID `json:"id"`
				Name string    `json:"name"`
			} `json:"stages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, database.DefaultPipelineName, body.Data[0].Name)
	assert.Len(t, body.Data[0].Stages, 5)

	w = doRequest(r, http.MethodGet, testBasePath+"/pipelines/"+body.Data[0].ID.String(), token, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, testBasePath+"/pipelines/"+uuid.NewString(), token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	stagePath := "/stages/" + body.Data[0].Stages[0].ID.String() + "/opportunities"
	w = doRequest(r, http.MethodGet, testBasePath+"/pipelines/"+body.Data[0].ID.String()+stagePath, token, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, testBasePath+"/pipelines/"+uuid.NewString()+stagePath, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClients_RoleEnforcement(t *testing.T) {
	r, db := setupTestRouter(t, testBasePath)
	payload := `{"name":"شركة النيل للتجارة","email":"info@nile.example"}`

	t.Run("viewer cannot create", func(t *testing.T) {
		token := signToken(t, createProfile(t, db, authz.RoleViewer))
		w := doRequest(r, http.MethodPost, testBasePath+"/clients", token, payload)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("user without profile cannot read", func(t *testing.T) {
		token := signToken(t, uuid.New())
		w := doRequest(r, http.MethodGet, testBasePath+"/clients", token, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("sales rep cannot create", func(t *testing.T) {
		token := signToken(t, createProfile(t, db, authz.RoleSalesRep))
		w := doRequest(r, http.MethodPost, testBasePath+"/clients", token, payload)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("sales manager creates and reads back", func(t *testing.T) {
		token := signToken(t, createProfile(t, db, authz.RoleSalesManager))
		w := doRequest(r, http.MethodPost, testBasePath+"/clients", token, payload)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created struct {
			Data struct {
				ID   uuid.UUID `json:"id"`
				Name string    `json:"name"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, "شركة النيل للتجارة", created.Data.Name)

		w = doRequest(r, http.MethodGet, testBasePath+"/clients/"+created.Data.ID.String(), token, "")
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("invalid body", func(t *testing.T) {
		token := signToken(t, createProfile(t, db, authz.RoleSalesManager))
		w := doRequest(r, http.MethodPost, testBasePath+"/clients", token, `{"name":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAttachments_DisabledStorage(t *testing.T) {
	r, db := setupTestRouter(t, testBasePath)
	token := signToken(t, createProfile(t, db, authz.RoleSalesRep))

	w := doRequest(r, http.MethodDelete, testBasePath+"/attachments/not-a-uuid", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, testBasePath+"/attachments/unknown/"+uuid.NewString(), token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
