package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agent-config-service/internal/handler"
	"agent-config-service/internal/middleware"
	"agent-config-service/internal/store"
	"agent-config-service/pkg/jwtutil"
)

// newTestServer wires the full HTTP surface against a throwaway
// SQLite database, mirroring the route table in cmd/main.go.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "agents.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	st, err := store.New(db)
	require.NoError(t, err)
	st.SetBcryptCost(bcrypt.MinCost)
	t.Cleanup(func() { _ = st.Close() })

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	h := handler.NewHandler(st, jwtUtil, nil)

	e := echo.New()
	e.POST("/auth/signup", h.Signup)
	e.POST("/auth/login", h.Login)
	e.GET("/execution/agent/:agent_id", h.ResolveAgent)

	api := e.Group("/api", middleware.JWTAuthMiddleware(jwtUtil))
	api.POST("/agent", h.CreateAgent)
	api.GET("/agent", h.ListAgents)
	api.GET("/agent/:agent_id", h.GetAgent)
	api.PUT("/agent/:agent_id", h.UpdateAgent)
	api.DELETE("/agent/:agent_id", h.DeleteAgent)
	api.PATCH("/agent/:agent_id/status", h.SetAgentStatus)
	api.GET("/agent/:agent_id/history", h.GetAgentHistory)

	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	result := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	}
	return rec.Code, result
}

func signupAndLogin(t *testing.T, e *echo.Echo, tenantName, email string) (token string, tenantID float64) {
	t.Helper()

	code, body := doJSON(t, e, http.MethodPost, "/auth/signup", "",
		fmt.Sprintf(`{"tenant_name":%q,"email":%q,"password":"secret-password"}`, tenantName, email))
	require.Equal(t, http.StatusCreated, code, "signup response: %v", body)
	tenantID = body["tenant"].(map[string]interface{})["id"].(float64)

	code, body = doJSON(t, e, http.MethodPost, "/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"secret-password"}`, email))
	require.Equal(t, http.StatusOK, code, "login response: %v", body)
	return body["token"].(string), tenantID
}

func TestAgentLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)
	token, tenantID := signupAndLogin(t, e, "Acme", "a@acme.com")

	code, body := doJSON(t, e, http.MethodPost, "/api/agent", token,
		`{"agent_config":{"agent_name":"Support Bot","agent_type":"support","agent_welcome_message":"Hello!","greeting":"hi"},"agent_prompts":{"task_1":{"system_prompt":"be nice"}}}`)
	require.Equal(t, http.StatusCreated, code, "create response: %v", body)
	assert.Equal(t, "created", body["state"])
	agentID := body["agent_id"].(string)
	require.NotEmpty(t, agentID)

	code, body = doJSON(t, e, http.MethodGet, "/api/agent/"+agentID, token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hi", body["greeting"])
	assert.Equal(t, "seeding", body["assistant_status"])
	assert.Contains(t, body, "agent_prompts")

	code, body = doJSON(t, e, http.MethodPut, "/api/agent/"+agentID, token,
		`{"agent_config":{"agent_name":"Support Bot","greeting":"hello"}}`)
	require.Equal(t, http.StatusOK, code, "update response: %v", body)
	assert.Equal(t, "updated", body["state"])

	code, body = doJSON(t, e, http.MethodGet, "/api/agent/"+agentID+"/history", token, "")
	require.Equal(t, http.StatusOK, code)
	versions := body["versions"].([]interface{})
	require.Len(t, versions, 2)
	v1 := versions[0].(map[string]interface{})
	v2 := versions[1].(map[string]interface{})
	assert.Equal(t, false, v1["active"])
	assert.Equal(t, "hi", v1["payload"].(map[string]interface{})["greeting"])
	assert.Equal(t, true, v2["active"])
	assert.Equal(t, "hello", v2["payload"].(map[string]interface{})["greeting"])

	path := fmt.Sprintf("/execution/agent/%s?tenant_id=%.0f", agentID, tenantID)
	code, body = doJSON(t, e, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, code, "resolve response: %v", body)
	config := body["agent_config"].(map[string]interface{})
	assert.Equal(t, "hello", config["greeting"])
	assert.Equal(t, "Support Bot", config["agent_name"])

	code, body = doJSON(t, e, http.MethodDelete, "/api/agent/"+agentID, token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "deleted", body["state"])

	code, _ = doJSON(t, e, http.MethodGet, "/api/agent/"+agentID, token, "")
	assert.Equal(t, http.StatusNotFound, code)

	// Deleted agents no longer resolve for execution either.
	code, _ = doJSON(t, e, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPIRequiresToken(t *testing.T) {
	e := newTestServer(t)

	code, _ := doJSON(t, e, http.MethodGet, "/api/agent", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = doJSON(t, e, http.MethodGet, "/api/agent", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCrossTenantAccessOverHTTP(t *testing.T) {
	e := newTestServer(t)
	tokenA, _ := signupAndLogin(t, e, "Acme", "a@acme.com")
	tokenB, tenantB := signupAndLogin(t, e, "Globex", "b@globex.com")

	code, body := doJSON(t, e, http.MethodPost, "/api/agent", tokenA,
		`{"agent_config":{"agent_name":"Support Bot","greeting":"hi"}}`)
	require.Equal(t, http.StatusCreated, code)
	agentID := body["agent_id"].(string)

	// Tenant B cannot see, modify or delete tenant A's agent.
	code, _ = doJSON(t, e, http.MethodGet, "/api/agent/"+agentID, tokenB, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, e, http.MethodDelete, "/api/agent/"+agentID, tokenB, "")
	assert.Equal(t, http.StatusNotFound, code)

	// Naming the wrong tenant on the execution path misses too.
	path := fmt.Sprintf("/execution/agent/%s?tenant_id=%.0f", agentID, tenantB)
	code, _ = doJSON(t, e, http.MethodGet, path, "", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = doJSON(t, e, http.MethodGet, "/api/agent", tokenB, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["agents"])
}

func TestExecutionResolveRequiresTenantParam(t *testing.T) {
	e := newTestServer(t)

	code, _ := doJSON(t, e, http.MethodGet, "/execution/agent/some-agent", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, e, http.MethodGet, "/execution/agent/some-agent?tenant_id=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSetAgentStatusOverHTTP(t *testing.T) {
	e := newTestServer(t)
	token, _ := signupAndLogin(t, e, "Acme", "a@acme.com")

	code, body := doJSON(t, e, http.MethodPost, "/api/agent", token,
		`{"agent_config":{"agent_name":"Support Bot","greeting":"hi"}}`)
	require.Equal(t, http.StatusCreated, code)
	agentID := body["agent_id"].(string)

	code, body = doJSON(t, e, http.MethodPatch, "/api/agent/"+agentID+"/status", token,
		`{"status":"disabled"}`)
	require.Equal(t, http.StatusOK, code, "status response: %v", body)
	assert.Equal(t, "disabled", body["status"])

	// disabled -> active is not a legal transition
	code, _ = doJSON(t, e, http.MethodPatch, "/api/agent/"+agentID+"/status", token,
		`{"status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	// Disabled agents stay visible in the registry listing.
	code, body = doJSON(t, e, http.MethodGet, "/api/agent", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["agents"], 1)
}

func TestSignupDuplicateEmailOverHTTP(t *testing.T) {
	e := newTestServer(t)

	code, _ := doJSON(t, e, http.MethodPost, "/auth/signup", "",
		`{"tenant_name":"Acme","email":"a@acme.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = doJSON(t, e, http.MethodPost, "/auth/signup", "",
		`{"tenant_name":"Globex","email":"a@acme.com","password":"secret-password"}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestLoginWrongPasswordOverHTTP(t *testing.T) {
	e := newTestServer(t)
	_, _ = signupAndLogin(t, e, "Acme", "a@acme.com")

	code, _ := doJSON(t, e, http.MethodPost, "/auth/login", "",
		`{"email":"a@acme.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}
