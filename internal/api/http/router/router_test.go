package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpcontext "github.com/dtroode/vverify-server/internal/api/http/context"
	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/metrics"
	"github.com/dtroode/vverify-server/internal/otp"
	"github.com/dtroode/vverify-server/internal/password"
	"github.com/dtroode/vverify-server/internal/repository/memory"
	"github.com/dtroode/vverify-server/internal/service"
	"github.com/dtroode/vverify-server/internal/testutil"
	"github.com/dtroode/vverify-server/internal/token"
)

const adminEmail = "admin@example.com"

var codePattern = regexp.MustCompile(`[0-9]{6}`)

type testServer struct {
	app      *fiber.App
	notifier *testutil.Notifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	store := memory.NewStore()
	notifier := &testutil.Notifier{}
	tokens := token.NewJWT("secret", time.Hour)
	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	authService := service.NewAuth(
		&config.Config{AdminEmail: adminEmail},
		store.Accounts(),
		password.NewBcrypt(bcrypt.MinCost),
		otp.NewGenerator(),
		tokens,
		notifier,
		lg,
		service.WithRecorder(m),
	)
	submissionService := service.NewSubmission(store.Submissions(), store.Accounts(), nil, lg)
	guard := service.NewGuard(tokens, store.Accounts(), lg)

	r := New(
		config.HTTP{BodyLimit: 1 << 20},
		authService,
		submissionService,
		guard,
		store,
		httpcontext.NewManager(),
		m,
		reg,
		lg,
	)

	return &testServer{app: r.Register(), notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) code(t *testing.T, email string) string {
	t.Helper()
	msg, ok := s.notifier.Last(email)
	require.True(t, ok)
	code := codePattern.FindString(msg.Body)
	require.NotEmpty(t, code)
	return code
}

func (s *testServer) register(t *testing.T, email, pw string) string {
	t.Helper()

	status, _ := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": email, "password": pw})
	require.Equal(t, http.StatusOK, status)

	status, raw := s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": email, "otp": s.code(t, email)})
	require.Equal(t, http.StatusOK, status, string(raw))

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestRouter_SystemRoutes(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "v-verify server running", string(raw))

	status, raw = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	status, raw = s.do(t, http.MethodPost, "/api/auth/hello", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "Hello")

	status, _ = s.do(t, http.MethodGet, "/no-such-page", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), "vverify_api_http_requests_total")
	assert.Contains(t, string(raw), `route="unmatched",status="404"`)
	assert.Contains(t, string(raw), `method="GET",route="/",status="200"`)
}

func TestRouter_AuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email and password are required", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@x.com", "password": "pw1", "displayName": "Ada"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"identity": "a@x.com", "password": "pw1"})
	assert.Equal(t, http.StatusForbidden, status)
	body := decode(t, raw)
	assert.Equal(t, true, body["requiresVerification"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "a@x.com", "otp": "abcdef"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid OTP", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "a@x.com", "otp": s.code(t, "a@x.com")})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, decode(t, raw)["token"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, status)
	tok, _ := decode(t, raw)["token"].(string)
	require.NotEmpty(t, tok)

	status, raw = s.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, status)
	user := decode(t, raw)["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "Ada", user["name"])
	assert.Equal(t, true, user["isVerified"])
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "otp")

	status, raw = s.do(t, http.MethodPut, "/api/auth/me", tok, map[string]string{"phone": "+1555"})
	require.Equal(t, http.StatusOK, status)
	body = decode(t, raw)
	assert.Equal(t, "Profile updated", body["message"])
	user = body["user"].(map[string]any)
	assert.Equal(t, "+1555", user["phone"])
	assert.Equal(t, "Ada", user["name"])

	status, raw = s.do(t, http.MethodGet, "/api/auth/check-admin", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isAdmin":false,"role":"user"}`, string(raw))
}

func TestRouter_RequestOTP(t *testing.T) {
	s := newTestServer(t)

	status, raw := s.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email required", decode(t, raw)["message"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{"email": "ghost@x.com"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "new@x.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	first := s.code(t, "new@x.com")

	status, raw = s.do(t, http.MethodPost, "/api/auth/request-otp", "", map[string]string{"identity": "new@x.com"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"OTP sent"}`, string(raw))
	second := s.code(t, "new@x.com")
	assert.Len(t, s.notifier.Messages(), 2)

	if first != second {
		status, _ = s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "new@x.com", "otp": first})
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, _ = s.do(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"email": "new@x.com", "otp": second})
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_Unauthenticated(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		token  string
	}{
		{method: http.MethodGet, path: "/api/auth/me"},
		{method: http.MethodGet, path: "/api/auth/me", token: "garbage"},
		{method: http.MethodPut, path: "/api/auth/me"},
		{method: http.MethodGet, path: "/api/auth/check-admin"},
		{method: http.MethodGet, path: "/api/submissions/me"},
		{method: http.MethodGet, path: "/api/submissions/admin/users"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, _ := s.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, status)
		})
	}
}

func TestRouter_Submissions(t *testing.T) {
	s := newTestServer(t)

	userToken := s.register(t, "u@x.com", "pw")
	adminToken := s.register(t, adminEmail, "pw")

	status, raw := s.do(t, http.MethodPost, "/api/submissions", userToken, map[string]string{"fullName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodPost, "/api/submissions", userToken, map[string]string{
		"fullName":         "Jane Doe",
		"phone":            "+1555",
		"verificationType": "employment",
		"relationship":     "employer",
		"email":            "not-an-address",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid email", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodGet, "/api/auth/check-admin", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"isAdmin":true,"role":"admin"}`, string(raw))

	status, raw = s.do(t, http.MethodPost, "/api/submissions", userToken, map[string]string{
		"fullName":         "Jane Doe",
		"phone":            "+1555",
		"verificationType": "employment",
		"relationship":     "employer",
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.JSONEq(t, `{"message":"Submission saved"}`, string(raw))

	status, raw = s.do(t, http.MethodGet, "/api/submissions/me", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	var mine struct {
		Submissions []struct {
			ID     string `json:"id"`
			Email  string `json:"email"`
			Status string `json:"status"`
		} `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(raw, &mine))
	require.Len(t, mine.Submissions, 1)
	assert.Equal(t, "u@x.com", mine.Submissions[0].Email)
	assert.Equal(t, "pending", mine.Submissions[0].Status)
	id := mine.Submissions[0].ID

	status, raw = s.do(t, http.MethodGet, "/api/submissions/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", decode(t, raw)["message"])

	status, raw = s.do(t, http.MethodGet, "/api/submissions/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode(t, raw)["users"], 2)

	status, raw = s.do(t, http.MethodGet, "/api/submissions/admin/submissions?limit=abc", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	all := decode(t, raw)["submissions"].([]any)
	require.Len(t, all, 1)
	owner := all[0].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "u@x.com", owner["email"])

	status, raw = s.do(t, http.MethodPut, "/api/submissions/admin/submissions/"+id+"/status", adminToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid status", decode(t, raw)["message"])

	status, _ = s.do(t, http.MethodPut, "/api/submissions/admin/submissions/not-a-uuid/status", adminToken, map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = s.do(t, http.MethodPut, "/api/submissions/admin/submissions/"+id+"/status", adminToken, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, status)
	body := decode(t, raw)
	assert.Equal(t, "Status updated", body["message"])
	assert.Equal(t, "completed", body["submission"].(map[string]any)["status"])

	req := httptest.NewRequest(http.MethodGet, "/api/submissions/admin/submissions/export", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/csv"))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	csvBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(csvBody), "Full Name,Phone,Email,Verification Type,Relationship,Status,Created At"))
	assert.Contains(t, string(csvBody), "Jane Doe")
}

func TestRouter_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

