package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/auth"
	"github.com/profilehub/profilehub/internal/blocks"
	"github.com/profilehub/profilehub/internal/bootstrap"
	"github.com/profilehub/profilehub/internal/cache"
	"github.com/profilehub/profilehub/internal/config"
	httpx "github.com/profilehub/profilehub/internal/http"
	"github.com/profilehub/profilehub/internal/observability"
	"github.com/profilehub/profilehub/internal/profiles"
	"github.com/profilehub/profilehub/internal/repo/memory"
	"github.com/profilehub/profilehub/internal/roles"
	"github.com/profilehub/profilehub/internal/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires the real router against the memory store, which is the
// same shape main builds against postgres.
func newTestServer() (*gin.Engine, *auth.Manager) {
	store := memory.NewStore()
	jwtManager := auth.NewManager("flow-test-secret", time.Hour)

	deps := httpx.Deps{
		Cfg: config.Config{Env: "dev"},

		JWT:       jwtManager,
		TokenGen:  jwtManager,
		Bootstrap: bootstrap.NewController(store),
		Roles:     roles.NewService(store, 10, nil),
		Users:     users.NewService(store, 10, nil),
		Profiles:  profiles.NewService(store, 10, nil),
		Blocks:    blocks.NewService(store, nil, 10, nil),

		UserStore: store,
		RoleStore: store,

		RoleCache: cache.New(50 * time.Millisecond),
	}

	return httpx.NewRouter(observability.NewLogger("dev"), deps), jwtManager
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer

	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reader)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func tokenFrom(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["token"] == "" {
		t.Fatalf("no token in body %s", w.Body.String())
	}

	return body["token"]
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()

	w := do(r, http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	wantStatus(t, w, http.StatusOK)

	return tokenFrom(t, w)
}

const ownerPassword = "Own3r$pass"

func bootstrapped(t *testing.T) (*gin.Engine, *auth.Manager, string) {
	t.Helper()

	r, jwtManager := newTestServer()

	w := do(r, http.MethodPost, "/init", "", `{"email":"owner@example.com","password":"`+ownerPassword+`"}`)
	wantStatus(t, w, http.StatusCreated)

	return r, jwtManager, login(t, r, "owner@example.com", ownerPassword)
}

func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	w := do(r, http.MethodPost, "/profiles/registration", "",
		fmt.Sprintf(`{"email":%q,"password":"Aa1$bb","username":"u"}`, email))
	wantStatus(t, w, http.StatusCreated)

	return tokenFrom(t, w)
}

func TestRegistrationBeforeInitIsTeapot(t *testing.T) {
	r, _ := newTestServer()

	w := do(r, http.MethodPost, "/profiles/registration", "",
		`{"email":"early@example.com","password":"Aa1$bb","username":"early"}`)

	wantStatus(t, w, http.StatusTeapot)

	if !strings.Contains(w.Body.String(), "role USER not found, resource initialization required") {
		t.Fatalf("body = %s", w.Body.String())
	}

	// bare credentials must reach the not-initialized check: username is
	// optional and the owner password policy does not apply to registration
	w = do(r, http.MethodPost, "/profiles/registration", "",
		`{"email":"user@mail.ru","password":"123321"}`)

	wantStatus(t, w, http.StatusTeapot)
}

func TestInitPasswordPolicyAndIdempotence(t *testing.T) {
	r, _ := newTestServer()

	w := do(r, http.MethodPost, "/init", "", `{"email":"owner@example.com","password":"weak"}`)
	wantStatus(t, w, http.StatusBadRequest)

	var violations []string

	if err := json.Unmarshal(w.Body.Bytes(), &violations); err != nil {
		t.Fatalf("policy failure should be a bare array, body = %s", w.Body.String())
	}

	if len(violations) != 1 || !strings.HasPrefix(violations[0], "password - ") {
		t.Fatalf("violations = %v", violations)
	}

	w = do(r, http.MethodPost, "/init", "", `{"email":"owner@example.com","password":"`+ownerPassword+`"}`)
	wantStatus(t, w, http.StatusCreated)

	// second call is a no-op success
	w = do(r, http.MethodPost, "/init", "", `{"email":"other@example.com","password":"`+ownerPassword+`"}`)
	wantStatus(t, w, http.StatusCreated)

	// and the original owner credentials still win
	login(t, r, "owner@example.com", ownerPassword)
}

func TestMissingHeaderDistinctFromBadToken(t *testing.T) {
	r, _, _ := bootstrapped(t)

	w := do(r, http.MethodGet, "/profiles", "", "")
	wantStatus(t, w, http.StatusUnauthorized)

	if !strings.Contains(w.Body.String(), "Missing Authorization header") {
		t.Fatalf("missing header body = %s", w.Body.String())
	}

	w = do(r, http.MethodGet, "/profiles", "garbage-token", "")
	wantStatus(t, w, http.StatusUnauthorized)

	if !strings.Contains(w.Body.String(), "Invalid or expired access token") {
		t.Fatalf("bad token body = %s", w.Body.String())
	}
}

func TestProfileAccessRules(t *testing.T) {
	r, _, ownerToken := bootstrapped(t)

	aliceToken := registerUser(t, r, "alice@example.com")
	registerUser(t, r, "bob@example.com")

	// duplicate email is a conflict
	w := do(r, http.MethodPost, "/profiles/registration", "",
		`{"email":"alice@example.com","password":"Aa1$bb","username":"again"}`)
	wantStatus(t, w, http.StatusConflict)

	// listing needs ADMIN rank
	wantStatus(t, do(r, http.MethodGet, "/profiles", aliceToken, ""), http.StatusForbidden)

	w = do(r, http.MethodGet, "/profiles", ownerToken, "")
	wantStatus(t, w, http.StatusOK)

	var views []map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &views); err != nil || len(views) != 3 {
		t.Fatalf("want 3 profiles, body = %s", w.Body.String())
	}

	// self read fine, peer read denied, owner read of anyone fine
	wantStatus(t, do(r, http.MethodGet, "/profiles/alice@example.com", aliceToken, ""), http.StatusOK)
	wantStatus(t, do(r, http.MethodGet, "/profiles/bob@example.com", aliceToken, ""), http.StatusForbidden)
	wantStatus(t, do(r, http.MethodGet, "/profiles/alice@example.com", ownerToken, ""), http.StatusOK)
	wantStatus(t, do(r, http.MethodGet, "/profiles/ghost@example.com", ownerToken, ""), http.StatusNotFound)

	// self update, then owner deletes bob
	wantStatus(t, do(r, http.MethodPut, "/profiles/alice@example.com", aliceToken, `{"username":"alice2"}`), http.StatusOK)
	wantStatus(t, do(r, http.MethodDelete, "/profiles/bob@example.com", ownerToken, ""), http.StatusNoContent)
	wantStatus(t, do(r, http.MethodGet, "/profiles/bob@example.com", ownerToken, ""), http.StatusNotFound)
}

func TestRoleLifecycleAndRankChecks(t *testing.T) {
	r, jwtManager, ownerToken := bootstrapped(t)

	aliceToken := registerUser(t, r, "alice@example.com")

	// public reads, no token
	w := do(r, http.MethodGet, "/roles", "", "")
	wantStatus(t, w, http.StatusOK)

	var seeded []map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &seeded); err != nil || len(seeded) != 3 {
		t.Fatalf("want 3 seeded roles, body = %s", w.Body.String())
	}

	wantStatus(t, do(r, http.MethodGet, "/roles/ADMIN", "", ""), http.StatusOK)
	wantStatus(t, do(r, http.MethodGet, "/roles/GHOST", "", ""), http.StatusNotFound)

	// plain USER cannot create roles
	wantStatus(t, do(r, http.MethodPost, "/roles", aliceToken, `{"name":"MODERATOR","value":5}`), http.StatusForbidden)

	// owner creates one, duplicate conflicts
	wantStatus(t, do(r, http.MethodPost, "/roles", ownerToken, `{"name":"MODERATOR","value":5}`), http.StatusCreated)
	wantStatus(t, do(r, http.MethodPost, "/roles", ownerToken, `{"name":"MODERATOR","value":5}`), http.StatusConflict)

	// promote alice to ADMIN; her old token still carries USER rank
	claims, err := jwtManager.VerifyToken(aliceToken)

	if err != nil {
		t.Fatalf("claims: %v", err)
	}

	assignBody := fmt.Sprintf(`{"userId":%q,"roleName":"ADMIN"}`, claims.UserID)
	wantStatus(t, do(r, http.MethodPost, "/users/role", ownerToken, assignBody), http.StatusCreated)

	wantStatus(t, do(r, http.MethodPost, "/roles", aliceToken, `{"name":"SCOUT","value":2}`), http.StatusForbidden)

	// rank refreshes at the next login
	aliceToken = login(t, r, "alice@example.com", "Aa1$bb")
	wantStatus(t, do(r, http.MethodPost, "/roles", aliceToken, `{"name":"SCOUT","value":2}`), http.StatusCreated)

	// admin cannot mint at or above her own rank
	wantStatus(t, do(r, http.MethodPost, "/roles", aliceToken, `{"name":"PEER","value":10}`), http.StatusForbidden)

	// admin raises MODERATOR past her own rank, then is locked out of it
	wantStatus(t, do(r, http.MethodPut, "/roles/MODERATOR", aliceToken, `{"value":50}`), http.StatusOK)
	wantStatus(t, do(r, http.MethodPut, "/roles/MODERATOR", aliceToken, `{"value":5}`), http.StatusForbidden)
	wantStatus(t, do(r, http.MethodDelete, "/roles/MODERATOR", aliceToken, ""), http.StatusForbidden)

	// the owner still outranks it
	wantStatus(t, do(r, http.MethodDelete, "/roles/MODERATOR", ownerToken, ""), http.StatusNoContent)

	// seeded USER role is referenced by alice's account history? no — alice is
	// ADMIN now, but the owner cannot delete USER while any account holds it
	registerUser(t, r, "carol@example.com")
	wantStatus(t, do(r, http.MethodDelete, "/roles/USER", ownerToken, ""), http.StatusConflict)

	// assigning an unknown role 404s
	wantStatus(t, do(r, http.MethodPost, "/users/role", ownerToken,
		fmt.Sprintf(`{"userId":%q,"roleName":"GHOST"}`, claims.UserID)), http.StatusNotFound)
}

func TestTextBlockEndpoints(t *testing.T) {
	r, _, ownerToken := bootstrapped(t)

	aliceToken := registerUser(t, r, "alice@example.com")

	// reads require auth, mutations require ADMIN rank
	wantStatus(t, do(r, http.MethodGet, "/text-blocks", "", ""), http.StatusUnauthorized)
	wantStatus(t, do(r, http.MethodPost, "/text-blocks", aliceToken,
		`{"searchName":"hero","name":"Hero","text":"Welcome"}`), http.StatusForbidden)

	wantStatus(t, do(r, http.MethodPost, "/text-blocks", ownerToken,
		`{"searchName":"hero","name":"Hero","text":"Welcome","group":"landing"}`), http.StatusCreated)
	wantStatus(t, do(r, http.MethodPost, "/text-blocks", ownerToken,
		`{"searchName":"hero","name":"Again","text":"x"}`), http.StatusConflict)

	w := do(r, http.MethodGet, "/text-blocks?group=landing", aliceToken, "")
	wantStatus(t, w, http.StatusOK)

	var listed []map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil || len(listed) != 1 {
		t.Fatalf("want 1 block, body = %s", w.Body.String())
	}

	wantStatus(t, do(r, http.MethodGet, "/text-blocks/hero", aliceToken, ""), http.StatusOK)
	wantStatus(t, do(r, http.MethodPut, "/text-blocks/hero", ownerToken, `{"text":"Updated"}`), http.StatusOK)
	wantStatus(t, do(r, http.MethodDelete, "/text-blocks/hero", ownerToken, ""), http.StatusNoContent)
	wantStatus(t, do(r, http.MethodGet, "/text-blocks/hero", aliceToken, ""), http.StatusNotFound)
}

func TestTextBlockMultipartCreate(t *testing.T) {
	r, _, ownerToken := bootstrapped(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	_ = mw.WriteField("searchName", "promo")
	_ = mw.WriteField("name", "Promo")
	_ = mw.WriteField("text", "Deal of the day")

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/text-blocks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	wantStatus(t, w, http.StatusCreated)

	if !strings.Contains(w.Body.String(), `"searchName":"promo"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestServer()

	wantStatus(t, do(r, http.MethodGet, "/healthz", "", ""), http.StatusOK)
	wantStatus(t, do(r, http.MethodGet, "/readyz", "", ""), http.StatusOK)
}
