package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/auth"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/chat"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/config"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/identity"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/project"
	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/push"

	"github.com/gin-gonic/gin"
)

type fixture struct {
	router   *gin.Engine
	tokens   *auth.Manager
	identity *identity.Service
	chat     *chat.Service
	chatRepo *chat.MemoryRepo
	projects *project.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	stores := make([]identity.Store, 0, len(identity.ProbeOrder))
	sources := make([]identity.Source, 0, len(identity.ProbeOrder))
	for _, p := range identity.ProbeOrder {
		ms := identity.NewMemoryStore(p)
		stores = append(stores, ms)
		sources = append(sources, ms)
	}
	resolver, err := identity.NewResolver(sources...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	idSvc := identity.NewService(resolver, stores...)

	chatRepo := chat.NewMemoryRepo()
	chatSvc := chat.NewService(chatRepo, push.NewHub(), nil, 500)

	projSvc := project.NewService(project.NewMemoryRepo())

	h := Handlers{Tokens: tokens, Identity: idSvc, Chat: chatSvc, Projects: projSvc}
	authn := auth.NewAuthenticator(tokens, resolver)

	r := gin.New()
	r.POST("/auth/register/:role", h.Register)
	r.POST("/auth/login/:role", h.Login)

	api := r.Group("/api", auth.RequirePrincipal(authn))
	api.GET("/me", h.Me)
	api.GET("/chat/:otherUserId", h.ChatHistory)
	api.PUT("/chat/read/:senderId", h.MarkRead)
	api.POST("/projects", h.CreateProject)
	api.GET("/projects", h.ListProjects)
	api.GET("/projects/:id", h.GetProject)
	api.PUT("/projects/:id/status", h.TransitionProject)

	return &fixture{router: r, tokens: tokens, identity: idSvc, chat: chatSvc, chatRepo: chatRepo, projects: projSvc}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// register creates an account via the public endpoint and returns its token and id.
func (f *fixture) register(t *testing.T, role, username string) (string, string) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/auth/register/"+role, "", gin.H{"username": username, "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		Data  struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token, resp.Data.ID
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	_, id := f.register(t, "contractor", "alice")
	if id == "" {
		t.Fatal("expected generated account id")
	}

	w := f.do(t, http.MethodPost, "/auth/login/contractor", "", gin.H{"username": "alice", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected token in login response")
	}
	if got, err := f.tokens.ExtractSubjectID(resp.Token); err != nil || got != id {
		t.Fatalf("token subject = %q, %v; want %q", got, err, id)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "supplier", "bob")

	w := f.do(t, http.MethodPost, "/auth/login/supplier", "", gin.H{"username": "bob", "password": "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin_WrongPartition(t *testing.T) {
	f := newFixture(t)
	f.register(t, "supplier", "bob")

	// Registered as supplier, logging in through the contractor partition must fail.
	w := f.do(t, http.MethodPost, "/auth/login/contractor", "", gin.H{"username": "bob", "password": "pw"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRegister_DuplicateUsernameAcrossPartitions(t *testing.T) {
	f := newFixture(t)
	f.register(t, "supplier", "alice")

	w := f.do(t, http.MethodPost, "/auth/register/contractor", "", gin.H{"username": "alice", "password": "pw"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/auth/register/admin", "", gin.H{"username": "x", "password": "pw"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	token, id := f.register(t, "government", "gov1")

	w := f.do(t, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var p identity.Principal
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.SubjectID != id || p.Username != "gov1" {
		t.Fatalf("principal = %+v", p)
	}
}

func TestProtected_NoToken(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestProtected_LegacyTokenRejected(t *testing.T) {
	f := newFixture(t)
	f.register(t, "supplier", "legacy")

	legacy, err := f.tokens.GenerateToken("legacy")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := f.do(t, http.MethodGet, "/api/me", legacy, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if body := w.Body.String(); !bytes.Contains([]byte(body), []byte("re-login")) {
		t.Fatalf("expected re-login hint, got %s", body)
	}
}

func TestChatHistoryAndMarkRead(t *testing.T) {
	f := newFixture(t)
	aliceToken, aliceID := f.register(t, "contractor", "alice")
	bobToken, bobID := f.register(t, "supplier", "bob")

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.chat.Deliver(ctx, chat.Message{SenderID: aliceID, ReceiverID: bobID, Content: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}

	w := f.do(t, http.MethodGet, "/api/chat/"+bobID, aliceToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: status %d body %s", w.Code, w.Body.String())
	}
	var msgs []chat.Message
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("history length = %d, want 3", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp < msgs[i-1].Timestamp {
			t.Fatal("history not ordered by timestamp")
		}
	}

	// Bob acknowledges everything Alice sent.
	w = f.do(t, http.MethodPut, "/api/chat/read/"+aliceID, bobToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: status %d body %s", w.Code, w.Body.String())
	}
	for _, m := range f.chatRepo.All() {
		if m.Status != chat.StatusRead {
			t.Fatalf("message %s status = %s, want READ", m.ID, m.Status)
		}
	}
}

func TestChatHistory_EmptyIsArray(t *testing.T) {
	f := newFixture(t)
	token, _ := f.register(t, "contractor", "alice")

	w := f.do(t, http.MethodGet, "/api/chat/nobody", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	token, managerID := f.register(t, "project-manager", "pm1")

	w := f.do(t, http.MethodPost, "/api/projects", token, gin.H{"name": "bridge repair"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var proj project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &proj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if proj.ManagerID != managerID || proj.Status != project.StatusDraft {
		t.Fatalf("created project = %+v", proj)
	}

	w = f.do(t, http.MethodPut, "/api/projects/"+proj.ID+"/status", token, gin.H{"status": "open"})
	if w.Code != http.StatusOK {
		t.Fatalf("transition: status %d body %s", w.Code, w.Body.String())
	}

	// Skipping states is rejected.
	w = f.do(t, http.MethodPut, "/api/projects/"+proj.ID+"/status", token, gin.H{"status": "completed"})
	if w.Code != http.StatusConflict {
		t.Fatalf("illegal transition: status %d, want 409", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/projects", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var list []project.Project
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Status != project.StatusOpen {
		t.Fatalf("list = %+v", list)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	f := newFixture(t)
	token, _ := f.register(t, "project-manager", "pm1")

	w := f.do(t, http.MethodGet, "/api/projects/missing", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
