package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ali4mini/internal-comms/internal/auth"
	"github.com/Ali4mini/internal-comms/internal/config"
)

func authRouter() http.Handler {
	cfg := &config.Config{Mode: "release"}
	return SetupAuthRouter(cfg, auth.NewIssuer("test_secret", time.Hour))
}

func postLogin(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	authRouter().ServeHTTP(w, req)
	return w
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	w := postLogin(t, `{"username":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Username != "alice" || resp.Token == "" {
		t.Fatalf("unexpected response: %#v", resp)
	}

	ident, err := auth.NewVerifier("test_secret").Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if ident.Username != "alice" {
		t.Fatalf("identity=%#v", ident)
	}
}

func TestLogin_MissingUsername(t *testing.T) {
	for _, body := range []string{`{}`, `{"username":""}`, `not json`} {
		w := postLogin(t, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d, want 400", body, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Username required") {
			t.Fatalf("body %q: message missing: %s", body, w.Body.String())
		}
	}
}
