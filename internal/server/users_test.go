package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postJSON(t *testing.T, h http.Handler, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func signupBody() map[string]any {
	return map[string]any{
		"name":     "Dr. Who",
		"email":    "dr@example.com",
		"password": "s3cret-pw",
		"role":     "doctor",
	}
}

func TestSignup(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	rr := postJSON(t, h, "/signup", signupBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want 201, body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success=true")
	}
}

func TestSignupMissingFields(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	for _, field := range []string{"name", "email", "password", "role"} {
		body := signupBody()
		delete(body, field)
		rr := postJSON(t, h, "/signup", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("missing %s: got %d want 400", field, rr.Code)
		}
	}
}

func TestSignupDuplicateThenLogin(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	if rr := postJSON(t, h, "/signup", signupBody()); rr.Code != http.StatusCreated {
		t.Fatalf("first signup: got %d", rr.Code)
	}

	// Second signup with the same email conflicts...
	if rr := postJSON(t, h, "/signup", signupBody()); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: got %d want 409", rr.Code)
	}

	// ...and the original credentials still log in.
	rr := postJSON(t, h, "/login", map[string]any{
		"email":    "dr@example.com",
		"password": "s3cret-pw",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login after duplicate: got %d want 200, body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool     `json:"success"`
		User    UserInfo `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success=true")
	}
	if resp.User.Name != "Dr. Who" || resp.User.Email != "dr@example.com" || resp.User.Role != "doctor" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	if rr := postJSON(t, h, "/signup", signupBody()); rr.Code != http.StatusCreated {
		t.Fatalf("signup: got %d", rr.Code)
	}

	// Wrong password and unknown email respond identically.
	wrongPass := postJSON(t, h, "/login", map[string]any{
		"email":    "dr@example.com",
		"password": "not-the-password",
	})
	unknown := postJSON(t, h, "/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "s3cret-pw",
	})

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses: wrong=%d unknown=%d, want 401 both", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Fatalf("body leak: wrong=%q unknown=%q", wrongPass.Body.String(), unknown.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	rr := postJSON(t, h, "/login", map[string]any{"email": "dr@example.com"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing password: got %d want 400", rr.Code)
	}

	rr = postJSON(t, h, "/login", map[string]any{"password": "pw"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing email: got %d want 400", rr.Code)
	}
}

func TestSignupMethodNotAllowed(t *testing.T) {
	h := New(newTestConfig(t)).Handler()

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /signup: got %d want 405", rr.Code)
	}
}
