// users.go - Signup and login HTTP handlers.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signupHandler handles POST /signup. Duplicate emails get 409; a
// missing field is rejected before the store is touched.
func (cfg Config) signupHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Role = strings.TrimSpace(req.Role)

		if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
			writeFailure(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		if err := cfg.Users.Register(req.Email, req.Password, req.Name, req.Role); err != nil {
			if errors.Is(err, ErrUserExists) {
				writeFailure(w, http.StatusConflict, "User with this email already exists")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=signup_failed err=%v", rid, err)
			writeFailure(w, http.StatusInternalServerError, "could not create account")
			return
		}

		GetMetrics().RecordSignup()

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Account created successfully!",
		})
	})
}

// loginHandler handles POST /login. Unknown email and wrong password
// are indistinguishable to the caller.
func (cfg Config) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))

		if req.Email == "" || req.Password == "" {
			writeFailure(w, http.StatusBadRequest, "Missing email or password")
			return
		}

		user, err := cfg.Users.Authenticate(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				GetMetrics().RecordLoginFailure()
				writeFailure(w, http.StatusUnauthorized, "Invalid email or password")
				return
			}
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=login_failed err=%v", rid, err)
			writeFailure(w, http.StatusInternalServerError, "login failed")
			return
		}

		GetMetrics().RecordLoginSuccess()

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful!",
			"user":    user,
		})
	})
}
