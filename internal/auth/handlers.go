package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/satyyam01/finsage/internal/utils"
)

// Handler serves the auth endpoints. SecureCookies should be true in
// production so session cookies are HTTPS-only.
type Handler struct {
	Store         *Store
	SecureCookies bool
}

func NewHandler(store *Store, secureCookies bool) *Handler {
	return &Handler{Store: store, SecureCookies: secureCookies}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     "session_id",
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.SecureCookies,
	}
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	// Canonicalize before the emptiness check so whitespace-only names are
	// rejected here rather than deep in the store.
	if CanonicalUsername(creds.Username) == "" || creds.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	userID, err := h.Store.Register(creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			http.Error(w, "Username already taken", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"user_id":  userID,
		"username": CanonicalUsername(creds.Username),
	})
}

func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	userID, err := h.Store.Verify(creds.Username, creds.Password)
	if err != nil {
		// Unknown username and wrong password answer identically.
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.Store.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, time.Now().Add(h.Store.TTL)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"user_id":       userID,
		"username":      CanonicalUsername(creds.Username),
		"session_token": token,
	})
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	// Revocation is idempotent: logging out twice, or with a token that
	// never existed, still answers 200.
	if cookie, err := r.Cookie("session_id"); err == nil && cookie.Value != "" {
		if err := h.Store.RevokeSession(cookie.Value); err != nil {
			http.Error(w, "Failed to revoke session", http.StatusInternalServerError)
			return
		}
	}

	expired := h.sessionCookie("", time.Unix(0, 0))
	http.SetCookie(w, expired)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

type meResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing user ID in context", http.StatusUnauthorized)
		return
	}

	var user User
	if err := h.Store.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse{UserID: user.UserID, Username: user.Username})
}
