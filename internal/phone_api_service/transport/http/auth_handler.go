package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AuthHandler answers the CGI/Execute credential checks phones make
// before accepting a pushed command.
type AuthHandler struct {
	username string
	password string
	logger   *slog.Logger
}

func NewAuthHandler(username, password string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		username: username,
		password: password,
		logger:   logger.With("handler", "authentication"),
	}
}

// RegisterRoutes registers the authentication route with the given router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/authentication", h.handleAuthentication)
}

func (h *AuthHandler) handleAuthentication(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("UserID")
	password := r.URL.Query().Get("Password")

	userOK := subtle.ConstantTimeCompare([]byte(userID), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
	if !userOK || !passOK {
		h.logger.Warn("CGI authentication rejected", "user_id", userID, "remote", r.RemoteAddr)
		writePlain(w, http.StatusOK, "UNAUTHORIZED")
		return
	}
	writePlain(w, http.StatusOK, "AUTHORIZED")
}
