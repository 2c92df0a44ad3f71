package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/justestif/go-moodify/internal/history"
)

const (
	visitorCookieName = "visitor_id"
	visitorTTL        = 365 * 24 * time.Hour
	visitorIDLength   = 64
)

type visitorKey struct{}

// withVisitor identifies the browser by a long-lived cookie, issuing one on
// first contact. Each visitor has a separate mood history.
func withVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := visitorFromCookie(r)
		if id == "" {
			var err error
			id, err = generateVisitorID()
			if err != nil {
				http.Error(w, "Failed to create visitor", http.StatusInternalServerError)
				return
			}
			setVisitorCookie(w, id)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey{}, id)))
	})
}

// visitorFrom returns the visitor ID set by withVisitor.
func visitorFrom(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}

// historyKey is the storage key of a visitor's history.
func historyKey(visitor string) string {
	return history.DefaultKey + ":" + visitor
}

func visitorFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil {
		return ""
	}
	if len(cookie.Value) != visitorIDLength {
		return ""
	}
	if _, err := hex.DecodeString(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// generateVisitorID creates a cryptographically random visitor ID.
func generateVisitorID() (string, error) {
	b := make([]byte, visitorIDLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func setVisitorCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(visitorTTL.Seconds()),
	})
}
