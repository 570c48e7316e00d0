package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

type contextKey string

const ClerkIDKey contextKey = "clerkID"

// moderators is the allowlist of Clerk subjects with moderator powers,
// loaded once at boot from MODERATOR_IDS.
var moderators = map[string]bool{}

// InitModerators sets the moderator allowlist. Call from main.go before the
// router is built.
func InitModerators(ids []string) {
	moderators = make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			moderators[id] = true
		}
	}
	log.Printf("loaded %d moderator ids", len(moderators))
}

// ClerkAuthMiddleware validates Clerk JWT tokens and puts the subject on the
// request context.
func ClerkAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		claims, err := jwt.Verify(r.Context(), &jwt.VerifyParams{
			Token: token,
		})
		if err != nil {
			log.Printf("Token verification failed: %v", err)
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClerkIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireModerator gates the slot-call review routes. It must run after
// ClerkAuthMiddleware.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clerkID, ok := GetClerkID(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "User not authenticated")
			return
		}
		if !moderators[clerkID] {
			respondWithError(w, http.StatusForbidden, "Moderator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClerkID extracts the Clerk subject from context.
func GetClerkID(ctx context.Context) (string, bool) {
	clerkID, ok := ctx.Value(ClerkIDKey).(string)
	return clerkID, ok
}

// IsModerator reports whether the subject is on the allowlist. Handlers use
// this to widen list responses for moderators.
func IsModerator(clerkID string) bool {
	return moderators[clerkID]
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
