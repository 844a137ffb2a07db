package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"diamond-app-go/internal/config"
	"diamond-app-go/pkg/logger"
)

// SupabaseAuth verifies bearer tokens against the hosted auth endpoint and
// injects the resolved user into the request context. Dashboard ownership
// scoping reads the user id from there; nothing downstream ever trusts a
// client-supplied id.
type SupabaseAuth struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	profiles ProfileSaver
	skipAuth bool
	mockUser User
	log      logger.Logger
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// ProfileSaver receives the verified identity so a local profile row stays in
// sync with the hosted one. Failures are logged, never fatal to the request.
type ProfileSaver interface {
	UpsertProfile(ctx context.Context, userID, email, avatarURL string) error
}

var errTokenRejected = errors.New("token rejected")

func NewSupabaseAuth(cfg config.SupabaseConfig, profiles ProfileSaver, log logger.Logger) *SupabaseAuth {
	timeout := cfg.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &SupabaseAuth{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.PublishableKey,
		client:   &http.Client{Timeout: timeout},
		profiles: profiles,
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:        strings.TrimSpace(cfg.MockUserID),
			Email:     strings.TrimSpace(cfg.MockUserEmail),
			Name:      strings.TrimSpace(cfg.MockUserName),
			AvatarURL: strings.TrimSpace(cfg.MockUserAvatar),
		},
		log: log,
	}
}

func (a *SupabaseAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			// Local development path: a fixed mock identity, no upstream call.
			if a.mockUser.ID == "" {
				a.deny(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.admit(w, r, next, a.mockUser)
			return
		}

		if a.baseURL == "" || a.apiKey == "" {
			a.deny(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			a.deny(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}

		user, err := a.verifyToken(r.Context(), token)
		if err != nil {
			if !errors.Is(err, errTokenRejected) {
				a.log.Warn("auth: token verification failed", "err", err)
			}
			a.deny(w, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}

		a.admit(w, r, next, user)
	})
}

// verifyToken asks the hosted auth service who the token belongs to.
func (a *SupabaseAuth) verifyToken(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, errTokenRejected
	}

	var payload identityPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, errTokenRejected
	}

	userID := payload.identity()
	if userID == "" {
		return User{}, errTokenRejected
	}

	return User{
		ID:        userID,
		Email:     payload.Email,
		Name:      coalesce(payload.metadata("name"), payload.metadata("full_name")),
		AvatarURL: payload.metadata("avatar_url"),
	}, nil
}

func (a *SupabaseAuth) admit(w http.ResponseWriter, r *http.Request, next http.Handler, user User) {
	if a.profiles != nil {
		if err := a.profiles.UpsertProfile(r.Context(), user.ID, user.Email, user.AvatarURL); err != nil {
			a.log.Warn("auth: profile upsert failed", "user_id", user.ID, "err", err)
		}
	}
	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

func (a *SupabaseAuth) deny(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// identityPayload covers the shapes the auth endpoint is known to return: the
// user object at the top level or nested under "user", with the id in either
// "id" or "sub".
type identityPayload struct {
	ID           string         `json:"id"`
	Sub          string         `json:"sub"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	User         struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	} `json:"user"`
}

func (p identityPayload) identity() string {
	return coalesce(p.ID, p.Sub, p.User.ID, p.User.Sub)
}

func (p identityPayload) metadata(key string) string {
	value, _ := p.UserMetadata[key].(string)
	return value
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func coalesce(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
