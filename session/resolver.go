package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/servitech/dispatch-client/dispatch"
	"github.com/servitech/dispatch-client/models"
)

// ErrInvalidCredentials is returned by Login when the API rejects the
// credentials or hands back no token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is an authenticated identity. Role is always one of the closed
// models.Role set; view code switches on it and never on raw strings.
type Session struct {
	Token     string
	Username  string
	Role      models.Role
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool   { return s.Role.IsAdmin() }
func (s *Session) IsTecnico() bool { return s.Role.IsTecnico() }
func (s *Session) IsCliente() bool { return s.Role.IsCliente() }

// authAPI is the slice of the dispatch client the resolver needs.
type authAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Resolver turns bearer tokens into Sessions and keeps them persisted
// across restarts. It is the single writer of the session store.
type Resolver struct {
	api   authAPI
	store Store
	clock clockwork.Clock
	log   *slog.Logger
}

// NewResolver builds a Resolver. A nil clock gets the real one.
func NewResolver(api authAPI, store Store, clock clockwork.Clock, logger *slog.Logger) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{api: api, store: store, clock: clock, log: logger.With("component", "session")}
}

// Restore rebuilds a Session from the persisted token. It fails closed:
// an undecodable or expired token clears every persisted key and yields
// no session, never an error the caller has to handle specially.
func (r *Resolver) Restore() (*Session, error) {
	token, err := r.store.Get(KeyToken)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	claims, err := decodeClaims(token)
	if err != nil {
		r.log.Warn("stored token undecodable, clearing session", "error", err)
		r.clearAll()
		return nil, nil
	}

	expiresAt, ok := expiryFromClaims(claims)
	if !ok || !r.clock.Now().Before(expiresAt) {
		r.log.Info("stored token expired, clearing session")
		r.clearAll()
		return nil, nil
	}

	username, err := r.store.Get(KeyUsername)
	if err != nil {
		return nil, err
	}
	if username == "" {
		if sub, ok := claims["sub"].(string); ok {
			username = sub
		}
	}

	role := roleFromClaims(claims)
	// Re-persist the role in case an older session predates it.
	if err := r.store.Set(KeyRole, string(role)); err != nil {
		return nil, err
	}

	r.log.Info("session restored", "username", username, "role", role)
	return &Session{Token: token, Username: username, Role: role, ExpiresAt: expiresAt}, nil
}

// Login exchanges credentials for a token, derives the role and persists
// the session.
func (r *Resolver) Login(ctx context.Context, username, password string) (*Session, error) {
	token, err := r.api.Login(ctx, username, password)
	if err != nil {
		var apiErr *dispatch.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("%w: api returned no token", ErrInvalidCredentials)
	}

	claims, err := decodeClaims(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode login token: %w", err)
	}
	role := roleFromClaims(claims)
	expiresAt, _ := expiryFromClaims(claims)

	for key, value := range map[string]string{
		KeyToken:    token,
		KeyUsername: username,
		KeyRole:     string(role),
	} {
		if err := r.store.Set(key, value); err != nil {
			return nil, err
		}
	}

	r.log.Info("logged in", "username", username, "role", role)
	return &Session{Token: token, Username: username, Role: role, ExpiresAt: expiresAt}, nil
}

// Logout clears the persisted session unconditionally. It never fails;
// store errors are logged and dropped.
func (r *Resolver) Logout() {
	r.clearAll()
	r.log.Info("logged out")
}

func (r *Resolver) clearAll() {
	if err := r.store.Clear(); err != nil {
		r.log.Warn("failed to clear session store", "error", err)
	}
}

// DecodeRole extracts the normalized role from a token without verifying
// its signature. Fallback chain: role claim, then authorities[0], then
// CLIENTE.
func DecodeRole(token string) models.Role {
	claims, err := decodeClaims(token)
	if err != nil {
		return models.RoleCliente
	}
	return roleFromClaims(claims)
}

// decodeClaims parses the token payload without signature verification.
// The signing key lives on the server; the client only inspects claims
// and treats the API as the authority on validity.
func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func roleFromClaims(claims jwt.MapClaims) models.Role {
	switch v := claims["role"].(type) {
	case string:
		if v != "" {
			return models.NormalizeRole(v)
		}
	case map[string]any:
		// Some token variants embed the role record, with the name inside.
		if name, ok := v["name"].(string); ok && name != "" {
			return models.NormalizeRole(name)
		}
	}

	if authorities, ok := claims["authorities"].([]any); ok && len(authorities) > 0 {
		switch first := authorities[0].(type) {
		case string:
			return models.NormalizeRole(first)
		case map[string]any:
			if name, ok := first["authority"].(string); ok {
				return models.NormalizeRole(name)
			}
		}
	}

	return models.RoleCliente
}

func expiryFromClaims(claims jwt.MapClaims) (time.Time, bool) {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}
