package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"anoa.com/blogapp/internal/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	purposeSession = "session"
	purposeReset   = "reset"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrSessionRevoked = errors.New("session has been revoked")
)

type Claims struct {
	SessionID string `json:"sid,omitempty"`
	Stamp     string `json:"stamp"`
	Purpose   string `json:"purpose"`
	// Persistent marks remember-me sessions.
	Persistent bool `json:"persistent,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

type Session struct {
	ID         string
	Token      string
	ExpiresAt  time.Time
	Persistent bool
}

type Options struct {
	Secret      string
	TTL         time.Duration
	RememberTTL time.Duration
	ResetTTL    time.Duration
}

// Manager signs session and password-reset tokens. With a redis client,
// sessions are also registered server-side so logout can revoke them.
type Manager struct {
	secret      []byte
	rdb         *redis.Client
	ttl         time.Duration
	rememberTTL time.Duration
	resetTTL    time.Duration
	now         func() time.Time
}

func NewManager(opts Options, rdb *redis.Client) *Manager {
	return &Manager{
		secret:      []byte(opts.Secret),
		rdb:         rdb,
		ttl:         opts.TTL,
		rememberTTL: opts.RememberTTL,
		resetTTL:    opts.ResetTTL,
		now:         time.Now,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Issue starts a new session for user.
func (m *Manager) Issue(ctx context.Context, user *entity.User, remember bool) (*Session, error) {
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}
	now := m.now()
	sid := uuid.NewString()

	token, err := m.sign(Claims{
		SessionID:  sid,
		Stamp:      user.SecurityStamp,
		Purpose:    purposeSession,
		Persistent: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	if err != nil {
		return nil, err
	}

	if m.rdb != nil {
		if err := m.rdb.Set(ctx, sessionKey(sid), user.ID, ttl).Err(); err != nil {
			return nil, fmt.Errorf("store session: %w", err)
		}
	}

	return &Session{ID: sid, Token: token, ExpiresAt: now.Add(ttl), Persistent: remember}, nil
}

// Validate checks a session token and, when redis is configured, that the
// session has not been revoked.
func (m *Manager) Validate(ctx context.Context, token string) (*Claims, error) {
	claims, err := m.parse(token, purposeSession)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	if m.rdb != nil {
		n, err := m.rdb.Exists(ctx, sessionKey(claims.SessionID)).Result()
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if n == 0 {
			return nil, ErrSessionRevoked
		}
	}
	return claims, nil
}

func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if m.rdb == nil || sessionID == "" {
		return nil
	}
	return m.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

// IssueResetToken returns a password reset token bound to the user's
// current security stamp.
func (m *Manager) IssueResetToken(user *entity.User) (string, error) {
	now := m.now()
	return m.sign(Claims{
		Stamp:   user.SecurityStamp,
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.resetTTL)),
		},
	})
}

// VerifyResetToken checks that token was issued for user and that the
// user's stamp has not rotated since.
func (m *Manager) VerifyResetToken(token string, user *entity.User) error {
	claims, err := m.parse(token, purposeReset)
	if err != nil {
		return err
	}
	id, err := claims.UserID()
	if err != nil || id != user.ID || claims.Stamp != user.SecurityStamp {
		return ErrInvalidToken
	}
	return nil
}

func (m *Manager) sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(token, purpose string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
