// services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"proof-of-hygiene/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignup      = errors.New("email and a password of at least 8 characters are required")
)

// Session is the explicit auth state handed to every orchestrator call.
// Created on sign-in, destroyed on sign-out; nobody else mutates it.
type Session struct {
	UserID    string    `json:"user_id"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService issues HS256 session tokens and tracks which are still live.
type AuthService struct {
	Store  ProfileStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	active map[string]Session // by token id

	// OnSignOut runs after a session is destroyed.
	OnSignOut func(userID string)
}

func NewAuthService(store ProfileStore, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		Store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		active: make(map[string]Session),
	}
}

// SignUp creates the account and its profile, then signs the user in.
func (s *AuthService) SignUp(ctx context.Context, email, password string, username *string) (string, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return "", nil, ErrInvalidSignup
	}
	if username != nil {
		name, err := models.NormalizeUsername(*username)
		if err != nil {
			return "", nil, err
		}
		username = &name
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	account := &models.Account{ID: id, Email: email, PasswordHash: string(hash)}
	profile := &models.Profile{ID: id, Username: username}
	if err := s.Store.CreateAccount(ctx, account, profile); err != nil {
		return "", nil, err
	}
	return s.issue(id)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	account, err := s.Store.FindAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	return s.issue(account.ID)
}

// SignOut destroys the session. Unknown sessions are ignored.
func (s *AuthService) SignOut(session *Session) {
	if session == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.active[session.TokenID]
	delete(s.active, session.TokenID)
	s.mu.Unlock()

	if ok && s.OnSignOut != nil {
		s.OnSignOut(session.UserID)
	}
}

// Verify parses a bearer token and returns its live session.
func (s *AuthService) Verify(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrNotSignedIn
	}

	jti, _ := claims["jti"].(string)
	s.mu.RLock()
	session, ok := s.active[jti]
	s.mu.RUnlock()
	if !ok || !s.now().Before(session.ExpiresAt) {
		return nil, ErrNotSignedIn
	}
	return &session, nil
}

func (s *AuthService) issue(userID string) (string, *Session, error) {
	session := Session{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     session.TokenID,
		"exp":     session.ExpiresAt.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}

	s.mu.Lock()
	s.active[session.TokenID] = session
	s.mu.Unlock()
	return signed, &session, nil
}
