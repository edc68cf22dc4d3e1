package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// TokenManager issues and verifies HS256 bearer tokens. Logged out tokens
// are remembered in a RevocationStore until they would have expired.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoked *RevocationStore
	now     func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, revoked *RevocationStore) *TokenManager {
	if revoked == nil {
		revoked = NewRevocationStore()
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

func (tm *TokenManager) Issue(user *models.User) (*models.TokenResponse, error) {
	now := tm.now().UTC()
	expiresAt := now.Add(tm.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(user.ID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Truncate(time.Second),
	}, nil
}

func (tm *TokenManager) Parse(tokenString string) (*models.Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if tm.revoked.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	session := &models.Session{
		TokenID:   claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}

func (tm *TokenManager) Revoke(session *models.Session) {
	tm.revoked.Revoke(session.TokenID, session.ExpiresAt)
	utils.LogInfo("Revoked token for user %d", session.UserID)
}

// RevocationStore holds the ids of logged out tokens until they expire.
type RevocationStore struct {
	revoked map[string]time.Time
	mutex   sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

func NewRevocationStore() *RevocationStore {
	store := &RevocationStore{
		revoked: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}

	go store.cleanupExpired(time.Hour)

	return store
}

func (s *RevocationStore) Revoke(tokenID string, expiresAt time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.revoked[tokenID] = expiresAt
}

func (s *RevocationStore) IsRevoked(tokenID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := s.revoked[tokenID]
	return ok
}

func (s *RevocationStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.revoked)
}

// Sweep drops entries whose token has expired anyway.
func (s *RevocationStore) Sweep(now time.Time) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cleaned := 0
	for id, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, id)
			cleaned++
		}
	}
	return cleaned
}

func (s *RevocationStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *RevocationStore) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			if cleaned := s.Sweep(now); cleaned > 0 {
				utils.LogInfo("Cleaned up %d expired token revocations, %d still held", cleaned, s.Len())
			}
		}
	}
}
