package stockbit

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/rizalgs/adimology/models"
	"gorm.io/gorm"
)

// TokenTTL is how long a fetched bearer token is kept in memory before the
// session store is consulted again.
const TokenTTL = 1 * time.Minute

// ErrNoToken is returned when neither the session store nor the environment
// provides a Stockbit bearer token.
var ErrNoToken = errors.New("no stockbit token available")

// TokenProvider resolves the Stockbit bearer token. It reads the sessions
// table (the dashboard's login flow writes the token there) with a fallback
// to the environment, and caches the result for TokenTTL.
type TokenProvider struct {
	db       *gorm.DB
	envToken string

	mu        sync.Mutex
	cached    string
	fetchedAt time.Time
}

// NewTokenProvider creates a token provider backed by the given database.
// envToken may be empty; it is only used when the session store has no token.
func NewTokenProvider(db *gorm.DB, envToken string) *TokenProvider {
	return &TokenProvider{db: db, envToken: envToken}
}

// Token returns the current bearer token, fetching from the session store
// when the in-memory copy is older than TokenTTL.
func (p *TokenProvider) Token() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" && time.Since(p.fetchedAt) < TokenTTL {
		return p.cached, nil
	}

	token, err := p.lookup()
	if err != nil {
		return "", err
	}

	p.cached = token
	p.fetchedAt = time.Now()
	return token, nil
}

// Invalidate drops the cached token so the next call refetches it. Called
// by the client when the upstream API answers 401.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	p.cached = ""
	p.fetchedAt = time.Time{}
	p.mu.Unlock()
	log.Println("Stockbit token invalidated")
}

// lookup reads the token from the session store, falling back to the env value
func (p *TokenProvider) lookup() (string, error) {
	if p.db != nil {
		value, err := models.GetSessionValue(p.db, models.SessionTokenKey)
		if err != nil {
			log.Printf("Session store lookup failed: %v", err)
		} else if value != "" {
			return value, nil
		}
	}

	if p.envToken != "" {
		return p.envToken, nil
	}

	return "", ErrNoToken
}
