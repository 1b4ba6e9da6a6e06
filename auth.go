package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	bcryptCost       = 12
	minPasswordLen   = 4
	minUsernameLen   = 2
	maxUsernameLen   = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrRateLimited    = errors.New("too many login attempts, try again later")
	ErrInvalidToken   = errors.New("invalid token")
)

// Auth handles account registration, login and session tokens
type Auth struct {
	db        *DB
	jwtSecret []byte
	cost      int
	now       func() time.Time

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler. A non-empty secret overrides the one
// persisted in the database.
func NewAuth(db *DB, secret string) *Auth {
	key := []byte(secret)
	if secret == "" {
		key = loadOrCreateSecret(db)
	}
	return &Auth{
		db:        db,
		jwtSecret: key,
		cost:      bcryptCost,
		now:       time.Now,
		rateMap:   make(map[string]*rateEntry),
	}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("jwt_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			slog.Warn("could not persist JWT secret", "error", err)
		}
	}
	return secret
}

// Register creates a new account and returns its id and a token
func (a *Auth) Register(username, password string) (int64, string, error) {
	username = strings.TrimSpace(username)

	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return 0, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := a.db.UsernameExists(username)
	if err != nil {
		slog.Error("username lookup", "error", err)
		return 0, "", fmt.Errorf("database error")
	}
	if exists {
		return 0, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}

	id, err := a.db.CreateAccount(username, string(hash))
	if err != nil {
		slog.Error("create account", "error", err)
		return 0, "", fmt.Errorf("failed to create account")
	}

	token, err := a.generateToken(id, username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return id, token, nil
}

// Login authenticates a user and returns a JWT
func (a *Auth) Login(username, password, ip string) (int64, string, error) {
	if !a.checkRate(ip) {
		return 0, "", ErrRateLimited
	}

	acct, err := a.db.GetAccountByUsername(strings.TrimSpace(username))
	if err != nil {
		slog.Error("account lookup", "error", err)
		return 0, "", fmt.Errorf("database error")
	}
	if acct == nil || acct.PassHash == "" {
		return 0, "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PassHash), []byte(password)); err != nil {
		return 0, "", ErrBadCredentials
	}

	token, err := a.generateToken(acct.ID, acct.Username)
	if err != nil {
		return 0, "", fmt.Errorf("internal error")
	}
	return acct.ID, token, nil
}

// ValidateToken validates a JWT and returns (accountID, username, error)
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", ErrInvalidToken
	}
	aid, ok := claims["aid"].(float64)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	username, ok := claims["usr"].(string)
	if !ok {
		return 0, "", ErrInvalidToken
	}
	return int64(aid), username, nil
}

func (a *Auth) generateToken(accountID int64, username string) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"aid": accountID,
		"usr": username,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := a.now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}
