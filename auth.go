package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	seatTokenExpiry = 24 * time.Hour
	bcryptCost      = bcrypt.DefaultCost
	maxPasswordLen  = 64
	joinRateWindow  = 60 * time.Second
	maxJoinAttempts = 10
)

// Auth issues seat tokens and guards private rooms
type Auth struct {
	jwtSecret []byte

	// Rate limiting for password attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates a new Auth handler. An empty secret falls back to the one
// stored in the database.
func NewAuth(db *DB, secret string) *Auth {
	key := []byte(secret)
	if secret == "" {
		key = loadOrCreateSecret(db)
	}
	return &Auth{
		jwtSecret: key,
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
	// Generate a new secret
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("jwt_secret", hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// IssueSeatToken returns a token that lets its holder take back handle in
// session sid after a reconnect
func (a *Auth) IssueSeatToken(sid string, handle int) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"hdl": handle,
		"exp": time.Now().Add(seatTokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateSeatToken validates a seat token and returns (sid, handle, error)
func (a *Auth) ValidateSeatToken(tokenStr string) (string, int, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", 0, fmt.Errorf("invalid token")
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return "", 0, fmt.Errorf("invalid token claims")
	}
	hdl, ok := claims["hdl"].(float64)
	if !ok {
		return "", 0, fmt.Errorf("invalid token claims")
	}

	return sid, int(hdl), nil
}

// HashRoomPassword returns the bcrypt hash of a room password
func HashRoomPassword(password string) (string, error) {
	if len(password) > maxPasswordLen {
		return "", fmt.Errorf("password must be at most %d characters", maxPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("internal error")
	}
	return string(hash), nil
}

// CheckRoomPassword reports whether password opens a room with hash. A room
// without a hash is public.
func (a *Auth) CheckRoomPassword(hash, password, ip string) error {
	if hash == "" {
		return nil
	}
	if !a.checkRate(ip) {
		return fmt.Errorf("too many attempts, try again later")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("wrong room password")
	}
	return nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(joinRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxJoinAttempts
}
