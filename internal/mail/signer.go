package mail

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const purposeUnsubscribe = "unsubscribe"

var ErrInvalidToken = errors.New("invalid or expired link")

type linkClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer issues and checks the HS256 tokens embedded in email links.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer. ttl <= 0 means links never expire.
func NewSigner(secret, issuer string, ttl time.Duration) (*Signer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("mail signing secret must be at least 16 characters")
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// UnsubscribeToken returns a token identifying userID for one-click unsubscribe.
func (s *Signer) UnsubscribeToken(userID uint) (string, error) {
	now := s.now()
	claims := linkClaims{
		Purpose: purposeUnsubscribe,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(uint64(userID), 10),
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseUnsubscribe validates token and returns the user id it was issued for.
func (s *Signer) ParseUnsubscribe(token string) (uint, error) {
	var claims linkClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || claims.Purpose != purposeUnsubscribe {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
