package auth

import (
	"errors"
	"time"

	"github.com/deploy-ENV/GOVT-PROJECT-BACKEND/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenMalformed covers bad structure, bad signature, and expiry.
	ErrTokenMalformed = errors.New("auth: token malformed or invalid")
	// ErrSubjectMissing marks a structurally valid token minted before the
	// subject-id claim existed. Distinguished from ErrTokenMalformed so callers
	// can tell "bad token" from "old token, re-login required".
	ErrSubjectMissing = errors.New("auth: token missing subject id claim")
)

// Manager issues and verifies bearer tokens. Stateless; safe for concurrent use.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  func() time.Time
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 10 * time.Hour
	}
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    ttl,
		clock:  time.Now,
	}, nil
}

/* ===================== ISSUE ===================== */

// GenerateToken mints a legacy-shape token carrying only the username.
// Kept for compatibility; connections authenticated with these tokens are
// rejected by the subject-id check downstream.
func (m *Manager) GenerateToken(username string) (string, error) {
	return m.issue(username, "")
}

// GenerateTokenWithSubject mints the current token shape: username plus the
// stable account id.
func (m *Manager) GenerateTokenWithSubject(username, subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("auth: subject id is required")
	}
	return m.issue(username, subjectID)
}

func (m *Manager) issue(username, subjectID string) (string, error) {
	if username == "" {
		return "", errors.New("auth: username is required")
	}
	now := m.clock()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		SubjectID: subjectID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== EXTRACT / VALIDATE ===================== */

func (m *Manager) parse(tokenString string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	if m.issuer != "" && !claimsHaveIssuer(claims, m.issuer) {
		return Claims{}, ErrTokenMalformed
	}
	return claims, nil
}

// ExtractUsername returns the username encoded in the token.
func (m *Manager) ExtractUsername(tokenString string) (string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

// ExtractSubjectID returns the stable account id encoded in the token.
// ErrSubjectMissing for legacy tokens that lack the claim.
func (m *Manager) ExtractSubjectID(tokenString string) (string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.SubjectID == "" {
		return "", ErrSubjectMissing
	}
	return claims.SubjectID, nil
}

// Validate reports whether the token is structurally valid, unexpired, and
// encodes the given username.
func (m *Manager) Validate(tokenString, username string) bool {
	claims, err := m.parse(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == username
}

func claimsHaveIssuer(c Claims, issuer string) bool {
	return c.Issuer == issuer
}
