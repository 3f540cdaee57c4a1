package helpers

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceSession      = "session"
	audienceVerification = "email-verification"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// CredentialManager issues and parses the two credential classes. Both are
// HS256-signed with the same secret; they differ in claim shape and audience,
// and each parser accepts only its own class.
type CredentialManager struct {
	Secret     []byte
	SessionTTL time.Duration
	VerifyTTL  time.Duration
	Issuer     string
	now        func() time.Time
}

func NewCredentialManager(secret string, sessionTTL, verifyTTL time.Duration, issuer string) *CredentialManager {
	return &CredentialManager{
		Secret:     []byte(secret),
		SessionTTL: sessionTTL,
		VerifyTTL:  verifyTTL,
		Issuer:     issuer,
		now:        time.Now,
	}
}

// SessionClaims identify a logged-in user.
type SessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// VerificationClaims identify an email address awaiting confirmation.
type VerificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (m *CredentialManager) registered(audience string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := m.now()
	exp := now.Add(ttl)
	return jwt.RegisteredClaims{
		Issuer:    m.Issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}, exp
}

// IssueSession returns a session credential for userID and its expiry.
func (m *CredentialManager) IssueSession(userID string) (string, time.Time, error) {
	rc, exp := m.registered(audienceSession, m.SessionTTL)
	claims := &SessionClaims{UserID: userID, RegisteredClaims: rc}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	return s, exp, err
}

// IssueVerification returns an email-verification credential for email.
func (m *CredentialManager) IssueVerification(email string) (string, time.Time, error) {
	rc, exp := m.registered(audienceVerification, m.VerifyTTL)
	claims := &VerificationClaims{Email: strings.ToLower(strings.TrimSpace(email)), RegisteredClaims: rc}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	return s, exp, err
}

func (m *CredentialManager) parse(tokenStr string, claims jwt.Claims, audience string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tkn.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// ParseSession validates a session credential.
func (m *CredentialManager) ParseSession(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := m.parse(tokenStr, claims, audienceSession); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseVerification validates an email-verification credential.
func (m *CredentialManager) ParseVerification(tokenStr string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	if err := m.parse(tokenStr, claims, audienceVerification); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
