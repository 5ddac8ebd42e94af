package form

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenField is the hidden input every posted form carries.
const TokenField = "csrf_token"

var ErrInvalidToken = errors.New("invalid form token")

// TokenSigner issues and checks HS256 tokens binding a post to the form it
// was rendered for.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token valid for formName until the TTL elapses.
func (s *TokenSigner) Issue(formName string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   formName,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign form token: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry and that the token was issued for formName.
func (s *TokenSigner) Verify(token, formName string) error {
	if token == "" {
		return ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithSubject(formName))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ValidateWithToken runs Validate and additionally rejects posts whose
// csrf_token was not issued for this form.
func (f Form) ValidateWithToken(values url.Values, signer *TokenSigner) (*Submission, error) {
	sub, err := f.Validate(values)
	if signer == nil {
		return sub, err
	}
	if terr := signer.Verify(values.Get(TokenField), f.Name); terr != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{}
		}
		verr.add(TokenField, "The form expired, please submit it again.")
		sub.Errors = verr.Fields
		return sub, verr
	}
	return sub, err
}
