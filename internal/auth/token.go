package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/auth-service/internal/domain"
)

const (
	DefaultTokenTTL       = time.Minute
	DefaultSameIPTokenTTL = 60 * time.Minute
	DefaultAlgorithm      = "ES512"

	// notBeforeLeeway tolerates small clock drift between issuing nodes.
	notBeforeLeeway = 5 * time.Second
)

// SameIPExpiry binds the long expiry window of a WEB token to the issuing client.
type SameIPExpiry struct {
	IP        string           `json:"ip"`
	UserAgent string           `json:"userAgent"`
	Time      *jwt.NumericDate `json:"time"`
}

// SessionClaims is the signed payload of a session token. APP tokens carry
// neither ExpiresAt nor SameIPExpiry.
type SessionClaims struct {
	ExpiresAt    *jwt.NumericDate `json:"exp,omitempty"`
	IssuedAt     *jwt.NumericDate `json:"iat"`
	NotBefore    *jwt.NumericDate `json:"nbf"`
	Issuer       string           `json:"iss"`
	Subject      string           `json:"sub"`
	Audience     domain.Audience  `json:"aud"`
	Version      int              `json:"version"`
	SameIPExpiry *SameIPExpiry    `json:"exp2,omitempty"`
	FirstLogin   bool             `json:"firstLogin,omitempty"`
	Type         int              `json:"type"`
}

func (c *SessionClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c *SessionClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c *SessionClaims) GetNotBefore() (*jwt.NumericDate, error)      { return c.NotBefore, nil }
func (c *SessionClaims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c *SessionClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c *SessionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{string(c.Audience)}, nil
}

// TokenCodecOptions configures a TokenCodec.
type TokenCodecOptions struct {
	Algorithm      string
	PrivateKeyPEM  string
	PublicKeyPEM   string
	Issuer         string
	Version        int
	TokenTTL       time.Duration
	SameIPTokenTTL time.Duration
	Subjects       *SubjectCipher
	Now            func() time.Time
}

// TokenCodec issues and decodes session tokens.
type TokenCodec struct {
	method     jwt.SigningMethod
	signKey    any
	signErr    error
	verifyKey  any
	issuer     string
	version    int
	ttl        time.Duration
	sameIPTTL  time.Duration
	subjects   *SubjectCipher
	now        func() time.Time
	parserOpts []jwt.ParserOption
}

// NewTokenCodec parses the configured keys. A missing or malformed public key
// is fatal. A missing or malformed private key leaves a verify-only codec whose
// Issue calls fail with ErrSigning.
func NewTokenCodec(opts TokenCodecOptions) (*TokenCodec, error) {
	if opts.Subjects == nil {
		return nil, errors.New("token codec: subject cipher required")
	}
	alg := opts.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("token codec: unknown algorithm %q", alg)
	}
	signKey, signErr, verifyKey, err := signingKeys(method, opts.PrivateKeyPEM, opts.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	if signErr == nil {
		signErr = checkKeyPair(method, signKey, verifyKey)
	}

	codec := &TokenCodec{
		method:    method,
		signKey:   signKey,
		signErr:   signErr,
		verifyKey: verifyKey,
		issuer:    opts.Issuer,
		version:   opts.Version,
		ttl:       opts.TokenTTL,
		sameIPTTL: opts.SameIPTokenTTL,
		subjects:  opts.Subjects,
		now:       opts.Now,
		parserOpts: []jwt.ParserOption{
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithoutClaimsValidation(),
		},
	}
	if codec.ttl <= 0 {
		codec.ttl = DefaultTokenTTL
	}
	if codec.sameIPTTL <= 0 {
		codec.sameIPTTL = DefaultSameIPTokenTTL
	}
	if codec.now == nil {
		codec.now = time.Now
	}
	return codec, nil
}

// CanSign reports whether a usable private key was configured: it parsed, it
// fits the algorithm, and the public key verifies what it signs.
func (tc *TokenCodec) CanSign() error {
	if tc.signErr != nil {
		return fmt.Errorf("%w: %v", ErrSigning, tc.signErr)
	}
	return nil
}

// Version is the schema version stamped into issued tokens.
func (tc *TokenCodec) Version() int { return tc.version }

// Issue builds and signs a claim set for userID.
func (tc *TokenCodec) Issue(req domain.RequestContext, userID string, aud domain.Audience, typeID int, firstLogin bool) (string, error) {
	if err := tc.CanSign(); err != nil {
		return "", err
	}
	if !aud.Valid() {
		return "", fmt.Errorf("%w: unsupported audience %q", ErrSigning, aud)
	}

	subject, err := tc.subjects.Encrypt(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	now := tc.now()
	claims := &SessionClaims{
		IssuedAt:   jwt.NewNumericDate(now),
		NotBefore:  jwt.NewNumericDate(now),
		Issuer:     tc.issuer,
		Subject:    subject,
		Audience:   aud,
		Version:    tc.version,
		FirstLogin: firstLogin,
		Type:       typeID,
	}
	if aud == domain.AudienceWeb {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tc.ttl))
		claims.SameIPExpiry = &SameIPExpiry{
			IP:        req.IP,
			UserAgent: req.UserAgent,
			Time:      jwt.NewNumericDate(now.Add(tc.sameIPTTL)),
		}
	}

	signed, err := jwt.NewWithClaims(tc.method, claims).SignedString(tc.signKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Refresh mints a new token for an already authenticated user.
func (tc *TokenCodec) Refresh(req domain.RequestContext, userID string, aud domain.Audience, typeID int) (string, error) {
	return tc.Issue(req, userID, aud, typeID, false)
}

// Decode verifies signature, structure, issuer and audience. Expiry is not
// checked here. Every failure is reported as ErrInvalidToken.
func (tc *TokenCodec) Decode(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return tc.verifyKey, nil
	}, tc.parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := tc.checkStructure(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// SubjectID decrypts the user id carried in the claims.
func (tc *TokenCodec) SubjectID(claims *SessionClaims) (string, error) {
	return tc.subjects.Decrypt(claims.Subject)
}

func (tc *TokenCodec) checkStructure(c *SessionClaims) error {
	switch {
	case c.Issuer != tc.issuer:
		return fmt.Errorf("issuer %q not accepted", c.Issuer)
	case !c.Audience.Valid():
		return fmt.Errorf("audience %q not accepted", c.Audience)
	case c.Subject == "":
		return errors.New("subject missing")
	case c.IssuedAt == nil || c.NotBefore == nil:
		return errors.New("iat or nbf missing")
	case tc.now().Add(notBeforeLeeway).Before(c.NotBefore.Time):
		return errors.New("token not valid yet")
	}
	if c.Audience == domain.AudienceWeb {
		if c.ExpiresAt == nil || c.SameIPExpiry == nil || c.SameIPExpiry.Time == nil {
			return errors.New("web token missing expiry")
		}
	}
	return nil
}
