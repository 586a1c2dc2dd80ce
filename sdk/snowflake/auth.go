package snowflake

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const (
	keyPairTokenType     = "KEYPAIR_JWT"
	defaultTokenLifetime = 59 * time.Minute
	defaultRefreshBefore = 5 * time.Minute
)

// AuthContext supplies a bearer credential for every SQL API request.
type AuthContext interface {
	Token(ctx context.Context) (string, error)
	TokenType() string
}

// KeyPairAuth signs JWTs with an RSA key registered on the Snowflake user. A signed
// token is reused until it is close to expiry.
type KeyPairAuth struct {
	issuer        string
	subject       string
	privateKey    *rsa.PrivateKey
	lifetime      time.Duration
	refreshBefore time.Duration
	clock         clockwork.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type AuthOption func(*KeyPairAuth)

// WithClock replaces the clock used for issue and expiry times.
func WithClock(clock clockwork.Clock) AuthOption {
	return func(a *KeyPairAuth) { a.clock = clock }
}

// WithTokenLifetime sets how long each signed token is valid. Snowflake accepts at most one hour.
func WithTokenLifetime(d time.Duration) AuthOption {
	return func(a *KeyPairAuth) { a.lifetime = d }
}

// NewKeyPairAuth creates a KeyPairAuth for account and user from a PEM encoded
// PKCS#1 or PKCS#8 RSA private key.
func NewKeyPairAuth(account, user string, privateKeyPEM []byte, opts ...AuthOption) (*KeyPairAuth, error) {
	if account == "" || user == "" {
		return nil, fmt.Errorf("account and user are required for key pair auth")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	fingerprint, err := publicKeyFingerprint(&key.PublicKey)
	if err != nil {
		return nil, err
	}

	qualifiedUser := normalizeAccount(account) + "." + strings.ToUpper(user)
	a := &KeyPairAuth{
		issuer:        qualifiedUser + ".SHA256:" + fingerprint,
		subject:       qualifiedUser,
		privateKey:    key,
		lifetime:      defaultTokenLifetime,
		refreshBefore: defaultRefreshBefore,
		clock:         clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.refreshBefore >= a.lifetime {
		a.refreshBefore = a.lifetime / 2
	}
	return a, nil
}

// Token returns a signed JWT, signing a new one when the cached one is near expiry.
func (a *KeyPairAuth) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now().UTC()
	if a.token != "" && now.Add(a.refreshBefore).Before(a.expiresAt) {
		return a.token, nil
	}

	expiresAt := now.Add(a.lifetime)
	claims := jwt.RegisteredClaims{
		Issuer:    a.issuer,
		Subject:   a.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}
	a.token = token
	a.expiresAt = expiresAt
	return token, nil
}

func (a *KeyPairAuth) TokenType() string {
	return keyPairTokenType
}

// normalizeAccount upper-cases the account identifier and drops any region or cloud suffix.
func normalizeAccount(account string) string {
	if i := strings.Index(account, "."); i >= 0 {
		account = account[:i]
	}
	return strings.ToUpper(account)
}

func publicKeyFingerprint(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

var _ AuthContext = (*KeyPairAuth)(nil)
