package tokens

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// assertionTTL stays under GitHub's ten minute ceiling for app JWTs.
const assertionTTL = 10 * time.Minute

// AssertionIssuer signs the short-lived assertion exchanged for an installation token.
type AssertionIssuer interface {
	Issue(now time.Time) (string, error)
}

// InstallationExchanger trades an app assertion for an installation token.
type InstallationExchanger interface {
	ExchangeInstallationToken(ctx context.Context, assertion, installationID string) (Token, error)
}

// JWTIssuer signs GitHub App assertions with the app's RSA private key.
type JWTIssuer struct {
	appID string
	key   *rsa.PrivateKey
}

// NewJWTIssuer parses a PEM encoded RSA private key for appID.
func NewJWTIssuer(appID string, privatePEM []byte) (*JWTIssuer, error) {
	if appID == "" {
		return nil, fmt.Errorf("missing app id")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &JWTIssuer{appID: appID, key: key}, nil
}

// LoadJWTIssuer reads the private key from path.
func LoadJWTIssuer(appID, path string) (*JWTIssuer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return NewJWTIssuer(appID, data)
}

// Issue signs an RS256 JWT. iat is backdated a minute to tolerate clock drift.
func (i *JWTIssuer) Issue(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    i.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}

// NewInstallationRefresher returns the refresh procedure for a GitHub App installation token.
func NewInstallationRefresher(issuer AssertionIssuer, exchanger InstallationExchanger, installationID string, now func() time.Time) RefreshFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) (Token, error) {
		assertion, err := issuer.Issue(now())
		if err != nil {
			return Token{}, err
		}
		return exchanger.ExchangeInstallationToken(ctx, assertion, installationID)
	}
}
