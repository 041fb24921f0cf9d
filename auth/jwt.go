package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/ssh"
)

// JWTClaims represents the claims in a bearer token presented to a
// repository that authenticates clients by SSH key fingerprint.
type JWTClaims struct {
	KeyFingerprint string `json:"key_fingerprint"`
	jwt.RegisteredClaims
}

// CreateJWT creates a bearer token signed with a crypto private key,
// for the ssh:// and http(s) download transports' optional
// fingerprint-based authentication.
func CreateJWT(privateKey crypto.Signer, publicKey ssh.PublicKey) (string, error) {
	fingerprint := ssh.FingerprintSHA256(publicKey)

	claims := JWTClaims{
		KeyFingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	var signingMethod jwt.SigningMethod
	switch privateKey.Public().(type) {
	case *rsa.PublicKey:
		signingMethod = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		signingMethod = jwt.SigningMethodES256
	default:
		return "", fmt.Errorf("unsupported private key type")
	}

	token := jwt.NewWithClaims(signingMethod, claims)

	signingString, err := token.SigningString()
	if err != nil {
		return "", fmt.Errorf("failed to get signing string: %w", err)
	}

	hash := sha256.Sum256([]byte(signingString))

	signature, err := privateKey.Sign(nil, hash[:], crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	encodedSignature := base64.RawURLEncoding.EncodeToString(signature)

	return strings.Join([]string{signingString, encodedSignature}, "."), nil
}
