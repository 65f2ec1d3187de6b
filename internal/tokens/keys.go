package tokens

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Keys pairs a signing method with the key material it needs.
type Keys struct {
	method jwt.SigningMethod
	sign   any
	verify any
}

func (k Keys) Alg() string { return k.method.Alg() }

func HMACKeys(secret []byte) (Keys, error) {
	if len(secret) == 0 {
		return Keys{}, errors.New("tokens: empty HMAC secret")
	}
	return Keys{method: jwt.SigningMethodHS256, sign: secret, verify: secret}, nil
}

func RSAKeys(priv *rsa.PrivateKey) Keys {
	return Keys{method: jwt.SigningMethodRS256, sign: priv, verify: &priv.PublicKey}
}

// LoadRSAKeys reads a PEM private key and its PEM public key.
func LoadRSAKeys(privatePath, publicPath string) (Keys, error) {
	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return Keys{}, fmt.Errorf("tokens: read private key: %w", err)
	}
	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return Keys{}, fmt.Errorf("tokens: read public key: %w", err)
	}

	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return Keys{}, fmt.Errorf("tokens: parse private key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return Keys{}, fmt.Errorf("tokens: parse public key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return Keys{}, errors.New("tokens: public key does not match private key")
	}

	return Keys{method: jwt.SigningMethodRS256, sign: priv, verify: pub}, nil
}

// GenerateRSAPEM returns a fresh PKCS#8 private key and PKIX public key, both PEM encoded.
func GenerateRSAPEM(bits int) (privPEM, pubPEM []byte, err error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens: generate key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens: marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens: marshal public key: %w", err)
	}

	privPEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM, nil
}
