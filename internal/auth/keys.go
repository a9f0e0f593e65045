package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// signingKeys parses PEM material for the given method. An empty private PEM
// yields a nil signing key; an empty or malformed public PEM is an error.
func signingKeys(method jwt.SigningMethod, privatePEM, publicPEM string) (sign any, signErr error, verify any, err error) {
	if publicPEM == "" {
		return nil, nil, nil, errors.New("public key not configured")
	}
	switch method.(type) {
	case *jwt.SigningMethodECDSA:
		verify, err = jwt.ParseECPublicKeyFromPEM([]byte(publicPEM))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse public key: %w", err)
		}
		if privatePEM == "" {
			return nil, errors.New("private key not configured"), verify, nil
		}
		key, perr := jwt.ParseECPrivateKeyFromPEM([]byte(privatePEM))
		if perr != nil {
			return nil, fmt.Errorf("parse private key: %w", perr), verify, nil
		}
		return key, nil, verify, nil
	case *jwt.SigningMethodRSA:
		verify, err = jwt.ParseRSAPublicKeyFromPEM([]byte(publicPEM))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse public key: %w", err)
		}
		if privatePEM == "" {
			return nil, errors.New("private key not configured"), verify, nil
		}
		key, perr := jwt.ParseRSAPrivateKeyFromPEM([]byte(privatePEM))
		if perr != nil {
			return nil, fmt.Errorf("parse private key: %w", perr), verify, nil
		}
		return key, nil, verify, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported signing method %s", method.Alg())
	}
}

const keyCheckInput = "auth-service.key-check"

// checkKeyPair signs a fixed input and verifies it with the public key.
func checkKeyPair(method jwt.SigningMethod, sign, verify any) error {
	sig, err := method.Sign(keyCheckInput, sign)
	if err != nil {
		return fmt.Errorf("private key unusable for %s: %w", method.Alg(), err)
	}
	if err := method.Verify(keyCheckInput, sig, verify); err != nil {
		return fmt.Errorf("private key does not match public key: %w", err)
	}
	return nil
}

// GenerateECKeyPair returns a PKCS8 private key and PKIX public key, both PEM
// encoded, on the curve matching alg (ES256, ES384 or ES512).
func GenerateECKeyPair(alg string) (privatePEM, publicPEM string, err error) {
	var curve elliptic.Curve
	switch alg {
	case jwt.SigningMethodES256.Alg():
		curve = elliptic.P256()
	case jwt.SigningMethodES384.Alg():
		curve = elliptic.P384()
	case jwt.SigningMethodES512.Alg():
		curve = elliptic.P521()
	default:
		return "", "", fmt.Errorf("no curve for %s", alg)
	}

	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ecdsa key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privatePEM, publicPEM, nil
}
