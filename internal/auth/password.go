package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// BcryptHash is a stored bcrypt digest. It satisfies domain.PasswordHash.
type BcryptHash string

// Check reports whether candidate matches the digest.
func (h BcryptHash) Check(candidate string) bool {
	if h == "" {
		return false
	}
	return ComparePassword(string(h), candidate) == nil
}
