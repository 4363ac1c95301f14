package security

import "golang.org/x/crypto/bcrypt"

// PasswordCost is the bcrypt work factor for stored credential hashes.
const PasswordCost = 12

// HashPassword hashes a plaintext password for storage. The caller is
// expected to have already run it through the effective password
// complexity policy.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt
// hash.
func VerifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
