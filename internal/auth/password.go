package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted one-way bcrypt hash. The raw password is
// never stored anywhere.
func HashPassword(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether raw matches the stored hash. A mismatch is
// not an error condition, it just returns false.
func CheckPassword(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
