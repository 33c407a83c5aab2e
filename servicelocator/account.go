package servicelocator

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// account is the server-side record behind a DirectoryEntry of type
// EntryAccount: its hashed password plus the bookkeeping timestamps
// spec §4.10 calls for ("record last-login UTC", "LoadRegistrationTime",
// "LoadLastLoginTime").
type account struct {
	Entry            DirectoryEntry
	PasswordHash     string
	RegistrationTime time.Time
	LastLoginTime    time.Time
}

// hashPassword salts and hashes password with bcrypt (spec §4.10
// "salted hashed password (bcrypt"). New accounts never fall back to
// the legacy scheme.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword checks password against stored, accepting bcrypt
// hashes (the `$`-prefixed modular crypt format) or, for hashes
// predating the bcrypt migration, a bare uppercase-hex SHA1 digest
// (spec §4.10 "legacy plain-SHA fallback recognised if stored hash
// does not begin with $").
func verifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	sum := sha1.Sum([]byte(password))
	return strings.EqualFold(stored, hex.EncodeToString(sum[:]))
}
