package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// SessionIDLength is the length of a generated session id (spec §4.10
// "32 lowercase letters drawn from a CSPRNG").
const SessionIDLength = 32

// GenerateSessionID returns a fresh CSPRNG-backed session id: 32
// lowercase letters, matching the original SessionEncryption scheme of
// mapping random bytes into 'a'..'z'.
func GenerateSessionID() (string, error) {
	raw := make([]byte, SessionIDLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: generate session id: %w", err)
	}
	var b strings.Builder
	b.Grow(SessionIDLength)
	for _, c := range raw {
		b.WriteByte('a' + c%26)
	}
	return b.String(), nil
}

// GenerateKey returns a random per-handshake encryption key (spec
// §4.9 "generates a random key").
func GenerateKey() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("auth: generate key: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// EncodeSessionID computes the handshake's encoded session id: spec
// §6 "encoded_session_id = UPPER(SHA1(str(key) || session_id))".
func EncodeSessionID(key uint32, sessionID string) string {
	h := sha1.New()
	h.Write([]byte(strconv.FormatUint(uint64(key), 10)))
	h.Write([]byte(sessionID))
	return strings.ToUpper(fmt.Sprintf("%x", h.Sum(nil)))
}
