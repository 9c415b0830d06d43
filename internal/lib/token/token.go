// Package token генерирует непрозрачные токены сессий и refresh-материал.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultBytes длина случайной части токена.
const DefaultBytes = 32

// New возвращает base64url (без паддинга) строку из n случайных байт.
func New(n int) (string, error) {
	const op = "token.New"
	if n < 16 {
		return "", fmt.Errorf("%s: token too short: %d bytes", op, n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash возвращает SHA-256 от токена в hex (64 символа).
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Equal сравнивает хэш предъявленного материала с сохранённым за постоянное время.
func Equal(storedHash, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(Hash(plain))) == 1
}
