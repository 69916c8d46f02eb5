// Package token реализует примитивы для работы с непрозрачными токенами:
// генерацию случайных строк из фиксированного алфавита, одностороннее
// хеширование секретов и сравнение хешей за постоянное время.
//
// Примитивы используются для идентификаторов и секретов сессий, а также
// для одноразовых токенов приглашений. Для паролей пользователей они
// не применяются — пароли хешируются через internal/lib/password.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// Alphabet — фиксированный алфавит токенов: строчные латинские буквы и
// цифры без визуально неоднозначных символов (0/O, 1/l/i).
const Alphabet = "abcdefghijkmnpqrstuvwxyz23456789"

const (
	// SessionIDLength — длина идентификатора и секрета сессии.
	SessionIDLength = 24
	// InviteTokenLength — длина одноразового токена приглашения.
	InviteTokenLength = 48
)

// GenerateSecureRandomString возвращает случайную строку указанной длины,
// составленную из символов Alphabet. Байты берутся из криптографически
// стойкого источника и отображаются в алфавит по модулю.
func GenerateSecureRandomString(length int) (string, error) {
	const op = "token.GenerateSecureRandomString"

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	result := make([]byte, length)
	for i, b := range bytes {
		result[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(result), nil
}

// HashSecret возвращает SHA-256 дайджест секрета. Хранится только дайджест,
// сам секрет никогда не сохраняется.
func HashSecret(secret string) []byte {
	digest := sha256.Sum256([]byte(secret))
	return digest[:]
}

// ConstantTimeEqual сравнивает два байтовых среза за время, не зависящее
// от позиции первого расхождения. При разной длине сразу возвращает false:
// длины хешей являются константами протокола, а не секретами.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
