// Package password реализует хеширование и проверку паролей пользователей
// админ-панели через bcrypt (медленный, с индивидуальной солью).
//
// Для секретов сессий и токенов приглашений этот пакет не используется —
// там достаточно быстрого одностороннего SHA-256 из internal/lib/token.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength — минимально допустимая длина пароля.
const MinLength = 8

// GetHash принимает пароль и возвращает его bcrypt-хэш для хранения в базе.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хэш из базы с введённым паролем.
// Возвращает nil при совпадении, иначе ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
