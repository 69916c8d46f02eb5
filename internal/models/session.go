package models

// Session представляет одну аутентифицированную сессию браузера.
//
// Внешний токен имеет вид "<id>.<secret>"; в базе хранится только
// SecretHash, сам секрет не сохраняется нигде. Метки времени — целые
// секунды Unix-эпохи.
type Session struct {
	ID             string // Публичный идентификатор, ключ поиска
	UserID         string
	SecretHash     []byte // SHA-256 секрета
	LastVerifiedAt int64
	CreatedAt      int64
}

// SessionUser — результат успешной валидации токена: сессия вместе
// с её владельцем.
type SessionUser struct {
	Session Session
	User    User
}
