package models

// Invitation — одноразовое приглашение, позволяющее pending-пользователю
// задать пароль и активировать учётную запись.
//
// Хранится только хэш токена. На пользователя существует не более одного
// живого приглашения: повторная выдача удаляет предыдущее.
type Invitation struct {
	ID        int64
	UserID    string
	TokenHash []byte
	ExpiresAt int64 // секунды Unix-эпохи
	CreatedAt int64

	// UserStatus — статус владельца, подтягивается join-ом при поиске.
	UserStatus string
}
