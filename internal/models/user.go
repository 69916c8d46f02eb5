// Package models содержит доменные модели сервиса: пользователей
// админ-панели, их сессии и приглашения, коды курсов и ответы анкет.
package models

import "time"

// Роли пользователей админ-панели.
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
)

// Статусы учётной записи.
const (
	// StatusPending — пользователь создан администратором, пароль ещё не задан.
	StatusPending = "pending"
	// StatusActive — пользователь завершил настройку и может входить.
	StatusActive = "active"
	// StatusDisabled — вход запрещён, сессии отозваны.
	StatusDisabled = "disabled"
)

// User представляет пользователя админ-панели.
//
// PasswordHash отсутствует, пока пользователь в статусе pending, и
// появляется после прохождения настройки по приглашению.
type User struct {
	ID           string     // UUID пользователя
	Email        string     // Электронная почта (уникальная)
	Name         *string    // Отображаемое имя (опционально)
	PasswordHash *string    // bcrypt-хэш пароля, nil для pending
	Role         string     // admin или trainer
	Status       string     // pending, active или disabled
	LastLoginAt  *time.Time // Время последнего входа
	CreatedAt    time.Time
}

// UserListItem — строка списка пользователей с признаком живой сессии.
type UserListItem struct {
	User
	HasActiveSession bool
}

// UserCourseCode — код курса пользователя с количеством привязанных анкет.
type UserCourseCode struct {
	Code            string
	CreatedAt       time.Time
	SubmissionCount int
}
