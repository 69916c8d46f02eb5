package middlewarectx

import "net/http"

// SessionCookieName — имя сессионной куки админ-панели.
const SessionCookieName = "admin_session"

// sessionCookieMaxAge совпадает со сроком неактивности сессии, секунды.
const sessionCookieMaxAge = 864000

// SetSessionCookie выставляет сессионную куку. Кука недоступна скриптам
// и отправляется только на пути админ-панели.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/admin",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie немедленно гасит сессионную куку.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
