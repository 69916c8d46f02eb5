package middlewarectx

import (
	"net/http"
	"strings"
)

// SecureHeadersMiddleware выставляет базовые защитные заголовки на все
// ответы сервера.
func SecureHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// NoStoreMiddleware запрещает кэшировать ответы админ-панели: страницы
// с данными анкет не должны оседать в общих кэшах и истории браузера.
// Формы входа и активации личных данных не содержат и не помечаются.
func NoStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")
		if path != "/admin/login" && path != "/admin/setup" {
			w.Header().Set("Cache-Control", "no-store, private")
		}
		next.ServeHTTP(w, r)
	})
}
