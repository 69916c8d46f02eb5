package middlewarectx

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/render"

	"github.com/fairaware/fair-aware/internal/http/response"
)

// CSRFProtectMiddleware отклоняет изменяющие запросы с чужим Origin.
// Сессионная кука с SameSite=Lax уже отсекает межсайтовые POST,
// проверка Origin остаётся вторым рубежом. Запросы без Origin и
// Referer (curl, старые клиенты) пропускаются.
func CSRFProtectMiddleware(publicBaseURL string, log *slog.Logger) func(http.Handler) http.Handler {
	expectedHost := ""
	if parsed, err := url.Parse(publicBaseURL); err == nil {
		expectedHost = parsed.Host
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = r.Header.Get("Referer")
			}
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			parsed, err := url.Parse(origin)
			if err != nil || !sameHost(parsed.Host, expectedHost, r.Host) {
				log.Warn("cross-origin request rejected",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("cross-origin request rejected"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sameHost(originHost, expectedHost, requestHost string) bool {
	if originHost == "" {
		return false
	}
	return originHost == expectedHost || originHost == requestHost
}
