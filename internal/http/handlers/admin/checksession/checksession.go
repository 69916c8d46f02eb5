package checksession

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/http/response"
)

// Handler отвечает на проверку живости сессии из JS-кода панели.
// Сессия уже проверена middleware, остаётся вернуть пользователя.
type Handler struct{}

// New создает новый Handler.
func New() *Handler {
	return &Handler{}
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ServeHTTP godoc
// @Summary      Проверка сессии администратора
// @Description  Возвращает текущего пользователя, если сессионная кука жива
// @Tags         admin
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.ErrorResponse
// @Router       /admin/api/check-session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(userInfo{
		ID:    usr.ID,
		Email: usr.Email,
		Role:  usr.Role,
	}))
}
