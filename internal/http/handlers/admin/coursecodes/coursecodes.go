// Package coursecodes реализует страницы кодов курса: список, создание
// и детальную страницу с агрегатами по анкетам.
package coursecodes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/assessment"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler управляет HTTP-запросами страниц кодов курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает операции над кодами курса и их агрегатами.
type Service interface {
	ListCourseCodes(ctx context.Context, usr *models.User) ([]models.CourseCode, error)
	CreateCourseCode(ctx context.Context, usr *models.User, code string) error
	CourseCodeDetail(ctx context.Context, usr *models.User, code string, page int) (*assessment.CourseCodeDetail, error)
	UnaffiliatedDetail(ctx context.Context, usr *models.User, page int) (*assessment.CourseCodeDetail, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

type listData struct {
	Codes []models.CourseCode
}

// detailData оборачивает агрегаты страницы ссылками пагинации.
type detailData struct {
	*assessment.CourseCodeDetail
	PrevPage int
	NextPage int
}

// List отдаёт список кодов курса; тренер видит только свои.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "", "")
}

// Create создаёт новый код курса и возвращает на список.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.coursecodes.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, "", "Could not read the form, please try again.")
		return
	}
	code := r.PostFormValue("code")

	if err := h.service.CreateCourseCode(r.Context(), usr, code); err != nil {
		switch {
		case errors.Is(err, assessment.ErrInvalidCode):
			h.renderList(w, r, "", "A course code is 3-64 letters, digits, hyphens or underscores.")
		case errors.Is(err, assessment.ErrCodeExists):
			h.renderList(w, r, "", "This course code is already taken.")
		default:
			log.Error("failed to create course code", sl.Err(err))
			h.renderList(w, r, "", "Something went wrong, please try again.")
		}
		return
	}

	log.Info("course code created", slog.String("code", code), slog.String("user_id", usr.ID))
	h.renderList(w, r, "Course code "+code+" created.", "")
}

// Detail отдаёт страницу кода курса: статистику, разбивку по вопросам
// и постраничный список анкет.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.coursecodes.Detail"

	code := chi.URLParam(r, "code")
	h.renderDetail(w, r, op, func(ctx context.Context, usr *models.User, page int) (*assessment.CourseCodeDetail, error) {
		return h.service.CourseCodeDetail(ctx, usr, code, page)
	})
}

// Unaffiliated отдаёт ту же страницу для анкет без кода курса.
func (h *Handler) Unaffiliated(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.coursecodes.Unaffiliated"

	h.renderDetail(w, r, op, h.service.UnaffiliatedDetail)
}

func (h *Handler) renderDetail(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	load func(ctx context.Context, usr *models.User, page int) (*assessment.CourseCodeDetail, error),
) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))

	detail, err := load(r.Context(), usr, pageNum)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrCodeNotFound):
			http.NotFound(w, r)
		case errors.Is(err, assessment.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			log.Error("failed to load course code page", sl.Err(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	title := "Course code " + detail.Code
	if detail.Code == "" {
		title = "Submissions without a course code"
	}
	page := web.PageFor(title, usr)
	page.Data = detailData{
		CourseCodeDetail: detail,
		PrevPage:         detail.Page - 1,
		NextPage:         detail.Page + 1,
	}
	_ = web.Render(w, "course_code_detail", page)
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, flash, errMsg string) {
	const op = "handlers.admin.coursecodes.List"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	codes, err := h.service.ListCourseCodes(r.Context(), usr)
	if err != nil {
		log.Error("failed to list course codes", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := web.PageFor("Course codes", usr)
	page.Flash = flash
	page.Error = errMsg
	page.Data = listData{Codes: codes}
	_ = web.Render(w, "course_codes", page)
}
