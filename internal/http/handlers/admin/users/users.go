// Package users реализует управление учётными записями из админ-панели:
// список, приглашение, повторное приглашение, смена статуса, отзыв
// сессий и удаление.
package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/session"
	"github.com/fairaware/fair-aware/internal/services/user"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler управляет HTTP-запросами страниц пользователей.
type Handler struct {
	log           *slog.Logger
	users         UserService
	invites       InviteService
	sessions      SessionService
	mailer        Mailer
	publicBaseURL string
}

// UserService описывает операции над учётными записями.
type UserService interface {
	Invite(ctx context.Context, email, role string) (*models.User, error)
	List(ctx context.Context, inactivityTimeout int64) ([]models.UserListItem, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	CourseCodes(ctx context.Context, userID string) ([]models.UserCourseCode, error)
	SetStatus(ctx context.Context, userID, status string) error
	Delete(ctx context.Context, userID string) error
}

// InviteService описывает выпуск пригласительного токена.
type InviteService interface {
	Issue(ctx context.Context, userID string) (string, error)
}

// SessionService описывает принудительный отзыв сессий пользователя.
type SessionService interface {
	InvalidateAllForUser(ctx context.Context, userID string) error
}

// Mailer отправляет пригласительную ссылку по почте. Может быть nil:
// тогда ссылку передают вручную.
type Mailer interface {
	SendInvitation(email, link string) error
}

// New создает новый Handler. mailer может быть nil.
func New(log *slog.Logger, users UserService, invites InviteService, sessions SessionService, mailer Mailer, publicBaseURL string) *Handler {
	return &Handler{
		log:           log,
		users:         users,
		invites:       invites,
		sessions:      sessions,
		mailer:        mailer,
		publicBaseURL: publicBaseURL,
	}
}

type listData struct {
	Users      []models.UserListItem
	InviteLink string
}

type detailData struct {
	User       *models.User
	Codes      []models.UserCourseCode
	InviteLink string
}

// List отдаёт список пользователей с признаком живой сессии.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "", "", "")
}

// Invite создает пользователя в статусе ожидания и показывает
// одноразовую пригласительную ссылку.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.Invite"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, "", "", "Could not read the form, please try again.")
		return
	}
	email := r.PostFormValue("email")

	usr, err := h.users.Invite(r.Context(), email, r.PostFormValue("role"))
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			h.renderList(w, r, "", "", "A user with this email already exists.")
			return
		}
		log.Error("failed to invite user", sl.Err(err))
		h.renderList(w, r, "", "", "Something went wrong, please try again.")
		return
	}

	link, err := h.issueLink(r.Context(), log, usr)
	if err != nil {
		h.renderList(w, r, "", "", "The user was created, but the invitation link could not be issued. Use \"Issue new invitation link\" on the user page.")
		return
	}

	h.renderList(w, r, link, "Invitation created for "+usr.Email+".", "")
}

// Detail отдаёт страницу пользователя с его кодами курса.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	h.renderDetail(w, r, chi.URLParam(r, "id"), "", "", "")
}

// Reinvite выпускает новую пригласительную ссылку, отзывая прежнюю.
func (h *Handler) Reinvite(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.Reinvite"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "id")
	usr, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error("failed to load user", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	link, err := h.issueLink(r.Context(), log, usr)
	if err != nil {
		if errors.Is(err, errNotPending) {
			h.renderDetail(w, r, userID, "", "", "Only pending accounts can be re-invited.")
			return
		}
		h.renderDetail(w, r, userID, "", "", "Something went wrong, please try again.")
		return
	}

	h.renderDetail(w, r, userID, link, "New invitation link issued, the previous one no longer works.", "")
}

// SetStatus отключает или заново включает учётную запись. Свою
// собственную запись администратор отключить не может.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.SetStatus"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "id")
	current, ok := middlewarectx.UserFromContext(r.Context())
	if ok && current.ID == userID {
		h.renderDetail(w, r, userID, "", "", "You cannot change the status of your own account.")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderDetail(w, r, userID, "", "", "Could not read the form, please try again.")
		return
	}
	status := r.PostFormValue("status")

	if err := h.users.SetStatus(r.Context(), userID, status); err != nil {
		log.Error("failed to change user status", sl.Err(err))
		h.renderDetail(w, r, userID, "", "", "Something went wrong, please try again.")
		return
	}

	h.renderDetail(w, r, userID, "", "Account status changed to "+status+".", "")
}

// ForceLogout отзывает все сессии пользователя, не трогая саму учётную
// запись. Свою сессию так не завершить, для этого есть обычный выход.
func (h *Handler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.ForceLogout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "id")
	current, ok := middlewarectx.UserFromContext(r.Context())
	if ok && current.ID == userID {
		h.renderDetail(w, r, userID, "", "", "Use the logout button to end your own session.")
		return
	}

	if err := h.sessions.InvalidateAllForUser(r.Context(), userID); err != nil {
		log.Error("failed to revoke user sessions", sl.Err(err))
		h.renderDetail(w, r, userID, "", "", "Something went wrong, please try again.")
		return
	}

	h.renderDetail(w, r, userID, "", "All sessions of this user have been revoked.", "")
}

// Delete удаляет учётную запись и возвращает на список пользователей.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.Delete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "id")
	current, ok := middlewarectx.UserFromContext(r.Context())
	if ok && current.ID == userID {
		h.renderDetail(w, r, userID, "", "", "You cannot delete your own account.")
		return
	}

	if err := r.ParseForm(); err != nil || r.PostFormValue("confirm") != "delete" {
		h.renderDetail(w, r, userID, "", "", `Type "delete" to confirm removing this account.`)
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		log.Error("failed to delete user", sl.Err(err))
		h.renderDetail(w, r, userID, "", "", "Something went wrong, please try again.")
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

var errNotPending = errors.New("user is not pending")

// issueLink выпускает токен и собирает полную ссылку активации.
// Письмо отправляется по возможности и не блокирует выдачу ссылки.
func (h *Handler) issueLink(ctx context.Context, log *slog.Logger, usr *models.User) (string, error) {
	if usr.Status != models.StatusPending {
		return "", errNotPending
	}

	token, err := h.invites.Issue(ctx, usr.ID)
	if err != nil {
		log.Error("failed to issue invitation", sl.Err(err))
		return "", err
	}

	link := h.publicBaseURL + "/admin/setup?token=" + token
	if h.mailer != nil {
		if err := h.mailer.SendInvitation(usr.Email, link); err != nil {
			log.Warn("failed to send invitation email", slog.String("email", usr.Email), sl.Err(err))
		}
	}
	return link, nil
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, inviteLink, flash, errMsg string) {
	const op = "handlers.admin.users.List"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	users, err := h.users.List(r.Context(), session.InactivityTimeout)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := web.PageFor("Users", usr)
	page.Flash = flash
	page.Error = errMsg
	page.Data = listData{Users: users, InviteLink: inviteLink}
	_ = web.Render(w, "users", page)
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, userID, inviteLink, flash, errMsg string) {
	const op = "handlers.admin.users.Detail"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	current, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	target, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error("failed to load user", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	codes, err := h.users.CourseCodes(r.Context(), userID)
	if err != nil {
		log.Error("failed to list user course codes", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := web.PageFor(target.Email, current)
	page.Flash = flash
	page.Error = errMsg
	page.Data = detailData{User: target, Codes: codes, InviteLink: inviteLink}
	_ = web.Render(w, "user_detail", page)
}
