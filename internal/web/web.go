// Package web содержит встроенные HTML-шаблоны админ-панели и их
// рендеринг. Каждая страница собирается из общего каркаса layout.html
// и собственного шаблона content.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/fairaware/fair-aware/internal/lib/fairscore"
	"github.com/fairaware/fair-aware/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"fmtTime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
	"fmtTimePtr": func(t *time.Time) string {
		if t == nil {
			return "—"
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
	"fmtAvg": func(avg *float64) string {
		if avg == nil {
			return "—"
		}
		return fmt.Sprintf("%.1f", *avg)
	},
	"intentionLabel": func(value string) string {
		if label, ok := fairscore.IntentionLabels[value]; ok {
			return label
		}
		return "—"
	},
	"scoreLabel": fairscore.ScoreLabel,
	"lower":      strings.ToLower,
}

// pages собирает набор шаблонов для каждой страницы: layout + страница.
var pages = func() map[string]*template.Template {
	pageFiles, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		panic(err)
	}

	result := make(map[string]*template.Template)
	for _, file := range pageFiles {
		if file == "templates/layout.html" {
			continue
		}
		name := file[len("templates/") : len(file)-len(".html")]
		result[name] = template.Must(
			template.New("layout.html").Funcs(funcs).
				ParseFS(templatesFS, "templates/layout.html", file))
	}
	return result
}()

// PageData — общие данные каркаса страницы.
type PageData struct {
	Title     string
	UserEmail string
	UserRole  string
	IsAdmin   bool
	Flash     string
	Error     string
	Data      any
}

// PageFor заполняет каркас данными текущего пользователя.
func PageFor(title string, usr *models.User) PageData {
	return PageData{
		Title:     title,
		UserEmail: usr.Email,
		UserRole:  usr.Role,
		IsAdmin:   usr.Role == models.RoleAdmin,
	}
}

// Render отрисовывает страницу поверх каркаса. Неизвестное имя страницы
// считается ошибкой программирования и отдаёт 500.
func Render(w http.ResponseWriter, page string, data PageData) error {
	tmpl, ok := pages[page]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return fmt.Errorf("web.Render: unknown page %q", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
