package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	domain "achievements/internal/domain/achievement"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID is a variable for testability.
var generateID = uuid.NewString

// mdRenderer escapes raw HTML in descriptions (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// displayDateLayout renders achievement and event dates, e.g. "Mar 15, 2024".
const displayDateLayout = "Jan 2, 2006"

var baseFuncs = template.FuncMap{
	"csrfToken": func() string { return "" },
	"renderMarkdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"formatDate": func(date string) string {
		t, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return date
		}
		return t.Format(displayDateLayout)
	},
	"relativeDate": func(date string) string {
		t, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			return ""
		}
		return humanize.RelTime(t, timeNow(), "ago", "from now")
	},
	"humanBytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
	"comma":      func(n int) string { return humanize.Comma(int64(n)) },
}

// pages maps a page template to its parsed layout+page set.
var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"dashboard.html", "add_achievement.html", "analytics.html", "events.html"} {
		pages[name] = template.Must(template.New("layout.html").Funcs(baseFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
}

// renderTemplate executes a page inside the layout with status code.
// The page is rendered to a buffer first so a template error never sends a partial page.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	base, ok := pages[name]
	if !ok {
		internalError(w, errUnknownTemplate(name))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{"csrfToken": func() string { return csrf.Token(r) }})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type errUnknownTemplate string

func (e errUnknownTemplate) Error() string { return "unknown template " + string(e) }

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}
