package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/Tomlord1122/otp-todo/internal/service"
	"github.com/Tomlord1122/otp-todo/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex  = "index"
	pageLogin  = "login"
	pageVerify = "verify"
)

type views struct {
	pages map[string]*template.Template
}

func parseViews() *views {
	v := &views{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageIndex, pageLogin, pageVerify} {
		v.pages[page] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html"))
	}
	return v
}

type viewData struct {
	Title    string
	Flashes  []session.Flash
	Email    string
	Tasks    []service.TaskResponse
	Verified bool
}

// render executes page with data. Pending flashes are consumed and shown
// after any extra ones passed in.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data viewData, extra ...session.Flash) {
	log := hlog.FromRequest(r)

	flashes, err := s.sessions.Flashes(w, r)
	if err != nil {
		log.Error().Err(err).Msg("read flashes")
	}
	data.Flashes = append(flashes, extra...)

	var buf bytes.Buffer
	if err := s.views.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
