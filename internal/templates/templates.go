package templates

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed *.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "*.html"))

var commit = "dev"

// SetCommit sets the build revision shown in page footers.
func SetCommit(c string) {
	if c != "" {
		commit = c
	}
}

type pageData struct {
	Commit string
}

// WriteNewGameHTML serves the new-game page.
func WriteNewGameHTML(w http.ResponseWriter) { write(w, "newgame.html") }

// WritePlayHTML serves the play page.
func WritePlayHTML(w http.ResponseWriter) { write(w, "play.html") }

// WriteAboutHTML serves the about page.
func WriteAboutHTML(w http.ResponseWriter) { write(w, "about.html") }

func write(w http.ResponseWriter, name string) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, pageData{Commit: commit}); err != nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
