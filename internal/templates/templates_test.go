package templates

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPagesRender(t *testing.T) {
	SetCommit("abc1234")
	for name, write := range map[string]func(w *httptest.ResponseRecorder){
		"newgame": func(w *httptest.ResponseRecorder) { WriteNewGameHTML(w) },
		"play":    func(w *httptest.ResponseRecorder) { WritePlayHTML(w) },
		"about":   func(w *httptest.ResponseRecorder) { WriteAboutHTML(w) },
	} {
		rec := httptest.NewRecorder()
		write(rec)
		if rec.Code != 200 {
			t.Fatalf("%s: status %d", name, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "build abc1234") {
			t.Fatalf("%s: commit missing", name)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("%s: content type %q", name, ct)
		}
	}
}

func TestNewGameControlIDs(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNewGameHTML(rec)
	body := rec.Body.String()
	for _, id := range []string{`id="playBtn"`, `id="aboutBtn"`, `id="model"`, `id="color"`} {
		if !strings.Contains(body, id) {
			t.Fatalf("new-game page lacks %s", id)
		}
	}
}
