package site

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/Lllllllleong/consultancysite/internal/editor"
	"github.com/Lllllllleong/consultancysite/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// goldmark's default renderer drops raw HTML from the source.
var md = goldmark.New()

// markdownToHTML renders long-text fields. On a conversion error the input is
// shown escaped.
func markdownToHTML(input string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(input), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(input))
	}
	return template.HTML(buf.String())
}

var funcs = template.FuncMap{
	"markdown": markdownToHTML,
	"join":     strings.Join,
}

// pages holds one template set per page, each cloned from the layout and
// defining its own "content" block.
type pages map[string]*template.Template

func parsePages() pages {
	layout := template.Must(template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html"))
	out := pages{}
	for _, name := range []string{"home", "projects", "project", "message", "login", "admin"} {
		t := template.Must(layout.Clone())
		out[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return out
}

type pageData struct {
	SiteName string
	Title    string
	Doc      *models.Document
	Project  models.Project
	Error    string
	Admin    *adminView
}

type adminView struct {
	Snapshot    editor.Snapshot
	Failed      bool
	Entries     []editor.Entry
	Collections []collectionView
}

type collectionView struct {
	Section    string
	Collection string
	Count      int
	Indexes    []itemRef
}

type itemRef struct {
	Section    string
	Collection string
	Index      int
}

func newAdminView(sess *editor.Session) *adminView {
	snap := sess.Snapshot()
	v := &adminView{Snapshot: snap, Failed: snap.State == editor.StateError}
	doc := sess.Document()
	if doc == nil {
		return v
	}
	v.Entries = editor.Entries(doc)
	for _, section := range models.SectionNames() {
		for _, coll := range models.Collections(section) {
			n, _ := doc.ItemCount(section, coll)
			cv := collectionView{Section: section, Collection: coll, Count: n}
			for i := 0; i < n; i++ {
				cv.Indexes = append(cv.Indexes, itemRef{Section: section, Collection: coll, Index: i})
			}
			v.Collections = append(v.Collections, cv)
		}
	}
	return v
}

// render executes a page into a buffer first so a template error still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, status int, page string, data pageData) {
	data.SiteName = s.siteName
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("Failed to render page", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
