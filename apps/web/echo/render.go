package echoweb

import (
	"html/template"
	"io"
	iofs "io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/session"
)

const (
	layoutTmpl  = "layout"
	contentTmpl = "content"
	hxRequest   = "HX-Request"
)

type (
	// pageData is handed to every full page. Content carries the page-specific view model.
	pageData struct {
		Title     string
		AppName   string
		Session   session.Session
		Banners   []session.Banner
		BannerTTL int64 // milliseconds
		Content   interface{}
	}

	// renderer renders pages inside the layout, or alone (their "content" block) for HTMX requests.
	// Names that are not pages are looked up among the shared partials.
	renderer struct {
		pages    map[string]*template.Template
		partials *template.Template
	}
)

var funcs = template.FuncMap{
	"date": func(v interface{}) string {
		switch t := v.(type) {
		case time.Time:
			return t.Local().Format("2006-01-02 15:04")
		case *time.Time:
			if t != nil {
				return t.Local().Format("2006-01-02 15:04")
			}
		}
		return ""
	},
	"deref": func(i *int) int {
		if i == nil {
			return 0
		}
		return *i
	},
}

func newRenderer(fsys iofs.FS) (*renderer, error) {
	partials, err := template.New("").Funcs(funcs).ParseFS(fsys, "templates/layout.gohtml", "templates/partials.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "parsing layout")
	}

	files, err := iofs.Glob(fsys, "templates/pages/*.gohtml")
	if err != nil {
		return nil, errors.Wrap(err, "listing pages")
	}
	r := &renderer{pages: make(map[string]*template.Template, len(files)), partials: partials}
	for _, file := range files {
		page, err := template.Must(partials.Clone()).ParseFS(fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", file)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".gohtml")] = page
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, ctx echo.Context) error {
	if page, ok := r.pages[name]; ok {
		if isHTMX(ctx) {
			return page.ExecuteTemplate(w, contentTmpl, data)
		}
		return page.ExecuteTemplate(w, layoutTmpl, data)
	}
	return r.partials.ExecuteTemplate(w, name, data)
}

func isHTMX(ctx echo.Context) bool {
	return ctx.Request().Header.Get(hxRequest) == "true"
}

// render wraps content into pageData. Pending banners are popped only when the
// layout, which shows them, is rendered: HTMX partials leave them for the next page.
func (s *server) render(ctx echo.Context, code int, page, title string, content interface{}) error {
	sess := currentSession(ctx)
	var banners []session.Banner
	if !isHTMX(ctx) {
		banners = sess.PopBanners()
	}
	if len(banners) > 0 {
		if err := s.saveSession(ctx, sess); err != nil {
			return err
		}
	}
	return ctx.Render(code, page, pageData{
		Title:     title,
		AppName:   s.deps.Conf.AppName,
		Session:   sess,
		Banners:   banners,
		BannerTTL: s.deps.Conf.UI.BannerTTL.Milliseconds(),
		Content:   content,
	})
}

// redirect answers HTMX requests with HX-Redirect so the whole page navigates.
func redirect(ctx echo.Context, to string) error {
	if isHTMX(ctx) {
		ctx.Response().Header().Set("HX-Redirect", to)
		return ctx.NoContent(http.StatusOK)
	}
	return ctx.Redirect(http.StatusSeeOther, to)
}
