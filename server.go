package main

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajemaa/portfolio/internal/clock"
	"github.com/ajemaa/portfolio/internal/config"
	"github.com/ajemaa/portfolio/internal/floating"
	"github.com/ajemaa/portfolio/internal/live"
	"github.com/ajemaa/portfolio/internal/portfolio"
	"github.com/ajemaa/portfolio/internal/scrollspy"
	"github.com/ajemaa/portfolio/internal/store"
	"github.com/ajemaa/portfolio/internal/typewriter"
)

// App holds everything the routes need.
type App struct {
	cfg     *config.Config
	content *portfolio.Store
	db      *store.DB
	hub     *live.Hub
	mailer  Mailer
	admin   *adminAuth
	now     func() time.Time
}

func newApp(cfg *config.Config, content *portfolio.Store, db *store.DB, mailer Mailer) (*App, error) {
	admin, err := newAdminAuth(cfg.Admin, cfg.Debug)
	if err != nil {
		return nil, err
	}
	hub := live.NewHub(live.Options{
		Typewriter: typewriter.Options{
			TypingSpeed:   cfg.Typewriter.TypingSpeed,
			DeletingSpeed: cfg.Typewriter.DeletingSpeed,
			PauseDuration: cfg.Typewriter.PauseDuration,
		},
		Scroll: scrollspy.Options{
			Threshold:     cfg.Scroll.Threshold,
			ScrolledAfter: cfg.Scroll.ScrolledAfter,
		},
		FrameInterval: cfg.Scroll.FrameInterval,
		HeroHeight:    cfg.Scroll.HeroHeight,
		Debug:         cfg.Debug,
	}, clock.Real(), content.Get, db)

	return &App{
		cfg:     cfg,
		content: content,
		db:      db,
		hub:     hub,
		mailer:  mailer,
		admin:   admin,
		now:     time.Now,
	}, nil
}

var templateFuncs = template.FuncMap{
	"markdown": portfolio.Markdown,
	"join":     strings.Join,
	"lower":    strings.ToLower,
	"add":      func(a, b int) int { return a + b },
	"mul":      func(a, b float64) float64 { return a * b },
	"tel": func(phone string) template.URL {
		return template.URL("tel:" + strings.ReplaceAll(phone, " ", ""))
	},
	"mailto": func(email string) template.URL {
		return template.URL("mailto:" + email)
	},
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// router builds the gin engine. ctx bounds the background goroutines the
// middleware starts.
func (a *App) router(ctx context.Context) (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	r.Use(a.visitorTracking())

	r.GET("/", a.handleIndex)
	r.GET("/sections/:id", a.handleSection)
	r.GET("/live", gin.WrapH(a.hub))

	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})
	limit := contactRateLimit(ctx, a.cfg.Contact.RatePerMinute, a.cfg.Contact.Burst, a.cfg.Contact.MaxClients)
	r.POST("/contact", limit, a.handleContact)

	a.setupAdminRoutes(r)
	return r, nil
}

// pageData is what every page template receives.
type pageData struct {
	P          *portfolio.Portfolio
	Title      string
	Nav        []portfolio.NavItem
	Typewriter string
	Phrases    []string
	Labels     []floating.Placement
	Layers     []scrollspy.Layer
	Year       int
}

func (a *App) pageData() pageData {
	p := a.content.Get()
	phrases := p.Personal.Phrases()
	return pageData{
		P:          p,
		Title:      p.PageTitle(),
		Nav:        portfolio.NavItems(),
		Typewriter: typewriter.Static(phrases),
		Phrases:    phrases,
		// first paint uses the seeded layout; the live session randomizes it
		Labels: floating.Seed(p.FloatingLabels()),
		Layers: scrollspy.BackgroundLayers,
		Year:   a.now().Year(),
	}
}

func (a *App) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", a.pageData())
}

// handleSection serves one section as an HTMX fragment.
func (a *App) handleSection(c *gin.Context) {
	id := c.Param("id")
	if !portfolio.IsSection(id) {
		c.String(http.StatusNotFound, "unknown section %q", id)
		return
	}
	c.HTML(http.StatusOK, "section-"+id, a.pageData())
}
