// Package devserver is a stand-in portal for local development: it renders
// the shared header props for every role, accepts the notification actions
// and announces changes on a websocket feed.
package devserver

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/live"
	"github.com/nhle/lms-notify/internal/model"
)

const (
	headerInertia         = "X-Inertia"
	headerInertiaVersion  = "X-Inertia-Version"
	headerInertiaLocation = "X-Inertia-Location"
	headerXSRF            = "X-XSRF-TOKEN"
	cookieXSRF            = "XSRF-TOKEN"

	// statusPageExpired is what Laravel answers on a CSRF mismatch.
	statusPageExpired = 419

	EventUpdated = live.EventPrefix + "updated"
	EventCreated = live.EventPrefix + "created"
)

var roles = []model.Role{model.RoleUser, model.RoleDosen, model.RoleAdmin}

// Options configures a Server.
type Options struct {
	// Version is the asset version; a client sending another one gets 409.
	Version string

	// Token, when set, must be presented as a Bearer token.
	Token string

	// PageLimit caps the items in headerNotifications. Defaults to 10.
	PageLimit int

	// SoundFile is served at SoundPath when set.
	SoundFile string
	SoundPath string

	AllowedOrigins []string

	Now func() time.Time
	Log *logrus.Entry
}

// Server is the development portal.
type Server struct {
	opts   Options
	engine *gin.Engine
	inbox  *Inbox
	hub    *Hub
	xsrf   string
	log    *logrus.Entry
}

// New builds the server. The websocket hub runs until ctx is done.
func New(ctx context.Context, inbox *Inbox, opts Options) *Server {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 10
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if inbox == nil {
		inbox = NewInbox()
	}

	s := &Server{
		opts:  opts,
		inbox: inbox,
		hub:   NewHub(opts.Log),
		xsrf:  uuid.New().String(),
		log:   opts.Log.WithField("component", "devserver"),
	}
	go s.hub.Run(ctx)

	s.engine = s.router()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Inbox returns the notification set the server renders.
func (s *Server) Inbox() *Inbox {
	return s.inbox
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down")
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	corsConfig := cors.Config{
		AllowOrigins:     s.opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Accept", "Authorization", headerInertia, headerInertiaVersion, headerXSRF},
		ExposeHeaders:    []string{headerInertia, headerInertiaLocation},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowCredentials = false
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.opts.Version})
	})

	if s.opts.SoundFile != "" && s.opts.SoundPath != "" {
		router.StaticFile(s.opts.SoundPath, s.opts.SoundFile)
	}

	authed := router.Group("/")
	authed.Use(s.requireToken())

	authed.GET("/ws", func(c *gin.Context) {
		if err := s.hub.Serve(c.Writer, c.Request); err != nil {
			s.log.WithError(err).Warn("websocket upgrade")
		}
	})

	for _, role := range roles {
		authed.GET(model.DefaultPagePath(role), s.page(role))

		base := model.DefaultNotificationConfig(role).BaseURL
		actions := authed.Group(base)
		actions.Use(s.requireXSRF())
		actions.POST("/read-all", s.markAllRead(role))
		actions.POST("/:id/read", s.markRead(role))
		actions.DELETE("/:id", s.remove(role))
	}

	authed.POST("/dev/notify", s.notify)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
		}).Info("request")
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.Token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.opts.Token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated."})
			return
		}
		c.Next()
	}
}

func (s *Server) requireXSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerXSRF) != s.xsrf {
			c.AbortWithStatusJSON(statusPageExpired, gin.H{"error": "Page Expired"})
			return
		}
		c.Next()
	}
}

// page renders the role's landing page with the shared header props.
func (s *Server) page(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(cookieXSRF, s.xsrf, 0, "/", "", false, false)

		if c.GetHeader(headerInertia) == "true" {
			if v := c.GetHeader(headerInertiaVersion); v != "" && v != s.opts.Version {
				c.Header(headerInertiaLocation, c.Request.URL.RequestURI())
				c.Status(http.StatusConflict)
				return
			}
		}

		header := s.inbox.Header(role, s.opts.PageLimit)
		config := model.DefaultNotificationConfig(role)
		page := model.Page{
			Component: "Dashboard",
			Props: model.PageProps{
				HeaderNotifications: &header,
				NotificationConfig:  &config,
			},
			URL:     c.Request.URL.RequestURI(),
			Version: s.opts.Version,
		}

		c.Header("Vary", headerInertia)
		if c.GetHeader(headerInertia) != "true" {
			data, err := json.Marshal(page)
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			body := `<!DOCTYPE html><html><body><div id="app" data-page="` +
				html.EscapeString(string(data)) + `"></div></body></html>`
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
			return
		}

		c.Header(headerInertia, "true")
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) markRead(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := s.inbox.MarkRead(role, id, s.opts.Now()); err != nil {
			s.fail(c, role, err)
			return
		}
		s.changed(c, role, EventUpdated)
	}
}

func (s *Server) markAllRead(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.inbox.MarkAllRead(role, s.opts.Now()) == 0 {
			s.back(c, role)
			return
		}
		s.changed(c, role, EventUpdated)
	}
}

func (s *Server) remove(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := s.inbox.Delete(role, id); err != nil {
			s.fail(c, role, err)
			return
		}
		s.changed(c, role, EventUpdated)
	}
}

type notifyRequest struct {
	Role      string  `json:"role"`
	Title     string  `json:"title" binding:"required"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	ActionURL *string `json:"action_url"`
}

// notify injects a notification, as the portal's scheduler would.
func (s *Server) notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := model.RoleUser
	if req.Role != "" {
		r, err := model.ParseRole(req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role = r
	}

	n := s.inbox.Add(role, model.Notification{
		Title:     req.Title,
		Message:   req.Message,
		Type:      model.NotificationType(req.Type),
		Priority:  model.Priority(req.Priority),
		ActionURL: req.ActionURL,
		CreatedAt: s.opts.Now(),
	})
	s.hub.Publish(live.Event{Type: EventCreated, Role: string(role)})

	c.JSON(http.StatusCreated, n)
}

// changed announces the change and sends the client back to its page.
func (s *Server) changed(c *gin.Context, role model.Role, event string) {
	s.hub.Publish(live.Event{Type: event, Role: string(role)})
	s.back(c, role)
}

// back answers 303 to the referer, or to the role's landing page when the
// referer is missing or foreign.
func (s *Server) back(c *gin.Context, role model.Role) {
	target := model.DefaultPagePath(role)
	if ref, err := url.Parse(c.GetHeader("Referer")); err == nil && ref.Path != "" &&
		(ref.Host == "" || ref.Host == c.Request.Host) {
		target = ref.RequestURI()
	}
	c.Redirect(http.StatusSeeOther, target)
}

// fail answers a failed action. A missing id is not an error: reading or
// deleting twice lands back on the page like the first time.
func (s *Server) fail(c *gin.Context, role model.Role, err error) {
	if errors.Is(err, ErrNotFound) {
		s.log.WithError(err).Debug("notification action on missing id")
		s.back(c, role)
		return
	}
	s.log.WithError(err).Error("notification action")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return 0, false
	}
	return id, true
}
