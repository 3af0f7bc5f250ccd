// Package web is the HTTP surface of imagechat: the gin router, the
// session middleware, the SSE broker, and the handlers that drive the
// conversation, lightbox, and download flows. The chat page and its
// assets are embedded in the binary.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imagechat/imagechat/internal/conversation"
	"github.com/imagechat/imagechat/internal/imagen"
	"github.com/imagechat/imagechat/internal/imagestore"
	"github.com/imagechat/imagechat/internal/lightbox"
	"github.com/imagechat/imagechat/internal/logging"
	"github.com/imagechat/imagechat/internal/render"
)

//go:embed templates/* static/*
var embeddedFS embed.FS

const (
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 15 * time.Second

	// WriteTimeout is the maximum duration before timing out writes.
	// SSE connections lift this per-connection via ResponseController.
	WriteTimeout = 15 * time.Second

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodySize is the maximum size of POST request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxPromptLength is the maximum length of a prompt (10KB).
	MaxPromptLength = 10 * 1024
)

// generator produces images for a prompt. Satisfied by
// *imagen.Service; tests substitute a fake.
type generator interface {
	Generate(ctx context.Context, prompt string) imagen.Outcome
}

// Server provides HTTP serving for the chat UI.
type Server struct {
	addr   string
	server *http.Server
	engine *gin.Engine

	broker    *Broker
	renderer  *render.Renderer
	sessions  *conversation.Manager
	store     *imagestore.Store
	generator generator
	log       *logging.Logger
}

// NewServer creates a Server listening on the given address.
// Returns an error if the embedded templates cannot be parsed.
func NewServer(addr string, gen generator, logger *logging.Logger) (*Server, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	pageTmpl, err := template.ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	s := &Server{
		addr:      addr,
		broker:    NewBroker(),
		renderer:  renderer,
		sessions:  conversation.NewManager(),
		store:     imagestore.New(),
		generator: gen,
		log:       logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestLogger())
	engine.Use(SessionMiddleware())
	engine.SetHTMLTemplate(pageTmpl)

	staticFS, err := fs.Sub(embeddedFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static assets: %w", err)
	}
	engine.StaticFS("/static", http.FS(staticFS))

	engine.GET("/", s.handleIndex)
	engine.GET("/events", s.broker.Handler())
	engine.POST("/api/messages", s.handleSubmit)
	engine.POST("/api/lightbox/open", s.handleLightboxOpen)
	engine.POST("/api/lightbox/close", s.handleLightboxClose)
	engine.GET("/download/:id", s.handleDownload)
	engine.GET("/ready", s.handleReady)

	s.engine = engine
	s.server = &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return s, nil
}

// Broker returns the SSE broker.
func (s *Server) Broker() *Broker {
	return s.broker
}

// ListenAndServe starts the HTTP server and blocks until the context
// is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("Listening on http://%s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := s.broker.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("broker shutdown failed: %w", err)
		}

		s.log.Info("Web server stopped")
		return nil

	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// requestLogger logs every request through the project logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// handleIndex serves the chat page.
func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// submitRequest is the bound form of a prompt submission.
type submitRequest struct {
	Prompt string `form:"prompt" binding:"required"`
}

// handleSubmit accepts a prompt submission and drives one full
// generation cycle: push the user bubble and the loading placeholder,
// call the image service, then fill the placeholder with the result.
//
// The no-op paths mirror the submission state machine: an empty prompt
// returns 204 and a submission while one is in flight returns 409;
// neither changes any state.
func (s *Server) handleSubmit(c *gin.Context) {
	sessionID := SessionID(c)
	sess := s.sessions.Get(sessionID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)

	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		// Missing or empty field: same no-op as an empty prompt.
		c.Status(http.StatusNoContent)
		return
	}

	if len(req.Prompt) > MaxPromptLength {
		s.log.Warn("prompt too long for session %s: %d bytes", sessionID, len(req.Prompt))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "error", "message": "prompt too long"})
		return
	}

	user, placeholder, err := sess.Transcript.Begin(req.Prompt)
	switch {
	case errors.Is(err, conversation.ErrEmptyPrompt):
		c.Status(http.StatusNoContent)
		return
	case errors.Is(err, conversation.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "generation in progress"})
		return
	case err != nil:
		s.log.Error("failed to begin submission for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal error"})
		return
	}

	s.pushMessage(sessionID, func() (template.HTML, error) { return s.renderer.UserMessage(user.Text) })
	s.pushMessage(sessionID, func() (template.HTML, error) { return s.renderer.Placeholder(placeholder.ID) })

	// One synchronous attempt; the busy flag holds off further
	// submissions until the placeholder is filled.
	outcome := s.generator.Generate(c.Request.Context(), user.Text)
	grid := s.storeImages(sessionID, &outcome)

	filled, err := sess.Transcript.Resolve(placeholder.ID, outcome)
	if err != nil {
		s.log.Error("failed to resolve placeholder for session %s: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal error"})
		return
	}

	s.pushFill(sessionID, filled, grid)

	c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
}

// storeImages saves each generated image and returns the grid entries
// backing the rendered fragment. An image that cannot be stored is
// dropped from the grid; when none survive the outcome degrades to the
// generic error so the placeholder still resolves.
func (s *Server) storeImages(sessionID string, outcome *imagen.Outcome) []render.GridImage {
	if outcome.Kind != imagen.OutcomeImages {
		return nil
	}

	grid := make([]render.GridImage, 0, len(outcome.Images))
	for _, res := range outcome.Images {
		id, err := s.store.Put(res.Bytes, res.MIMEType, res.AltText)
		if err != nil {
			s.log.Error("failed to store image for session %s: %v", sessionID, err)
			continue
		}
		grid = append(grid, render.NewGridImage(id, res))
	}

	if len(grid) == 0 {
		*outcome = imagen.Outcome{Kind: imagen.OutcomeError, UserMessage: imagen.MsgGenerationFailed}
	}
	return grid
}

// pushMessage renders a fragment and appends it to the conversation
// over SSE. A send failure only means no page is listening; the
// transcript is already updated and a reload would replay from it.
func (s *Server) pushMessage(sessionID string, renderFn func() (template.HTML, error)) {
	html, err := renderFn()
	if err != nil {
		s.log.Error("failed to render fragment for session %s: %v", sessionID, err)
		return
	}
	if err := s.broker.SendEvent(sessionID, EventMessage, gin.H{"html": html}); err != nil {
		s.log.Debug("no SSE connection for session %s: %v", sessionID, err)
	}
}

// pushFill renders the resolved placeholder content and sends the fill
// event.
func (s *Server) pushFill(sessionID string, filled conversation.Message, grid []render.GridImage) {
	var html template.HTML
	var err error

	if filled.State == conversation.StateImages {
		html, err = s.renderer.ImageGrid(grid)
	} else {
		html, err = s.renderer.ErrorLine(filled.Text)
	}
	if err != nil {
		s.log.Error("failed to render fill for session %s: %v", sessionID, err)
		return
	}

	if err := s.broker.SendEvent(sessionID, EventFill, gin.H{"id": filled.ID, "html": html}); err != nil {
		s.log.Debug("no SSE connection for session %s: %v", sessionID, err)
	}
}

// lightboxRequest is the bound form of a lightbox open request.
type lightboxRequest struct {
	ImageID string `form:"image_id" binding:"required"`
}

// handleLightboxOpen opens the session's lightbox on a stored image.
func (s *Server) handleLightboxOpen(c *gin.Context) {
	sessionID := SessionID(c)
	sess := s.sessions.Get(sessionID)

	var req lightboxRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "image_id required"})
		return
	}

	img, err := s.store.Get(req.ImageID)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, imagestore.ErrInvalidID) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"status": "error", "message": "image not found"})
		return
	}

	gi := render.NewGridImage(req.ImageID, imagen.Result{
		Bytes:    img.Data,
		MIMEType: img.MIMEType,
		AltText:  img.Alt,
	})
	sess.Lightbox.Open(string(gi.DataURI), img.Alt)

	s.pushLightbox(sessionID, sess.Lightbox.Snapshot())
	c.JSON(http.StatusOK, sess.Lightbox.Snapshot())
}

// handleLightboxClose closes the session's lightbox. Closing an
// already-closed lightbox is a no-op.
func (s *Server) handleLightboxClose(c *gin.Context) {
	sessionID := SessionID(c)
	sess := s.sessions.Get(sessionID)

	sess.Lightbox.Close()

	s.pushLightbox(sessionID, sess.Lightbox.Snapshot())
	c.JSON(http.StatusOK, sess.Lightbox.Snapshot())
}

// pushLightbox mirrors a lightbox transition to the page.
func (s *Server) pushLightbox(sessionID string, snap lightbox.Snapshot) {
	if err := s.broker.SendEvent(sessionID, EventLightbox, snap); err != nil {
		s.log.Debug("no SSE connection for session %s: %v", sessionID, err)
	}
}

// handleDownload serves a stored image as an attachment. The suggested
// filename is derived from the prompt that produced the image.
func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")

	img, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, imagestore.ErrInvalidID) {
			c.String(http.StatusBadRequest, "invalid image ID")
			return
		}
		c.String(http.StatusNotFound, "image not found")
		return
	}

	filename := lightbox.DownloadFilename(img.Alt)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}

// handleReady reports server health.
func (s *Server) handleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
