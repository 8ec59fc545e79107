package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"imageenhancer/internal/apperr"
	"imageenhancer/internal/models"
	"imageenhancer/internal/service"
)

type Server struct {
	cfg    *models.Config
	router *gin.Engine
	svc    *service.Service
	log    *zap.Logger
	http   *http.Server
}

func NewServer(cfg *models.Config, svc *service.Service, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	s := &Server{cfg: cfg, router: r, svc: svc, log: log}

	images := r.Group("/images")
	images.POST("/upload", s.handleUpload)
	images.POST("/:id/enhance", s.handleEnhance)
	images.GET("/history", s.handleHistory)
	images.GET("/original/:id", s.handleOriginal)
	images.GET("/enhanced/:id", s.handleEnhanced)
	images.GET("/:id/download", s.handleDownload)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.http = &http.Server{Addr: cfg.ServerAddr, Handler: r}
	return s
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "No file provided"})
		return
	}

	src, err := file.Open()
	if err != nil {
		s.respondError(c, apperr.Wrap(apperr.ErrStorage, "server.handleUpload", "open upload", err), "Failed to upload image")
		return
	}
	defer src.Close()

	rec, err := s.svc.Upload(c.Request.Context(), file.Filename, file.Size, src)
	if err != nil {
		s.respondError(c, err, "Failed to upload image")
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:          true,
		ImageID:          rec.ID,
		OriginalImageURL: "/images/original/" + rec.ID,
		Message:          "Image uploaded successfully",
	})
}

func (s *Server) handleEnhance(c *gin.Context) {
	id := c.Param("id")

	rec, err := s.svc.Enhance(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, "Failed to enhance image")
		return
	}

	c.JSON(http.StatusOK, models.EnhanceResponse{
		Success:          true,
		EnhancedImageURL: "/images/enhanced/" + rec.ID,
		ProcessingTime:   rec.ProcessingTime,
		EnhancementType:  rec.EnhancementType,
		Message:          "Image enhanced successfully",
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	items, err := s.svc.History(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to fetch enhancement history")
		return
	}
	c.JSON(http.StatusOK, models.HistoryResponse{Success: true, Data: items})
}

func (s *Server) handleOriginal(c *gin.Context) {
	f, err := s.svc.Original(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to serve image")
		return
	}
	c.Header("Content-Type", f.MimeType)
	c.Header("Content-Disposition", `inline; filename="`+f.Name+`"`)
	c.File(f.Path)
}

func (s *Server) handleEnhanced(c *gin.Context) {
	f, err := s.svc.Enhanced(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to serve enhanced image")
		return
	}
	c.Header("Content-Type", f.MimeType)
	c.Header("Content-Disposition", `inline; filename="`+f.Name+`"`)
	c.File(f.Path)
}

func (s *Server) handleDownload(c *gin.Context) {
	f, err := s.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to download enhanced image")
		return
	}
	c.Header("Content-Type", f.MimeType)
	c.FileAttachment(f.Path, f.Name)
}

// respondError translates classified errors into HTTP statuses. Internal
// causes stay in the log; clients only see the fallback message.
func (s *Server) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, models.ErrorResponse{Success: false, Message: apperr.Public(err, fallback)})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
