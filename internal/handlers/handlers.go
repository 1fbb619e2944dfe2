package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/deepfake-verifier/internal/auth"
	"github.com/example/deepfake-verifier/internal/models"
	"github.com/example/deepfake-verifier/internal/predictclient"
	"github.com/example/deepfake-verifier/internal/preview"
	"github.com/example/deepfake-verifier/internal/status"
	"github.com/example/deepfake-verifier/internal/usecase"
)

// DefaultMaxSelectionBytes caps a single selection held in memory.
const DefaultMaxSelectionBytes int64 = 1 << 30

// multipartOverhead leaves room for boundaries and part headers on top of the file itself.
const multipartOverhead = 1 << 20

// Deps are the components the console routes drive.
type Deps struct {
	Analysis          *usecase.AnalysisUseCase
	Surface           *Surface
	Previews          *preview.Manager
	Monitor           *status.Monitor
	Logger            *zap.Logger
	MaxSelectionBytes int64
}

// RegisterRoutes wires the console handlers to the Gin router. When
// authMiddleware is nil the console is open.
func RegisterRoutes(router *gin.Engine, deps Deps, authMiddleware gin.HandlerFunc) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.MaxSelectionBytes <= 0 {
		deps.MaxSelectionBytes = DefaultMaxSelectionBytes
	}
	logger := deps.Logger.Named("console")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	media := router.Group("/preview")
	if authMiddleware != nil {
		api.Use(authMiddleware)
		media.Use(authMiddleware)
	}

	api.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Surface.Snapshot())
	})

	api.GET("/backend-status", func(c *gin.Context) {
		st, info := deps.Monitor.Status()
		c.JSON(http.StatusOK, BackendView{Status: st, Info: info})
	})

	api.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Analysis.GetMetricsSummary())
	})

	api.POST("/selection", func(c *gin.Context) {
		if deps.Analysis.State() != models.StateIdle {
			c.JSON(http.StatusConflict, gin.H{"error": usecase.ErrAnalysisInProgress.Error()})
			return
		}

		sel, code, err := readSelection(c, deps.MaxSelectionBytes)
		if err != nil {
			c.JSON(code, gin.H{"error": err.Error()})
			return
		}

		out, err := deps.Analysis.SelectFile(sel)
		if usecase.IsKind(err, usecase.KindConcurrency) {
			c.JSON(http.StatusConflict, gin.H{"error": usecase.ErrAnalysisInProgress.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":    out.IsValid,
			"severity": out.Severity,
			"message":  out.Message,
			"file": gin.H{
				"name":       sel.Name,
				"mime_type":  sel.MimeType,
				"size_bytes": sel.SizeBytes,
			},
		})
	})

	api.POST("/analysis", func(c *gin.Context) {
		run, err := deps.Analysis.Submit(c.Request.Context())
		if err != nil {
			var aerr *usecase.AnalysisError
			switch {
			case errors.As(err, &aerr) && aerr.Kind == usecase.KindConcurrency:
				c.JSON(http.StatusConflict, gin.H{"error": aerr.Message})
			case errors.As(err, &aerr) && aerr.Kind == usecase.KindValidation:
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": aerr.Message})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		fields := []zap.Field{zap.String("run_id", run.ID), zap.String("file", run.FileName)}
		if subject, ok := auth.GetUserID(c.Request.Context()); ok {
			fields = append(fields, zap.String("subject", subject))
		}
		logger.Info("analysis submitted", fields...)

		c.JSON(http.StatusAccepted, gin.H{"run_id": run.ID})
	})

	api.POST("/analysis/acknowledge", func(c *gin.Context) {
		deps.Analysis.AcknowledgeSizeWarning()
		c.Status(http.StatusNoContent)
	})

	media.GET("/:id", func(c *gin.Context) {
		handle, rc, err := deps.Previews.Open(c.Param("id"))
		if errors.Is(err, preview.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
			return
		}
		if err != nil {
			logger.Error("failed to open preview", zap.String("preview_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to open preview"})
			return
		}
		defer rc.Close()

		c.Header("Cache-Control", "no-store")
		if handle.MimeType != "" {
			c.Header("Content-Type", handle.MimeType)
		}
		http.ServeContent(c.Writer, c.Request, handle.Name, time.Time{}, rc)
	})

	media.POST("/:id/error", func(c *gin.Context) {
		deps.Analysis.ReportPlaybackError(c.Param("id"))
		c.Status(http.StatusNoContent)
	})
}

// readSelection streams the first file part into memory. Nothing touches disk.
func readSelection(c *gin.Context, maxBytes int64) (*models.FileSelection, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("multipart form with a file field is required")
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.StatusBadRequest, errors.New("file is required")
		}
		if err != nil {
			return nil, bodyErrorStatus(err), errors.New("unable to read upload")
		}
		if part.FormName() != predictclient.FormField || part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		part.Close()
		if err != nil {
			return nil, bodyErrorStatus(err), errors.New("unable to read upload")
		}
		if int64(len(data)) > maxBytes {
			return nil, http.StatusRequestEntityTooLarge, errors.New("file exceeds the maximum selection size")
		}
		return models.NewMemorySelection(part.FileName(), part.Header.Get("Content-Type"), data), 0, nil
	}
}

func bodyErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
