// Package admin is the loopback HTTP observability surface: read-only index
// and pool statistics, plus the phase-duration knobs mirrored over HTTP for
// operators. The search protocol itself stays on the framed TCP port; this
// API never touches file contents or the query path.
package admin

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edirooss/searchd/internal/index"
	"github.com/edirooss/searchd/internal/rwpool"
)

// NewRouter builds the admin gin engine.
func NewRouter(log *zap.Logger, idx *index.Manager, pool *rwpool.Pool) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("admin")

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS (dev only)
	if os.Getenv("ENV") == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(RequestID())
	r.Use(ZapLogger(log))

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"index": idx.Snapshot(),
			"pool":  pool.Snapshot(),
		})
	})

	r.GET("/api/durations", func(c *gin.Context) {
		c.JSON(http.StatusOK, durationsBody{
			Reader: pool.ReaderDuration(),
			Writer: pool.WriterDuration(),
		})
	})

	r.PUT("/api/durations", func(c *gin.Context) {
		var req durationsUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		if req.Reader != nil {
			if err := pool.SetReaderDuration(*req.Reader); err != nil {
				respondDurationErr(c, err)
				return
			}
		}
		if req.Writer != nil {
			if err := pool.SetWriterDuration(*req.Writer); err != nil {
				respondDurationErr(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, durationsBody{
			Reader: pool.ReaderDuration(),
			Writer: pool.WriterDuration(),
		})
	})

	return r
}

type durationsBody struct {
	Reader float32 `json:"reader"`
	Writer float32 `json:"writer"`
}

type durationsUpdate struct {
	Reader *float32 `json:"reader"`
	Writer *float32 `json:"writer"`
}

func respondDurationErr(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, rwpool.ErrDurationTooSmall) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
