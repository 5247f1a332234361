package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ZJUSCT/rankboard/internal/auth"
	"github.com/ZJUSCT/rankboard/internal/common"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	actorKey     = "actor"
	trackKey     = "track"
	requestIDKey = "requestID"
)

// CORSMiddleware provides a configurable CORS middleware.
func CORSMiddleware(cfg config.CORS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.AllowedOrigins) == 0 {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		allowOrigin := ""
		for _, o := range cfg.AllowedOrigins {
			if o == "*" {
				allowOrigin = "*"
				break
			}
			if o == origin {
				allowOrigin = origin
				break
			}
		}

		if allowOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)

		start := time.Now()
		c.Next()

		zap.L().Info("request",
			zap.String("id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.Error(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(parts[1], secret)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}
		actor, err := claims.Actor()
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the actor set by AuthMiddleware.
func CurrentActor(c *gin.Context) auth.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(auth.Actor)
	return actor
}

// TrackMiddleware resolves the :track path parameter, rejecting unknown
// tracks.
func TrackMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		track, ok := models.ParseTrack(c.Param("track"))
		if !ok {
			util.Fail(c, common.NotFoundf("unknown track %q", c.Param("track")))
			c.Abort()
			return
		}
		c.Set(trackKey, track)
		c.Next()
	}
}

func Track(c *gin.Context) models.Track {
	v, _ := c.Get(trackKey)
	track, _ := v.(models.Track)
	return track
}

// RequireModerator must run after AuthMiddleware. On track routes it must
// also run after TrackMiddleware; elsewhere moderating any track suffices.
func RequireModerator(mod config.Moderation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		allowed := false
		if track := Track(c); track != "" {
			allowed = auth.IsModerator(actor, mod, track)
		} else {
			allowed = auth.IsAnyModerator(actor, mod)
		}
		if !allowed {
			util.Fail(c, common.ErrPermission)
			c.Abort()
			return
		}
		c.Next()
	}
}
