package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZJUSCT/rankboard/internal/api/admin"
	"github.com/ZJUSCT/rankboard/internal/api/user"
	"github.com/ZJUSCT/rankboard/internal/auth"
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database"
	"github.com/ZJUSCT/rankboard/internal/database/models"
	"github.com/ZJUSCT/rankboard/internal/pubsub"
	"github.com/ZJUSCT/rankboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var Version = "dev-build"

func main() {

	fmt.Fprintf(os.Stderr, "ZJUSCT rankboard %s - Community Leaderboard Service\n\n", Version)

	var (
		configPath string
		issueFor   int64
		roles      string
		manage     bool
	)
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Int64Var(&issueFor, "issue-token", 0, "print a token for this user id and exit")
	flag.StringVar(&roles, "roles", "", "comma separated role ids carried by the issued token")
	flag.BoolVar(&manage, "manage", false, "grant manage_messages in the issued token")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if issueFor != 0 {
		if err := issueToken(cfg, issueFor, roles, manage); err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		return
	}

	// logger
	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
		gin.SetMode(gin.ReleaseMode)
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.Auth.JWT.Secret == "" {
		zap.S().Fatal("auth.jwt.secret must be set")
	}

	// database
	db, err := database.Init(cfg.Storage)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Infof("database initialized successfully (%s)", cfg.Storage.Driver)

	svc := service.New(cfg, db)
	defer svc.Broker.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// redis relay
	if cfg.Redis.Addr != "" {
		relay, err := pubsub.NewRedisRelay(ctx, cfg.Redis)
		if err != nil {
			zap.S().Fatalf("failed to start redis relay: %v", err)
		}
		defer relay.Close()
		for _, track := range models.Tracks {
			go relay.Forward(ctx, svc.Broker, pubsub.LeaderboardTopic(string(track)))
		}
		zap.S().Infof("relaying leaderboard events to redis channel prefix %s", cfg.Redis.Channel)
	}

	// API routers
	servers := []*http.Server{
		{Addr: cfg.Listen, Handler: user.NewUserRouter(cfg, svc)},
	}
	if cfg.Admin.Enabled {
		servers = append(servers, &http.Server{Addr: cfg.Admin.Listen, Handler: admin.NewAdminRouter(cfg, svc)})
	} else {
		zap.S().Warn("admin server disabled, moderation endpoints are unavailable")
	}

	// start servers
	for _, srv := range servers {
		go func(srv *http.Server) {
			zap.S().Infof("starting server at %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.S().Fatalf("failed to start server at %s: %v", srv.Addr, err)
			}
		}(srv)
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("server at %s shutdown: %v", srv.Addr, err)
		}
	}
}

func issueToken(cfg *config.Config, userID int64, roles string, manage bool) error {
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be set")
	}
	actor := auth.Actor{UserID: userID, ManageMessages: manage}
	for _, r := range strings.Split(roles, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid role id %q", r)
		}
		actor.Roles = append(actor.Roles, id)
	}
	token, err := auth.GenerateJWT(actor, cfg.Auth.JWT.Secret, cfg.Auth.JWT.ExpireHours)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
