// Package server initializes and runs the contactkeeper authentication server.
// It selects the storage backend, wires the auth services and runs the HTTP API
// until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/config"
	"github.com/dmitrijs2005/contactkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/contactkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/contactkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/contactkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	httpServer  *httpapi.HTTPServer
}

// NewApp builds every dependency from c. Logs go to out as JSON lines.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.NewJSON(out, c.LogLevel)
	logger.Info(ctx, "config loaded", "config", c)

	rm, err := newRepositoryManager(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.SigningAlgorithm,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	params := auth.DefaultPasswordParams()
	params.MemoryKB = c.PasswordMemoryKB
	params.Time = c.PasswordTime
	params.Parallelism = c.PasswordParallelism
	hasher, err := auth.NewHasher(params)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	app := &App{config: c, logger: logger, repomanager: rm}

	var limiter ratelimit.LoginLimiter = ratelimit.Noop{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		limiter = ratelimit.NewRedisLimiter(app.redis, c.MaxLoginAttempts, c.LoginAttemptWindow)
		logger.Info(ctx, "login throttling enabled", "redis", c.RedisAddr)
	}

	mtr := metrics.New()
	us := services.NewUserService(rm, issuer, hasher, limiter, mtr, logger.With("module", "user_service"))
	app.httpServer = httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, us, rm, mtr)

	return app, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory storage")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}
	return rm, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage and Redis connections.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	return errors.Join(runErr, app.close())
}

func (app *App) close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	errs = append(errs, app.repomanager.Close())
	return errors.Join(errs...)
}
