package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // registers the /debug/pprof handlers
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	echoapi "github.com/shuleapp/shule/apps/api/echo"
	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/class"
	"github.com/shuleapp/shule/core/session"
	"github.com/shuleapp/shule/core/user"
	emailsvc "github.com/shuleapp/shule/services/email"
	logsvc "github.com/shuleapp/shule/services/logger"
	metricsvc "github.com/shuleapp/shule/services/metrics"
	"github.com/shuleapp/shule/storage/database"
	inmemdb "github.com/shuleapp/shule/storage/database/inmem"
	sqlxrepos "github.com/shuleapp/shule/storage/database/sqlx"
	redisstore "github.com/shuleapp/shule/storage/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	ctx := context.Background()

	// set up DB
	usrRepo, clsRepo, closeDB, err := setUpDB(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up session revocation
	var revoker session.Revoker = session.NewMemoryRevoker()
	if conf.Redis.Address != "" {
		rdb, err := redisstore.Open(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		defer func() { _ = rdb.Close() }()
		revoker = redisstore.NewRevoker(rdb)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger, conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}

	validate := core.NewValidator()
	user.InitValidators(validate)
	class.InitValidators(validate)

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	clsSvc := class.NewService(clsRepo, validate)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := metricsvc.New(registry)

	authn := auth.NewAuthenticator(auth.Deps{
		Users:     usrSvc,
		Tokens:    session.NewTokens([]byte(conf.SecretKey), conf.Session.TTL, conf.AppName),
		Revoker:   revoker,
		Validator: validate,
		Logger:    logger,
		Recorder:  metrics,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.Deps{
		Conf:      conf,
		Logger:    logger,
		Validator: validate,
		Auth:      authn,
		UserSvc:   usrSvc,
		ClassSvc:  clsSvc,
		Metrics:   metrics,
		Gatherer:  registry,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpDB returns the repositories of the configured engine and a func releasing them.
func setUpDB(ctx context.Context, conf *core.Config) (user.Repository, class.Repository, func() error, error) {
	if conf.Database.Engine == "memory" {
		db := inmemdb.Open()
		return inmemdb.NewUserRepository(db), inmemdb.NewClassRepository(db), func() error { return nil }, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, nil, nil, err
	}
	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, nil, nil, errors.Wrap(err, "migrating")
	}
	return sqlxrepos.NewUserRepository(db), sqlxrepos.NewClassRepository(db), db.Close, nil
}
