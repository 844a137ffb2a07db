package app

import (
	"net/http"

	"diamond-app-go/internal/config"
	"diamond-app-go/internal/db"
	navctxdomain "diamond-app-go/internal/domain/navctx"
	notesdomain "diamond-app-go/internal/domain/notes"
	projectsdomain "diamond-app-go/internal/domain/projects"
	statsdomain "diamond-app-go/internal/domain/stats"
	tagsdomain "diamond-app-go/internal/domain/tags"
	userdomain "diamond-app-go/internal/domain/user"
	navctxrepo "diamond-app-go/internal/repository/postgres/navctx"
	notesrepo "diamond-app-go/internal/repository/postgres/notes"
	projectsrepo "diamond-app-go/internal/repository/postgres/projects"
	statsrepo "diamond-app-go/internal/repository/postgres/stats"
	tagsrepo "diamond-app-go/internal/repository/postgres/tags"
	userrepo "diamond-app-go/internal/repository/postgres/user"
	"diamond-app-go/internal/transport/httpserver"
	"diamond-app-go/internal/transport/httpserver/handler"
	"diamond-app-go/pkg/cache"
	"diamond-app-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
	worker     *statsdomain.Worker
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB)
	if err != nil {
		return nil, err
	}

	log.Info("app: running migrations")
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	// One shared in-process cache backs list pages, detail views, note
	// partitions, tag lists and the stats memo.
	store := cache.NewStore()

	projectsRepo := projectsrepo.NewPostgres(dbConn)
	notesRepo := notesrepo.NewPostgres(dbConn)
	tagsRepo := tagsrepo.NewPostgres(dbConn)
	statsRepo := statsrepo.NewPostgres(dbConn)
	navctxRepo := navctxrepo.NewPostgres(dbConn)
	userRepo := userrepo.NewPostgres(dbConn)

	statsSvc := statsdomain.NewService(statsRepo, projectsRepo, store, statsdomain.Config{
		FreshnessWindow: cfg.Stats.FreshnessWindow,
		FetchPageSize:   cfg.Stats.FetchPageSize,
		Verbose:         cfg.Stats.Verbose,
	}, log)

	worker := statsdomain.NewWorker(statsSvc, cfg.Stats.WorkerQueueSize, log)
	worker.Start()

	projectsSvc := projectsdomain.NewService(projectsRepo, store, projectsdomain.Config{
		StatusCountCap:  cfg.Projects.StatusCountCap,
		DeleteBatchSize: cfg.Projects.DeleteBatch,
		DeleteChunkSize: cfg.Projects.DeleteChunk,
		ImageURLPrefix:  cfg.Projects.ImageURLPrefix,
	}, nil, worker, log)

	notesSvc := notesdomain.NewService(notesRepo, store, nil, log)
	tagsSvc := tagsdomain.NewService(tagsRepo, store, log)
	navctxSvc := navctxdomain.NewService(navctxRepo, log)
	// The stats service doubles as the first-login warmer: the initial
	// profile upsert pre-computes the current year's stats.
	userSvc := userdomain.NewService(userRepo, statsSvc)

	log.Info("app: initializing router")
	handlers := handler.New(projectsSvc, notesSvc, tagsSvc, statsSvc, navctxSvc, log)
	router := httpserver.NewRouter(cfg, handlers, userSvc, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
		worker:     worker,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
