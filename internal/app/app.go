package app

import (
	"context"
	"errors"
	"log/slog"

	httpapp "mintyfresh/internal/app/http"
	"mintyfresh/internal/collection"
	"mintyfresh/internal/config"
	"mintyfresh/internal/domain/models"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/permission"
	"mintyfresh/internal/repository"
	"mintyfresh/internal/scheduler"
	gallery "mintyfresh/internal/services/gallery_service"
	mint "mintyfresh/internal/services/mint_service"
	share "mintyfresh/internal/services/share_service"
	viewer "mintyfresh/internal/services/viewer_service"
	filestorage "mintyfresh/internal/storage/filestorage"
	redisapp "mintyfresh/internal/storage/redis"
	httprouters "mintyfresh/internal/transport/http"
)

const dispatcherBuffer = 256

type App struct {
	HTTPServer *httpapp.Server

	log     *slog.Logger
	loop    *scheduler.Loop
	repo    *repository.Repository
	redis   *redisapp.Client
	gallery *gallery.GalleryService
	viewers *viewer.ViewerService
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) *App {
	loop := scheduler.NewLoop(dispatcherBuffer)

	files, err := filestorage.NewLocalFileStorage(cfg.Gallery.BaseDir, cfg.Gallery.BaseURL, cfg.Gallery.MaxSize)
	if err != nil {
		panic(err)
	}

	repo, err := repository.NewRepository(ctx, cfg.DSN)
	if err != nil {
		panic(err)
	}

	rdb := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := rdb.HealthCheck(ctx); err != nil {
		log.Warn("redis is not reachable, mint cache disabled until it recovers", sl.Err(err))
	}

	galleryProvider := collection.New[models.MediaItem](log, files, collection.Options{
		Name:          "gallery",
		Dispatcher:    loop,
		ReloadTimeout: cfg.Gallery.LoadTimeout,
	})

	cachedMints := repository.NewCachedMintRepo(log, repo.Mints, repository.NewMintCache(rdb, cfg.Mints.CacheTTL))
	mintProvider := collection.New[models.MintItem](log, cachedMints, collection.Options{
		Name:          "mints",
		RequireScope:  true,
		Dispatcher:    loop,
		SnapshotTTL:   cfg.Mints.SnapshotTTL,
		ReloadTimeout: cfg.Mints.LoadTimeout,
	})

	explain := permission.DefaultGalleryExplain
	if cfg.Gallery.ExplainBody != "" {
		explain.Body = cfg.Gallery.ExplainBody
	}
	if cfg.Gallery.ExplainButton != "" {
		explain.Button = cfg.Gallery.ExplainButton
	}

	mediaAccess := permission.DirectoryAccess{Dir: cfg.Gallery.BaseDir}

	galleryService := gallery.NewGalleryService(
		log,
		galleryProvider,
		files,
		mediaAccess,
		filestorage.NewDirWatcher(log, cfg.Gallery.BaseDir, cfg.Gallery.WatchDebounce),
		explain,
	)
	mintService := mint.NewMintService(log, mintProvider, cachedMints, repository.NewMintNotifier(log, rdb))
	shareService := share.NewShareService(log, cfg.Share.Secret, cfg.Share.TTL, cfg.Share.BaseURL)
	viewerService := viewer.NewViewerService(log, galleryProvider, mintProvider, files, mediaAccess, shareService, cfg.Viewer.IdleTTL)

	routers := httprouters.NewRouter(log, galleryService, mintService, viewerService, shareService, cfg.HTTP.AllowedOrigins)

	server := httpapp.New(log, cfg.SessionSecret, cfg.HTTP.Host, cfg.HTTP.Port, routers, map[string]httpapp.HealthChecker{
		"postgres": repo,
		"redis":    rdb,
	})

	return &App{
		HTTPServer: server,
		log:        log,
		loop:       loop,
		repo:       repo,
		redis:      rdb,
		gallery:    galleryService,
		viewers:    viewerService,
	}
}

// Stop останавливает сервер и освобождает наблюдателей и соединения
func (a *App) Stop() error {
	const op = "app.Stop"

	log := a.log.With(slog.String("op", op))

	var errs []error

	if err := a.HTTPServer.Stop(); err != nil {
		errs = append(errs, err)
	}

	a.viewers.CloseAll()

	if err := a.gallery.Detach(); err != nil {
		errs = append(errs, err)
	}

	a.loop.Stop()

	if err := a.redis.Close(); err != nil {
		errs = append(errs, err)
	}
	a.repo.Close()

	if err := errors.Join(errs...); err != nil {
		log.Error("stopped with errors", sl.Err(err))
		return err
	}

	log.Info("application stopped")

	return nil
}
