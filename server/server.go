package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playpod/cache"
	"playpod/config"
	"playpod/core/auth"
	"playpod/core/deezer"
	"playpod/core/playback"
	"playpod/db"
	"playpod/logger"
	"playpod/model"
	"playpod/repository"
	"playpod/storage"

	"github.com/gorilla/mux"
)

// App 运行时依赖
type App struct {
	Service *playback.Service
	Radio   *playback.Radio
	closers []func()
}

// Close 按创建的逆序释放资源
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// NewApp 连接数据库、Redis、MinIO 并组装播放服务。
// Redis 和 MinIO 不可用时降级运行：不缓存元数据、使用进程内锁、不支持封面。
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{}

	if err := db.ConnectGormDB(cfg); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() {
		if err := db.CloseGormDB(); err != nil {
			logger.Warn("[Server] 关闭数据库失败", logger.ErrorField(err))
		}
	})
	if err := db.AutoMigrateModels(model.AllModels()...); err != nil {
		app.Close()
		return nil, err
	}

	client := deezer.NewClient()
	client.SetBaseURL(cfg.DeezerAPIURL)
	client.SetTimeout(cfg.DeezerTimeout)

	var (
		provider deezer.Provider = client
		opts     []playback.Option
	)

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("[Server] Redis 不可用，元数据不缓存", logger.ErrorField(err))
		if cfg.LockBackend == "redis" {
			app.Close()
			return nil, fmt.Errorf("LOCK_BACKEND=redis requires Redis: %w", err)
		}
	} else {
		app.closers = append(app.closers, func() { _ = cache.CloseRedis() })
		provider = cache.NewMetadataCache(cache.RedisClient, client, cfg.DeezerCacheTTL, cfg.DeezerGenreCacheTTL)
		opts = append(opts, playback.WithRecommendationStore(
			cache.NewRecommendationCache(cache.RedisClient, cfg.RecommendationCacheTTL)))
		if cfg.LockBackend == "redis" {
			opts = append(opts, playback.WithLocker(cache.NewRedisLocker(cache.RedisClient, cfg.LockTTL)))
		}
	}

	if cfg.MinioEndpoint != "" {
		covers, err := storage.NewCoverStore(ctx, cfg)
		if err != nil {
			logger.Warn("[Server] MinIO 不可用，封面上传已禁用", logger.ErrorField(err))
		} else {
			opts = append(opts, playback.WithCoverStore(covers))
		}
	}

	popts := playback.DefaultOptions()
	popts.RadioLowWatermark = cfg.RadioLowWatermark
	popts.QueueCleanupAge = cfg.QueueCleanupAge
	opts = append(opts, playback.WithOptions(popts))

	app.Service = playback.NewService(repository.NewStore(db.GormDB), provider, opts...)
	app.Radio = playback.NewRadio(app.Service, cfg.RadioWorkers)
	app.Service.SetScheduler(app.Radio)
	return app, nil
}

// corsMiddleware 允许跨域访问
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter 注册全部路由。固定路径必须先于 {id} 路径注册。
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	a := h.AuthMiddleware

	// 推荐和生成
	api.HandleFunc("/playlists/recommendations", a(h.RecommendationsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists/play-recommendation", a(h.PlayRecommendationHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/generate", a(h.GeneratePlaylistHandler)).Methods(http.MethodPost)

	// 歌单
	api.HandleFunc("/playlists", a(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists", a(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", a(h.GetPlaylistHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", a(h.UpdatePlaylistHandler)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/playlists/{id}", a(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks", a(h.PlaylistTracksHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}/tracks", a(h.AddPlaylistTrackHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/tracks/bulk", a(h.AddPlaylistTracksHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/tracks/{trackId}", a(h.RemovePlaylistTrackHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks/{trackId}/position", a(h.ReorderPlaylistTrackHandler)).Methods(http.MethodPut)
	api.HandleFunc("/playlists/{id}/positions/{position}", a(h.RemovePlaylistPositionHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/shuffle", a(h.ShufflePlaylistHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/play", a(h.PlayPlaylistHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/cover", a(h.PlaylistCoverHandler)).Methods(http.MethodPut)

	// 播放队列
	api.HandleFunc("/queue", a(h.GetQueueHandler)).Methods(http.MethodGet)
	api.HandleFunc("/queue/tracks", a(h.QueueTracksHandler)).Methods(http.MethodGet)
	api.HandleFunc("/queue/current", a(h.CurrentTrackHandler)).Methods(http.MethodGet)
	api.HandleFunc("/queue/enqueue", a(h.EnqueueHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/tracks/{trackId}", a(h.DequeueHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/queue/tracks/{trackId}/position", a(h.ReorderQueueHandler)).Methods(http.MethodPut)
	api.HandleFunc("/queue/positions/{position}", a(h.DequeuePositionHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/queue/clear", a(h.ClearQueueHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/next", a(h.NextHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/previous", a(h.PreviousHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/position", a(h.JumpHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/shuffle", a(h.ShuffleQueueHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/stream", a(h.StreamHandler)).Methods(http.MethodPost)
	api.HandleFunc("/queue/history", a(h.QueueHistoryHandler)).Methods(http.MethodGet)
	api.HandleFunc("/history", a(h.HistoryHandler)).Methods(http.MethodGet)

	// 收藏
	api.HandleFunc("/favorites", a(h.ListFavoritesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/favorites", a(h.AddFavoriteHandler)).Methods(http.MethodPost)
	api.HandleFunc("/favorites/{trackId}", a(h.RemoveFavoriteHandler)).Methods(http.MethodDelete)

	// 曲库
	api.HandleFunc("/tracks/search", a(h.SearchTracksHandler)).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", a(h.GetTrackHandler)).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}/related", a(h.RelatedTracksHandler)).Methods(http.MethodGet)
	api.HandleFunc("/charts/tracks", a(h.ChartsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/charts/albums", a(h.TopAlbumsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/charts/new-releases", a(h.NewReleasesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}", a(h.GetArtistHandler)).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", a(h.GetAlbumHandler)).Methods(http.MethodGet)

	return router
}

// Start initializes and starts the HTTP server.
func Start(cfg *config.Config) error {
	auth.SetSecret(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Radio.Start(ctx)
	defer app.Radio.Stop()
	playback.StartCleanupTicker(ctx, app.Service, cfg.CleanupInterval)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(NewAPIHandler(app.Service, cfg)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] HTTP 服务启动", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("[Server] 正在关闭...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	cancel()

	logger.Info("[Server] 已停止")
	return nil
}
