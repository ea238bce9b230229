// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"overlap-api/internal/api"
	"overlap-api/internal/cache"
	"overlap-api/internal/logger"
	"overlap-api/internal/metrics"
	"overlap-api/internal/middleware"
	"overlap-api/internal/overlap"
	"overlap-api/internal/relate"
	"overlap-api/internal/source"
	"overlap-api/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := utils.EnvString("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}

	reports := cache.NewReports(
		utils.EnvInt("REPORT_CACHE_SIZE", 256),
		utils.EnvSeconds("REPORT_CACHE_TTL_S", time.Hour),
		rc,
	)
	opts := source.Options{
		CoordSys: os.Getenv("COORD_SYS"),
		Workers:  utils.EnvInt("SOURCE_WORKERS", 0),
	}
	if _, err := source.Normalizer(opts.CoordSys); err != nil {
		l.Error("config_coord_sys_error", "coord_sys", opts.CoordSys, "err", err)
		os.Exit(1)
	}
	timeout := utils.EnvSeconds("OVERLAP_TIMEOUT_S", 60*time.Second)
	l.Debug("config_detect", "coord_sys", opts.CoordSys, "workers", opts.Workers, "timeout_s", timeout.Seconds())

	eng := overlap.New(relate.SimpleFeatures{}, overlap.WithLogger(l))
	svc := api.NewService(eng, reports, opts, timeout)

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(svc)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("ok"))
	})

	addr := utils.EnvString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		l.Info("shutdown_begin")
		_ = s.Shutdown(ctx)
	}()

	var err error
	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := utils.EnvString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if e := utils.EnsureSelfSignedCert(certPath, keyPath, "overlap-api.local"); e != nil {
			l.Error("tls_cert_error", "err", e)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_done")
}
