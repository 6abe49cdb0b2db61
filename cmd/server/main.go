package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ixugo/goddd/pkg/logger"
	"github.com/ixugo/goddd/pkg/system"
	"github.com/proctorly/kestrel/internal/app"
	"github.com/proctorly/kestrel/internal/conf"
)

var (
	buildVersion = "0.1.0"
	gitBranch    = "dev"
	gitHash      = "debug"
	release      string
	buildTime    string
)

var configPath = flag.String("c", filepath.Join(system.Getwd(), "configs", "config.toml"), "config file path")

func main() {
	flag.Parse()

	bc, err := conf.SetupConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	bc.BuildVersion = buildVersion
	if release != "" {
		bc.Debug = false
	}
	expvar.NewString("git_branch").Set(gitBranch)
	expvar.NewString("git_hash").Set(gitHash)

	log, clean := setupLog(bc)
	defer clean()

	slog.Info("server starting",
		"version", buildVersion,
		"branch", gitBranch,
		"hash", gitHash,
		"build_time", buildTime,
		"config", *configPath,
	)

	svr, cleanup, err := app.NewServer(bc, log)
	if err != nil {
		slog.Error("init server", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	go func() {
		slog.Info("http server listening", "addr", svr.Addr)
		if err := svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server exited", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "err", err)
	}
}

func setupLog(bc *conf.Bootstrap) (*slog.Logger, func()) {
	logDir := filepath.Join(system.Getwd(), "logs")
	log, clean := logger.SetupSlog(logger.Config{
		Debug: bc.Debug,
		FileConfig: logger.FileConfig{
			Dir:        logDir,
			MaxAge:     7,
			MaxSize:    100,
			MaxBackups: 10,
			Compress:   true,
		},
	})
	return log, clean
}
