package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/archivefs/archivefs/internal/cache"
	"github.com/archivefs/archivefs/internal/config"
	"github.com/archivefs/archivefs/internal/fuse"
	"github.com/archivefs/archivefs/internal/metrics"
	"github.com/archivefs/archivefs/internal/mount"
	"github.com/archivefs/archivefs/pkg/utils"
)

func main() {
	var (
		subPath     = flag.String("subpath", "", "archive subpath to mount (default: whole archive)")
		configFile  = flag.String("config", "", "path to a YAML configuration file")
		logLevel    = flag.String("log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
		metricsAddr = flag.String("metrics-addr", "", "serve prometheus metrics on this address")
		allowOther  = flag.Bool("allow-other", false, "allow access by other users")
		debug       = flag.Bool("debug", false, "enable FUSE protocol logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] ARCHIVE MOUNTPOINT\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Mount a zip archive (or a subpath of one) as a read-only filesystem.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *subPath, *configFile, *logLevel, *metricsAddr, *allowOther, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "archivefs: %v\n", err)
		os.Exit(1)
	}
}

func run(archivePath, mountpoint, subPath, configFile, logLevel, metricsAddr string, allowOther, debug bool) error {
	cfg := config.NewDefault()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Global.LogLevel = logLevel
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := utils.ParseLogLevel(cfg.Global.LogLevel)
	if err != nil {
		return err
	}
	logger := utils.NewLogger(level, os.Stderr)

	contentCache := cache.New(&cache.Config{
		Capacity: cfg.MaxTotalBytes(),
		TTL:      cfg.Cache.TTL,
	})

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&metrics.Config{
			Namespace: cfg.Metrics.Namespace,
			Path:      cfg.Metrics.Path,
		})
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, collector.Handler())
		go func() {
			logger.Info("serving metrics on %s%s", cfg.Metrics.Addr, cfg.Metrics.Path)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error("metrics server: %v", err)
			}
		}()
	}

	m, err := mount.New(archivePath, subPath,
		mount.WithCache(contentCache),
		mount.WithMaxCachedFileSize(cfg.MaxFileBytes()),
		mount.WithMetrics(collector),
		mount.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	server, err := fuse.Mount(mountpoint, m, &fuse.Options{
		AllowOther: allowOther,
		Debug:      debug,
	})
	if err != nil {
		return fmt.Errorf("fuse mount failed: %w", err)
	}

	logger.Info("mounted %s at %s (subpath %q)", archivePath, mountpoint, subPath)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("unmounting %s", mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed: %v", err)
		}
	}()

	server.Wait()
	return nil
}
