// Package main is the entry point for yarws.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"yarws/internal/config"
	"yarws/internal/logger"
	"yarws/internal/metrics"
	"yarws/internal/server"
	"yarws/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	version = "dev"
)

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		envFile     = flag.String("env-file", ".env", ".env ファイルパス")
		addr        = flag.String("addr", "", "待ち受けアドレス (例: 127.0.0.1:7878)")
		workers     = flag.Int("workers", 0, "ワーカー数")
		metricsAddr = flag.String("metrics-addr", "", "/metrics の待ち受けアドレス (空で無効)")
		logLevel    = flag.String("log-level", "", "ログレベル (debug, info, warn, error)")
		showVersion = flag.Bool("version", false, "バージョンを表示")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `yarws - Yet Another Rusty Web Server, fixed-size worker pool edition

Usage:
  yarws [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # デフォルト設定 (127.0.0.1:7878, 4 workers)
  yarws

  # 設定ファイルから起動
  yarws --config yarws.yaml

  # フラグでカスタマイズ
  yarws --addr :8080 --workers 8 --metrics-addr :9090
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("yarws version %s\n", version)
		return
	}

	cfg, err := buildConfig(*configFile, *envFile, *addr, *workers, *metricsAddr, *logLevel)
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	logger.Default.SetLevel(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.Error("", "実行エラー: %v", err)
		os.Exit(1)
	}
}

// buildConfig は デフォルト → 設定ファイル → 環境変数 → フラグ の順に設定を重ねる
func buildConfig(configFile, envFile, addr string, workers int, metricsAddr, logLevel string) (config.Config, error) {
	cfg := config.Default()

	if configFile != "" {
		fileConfig, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		if err := fileConfig.Validate(); err != nil {
			return cfg, fmt.Errorf("設定検証エラー: %w", err)
		}
		cfg, err = fileConfig.ToConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
	}

	env, err := config.Environ(envFile)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, env); err != nil {
		return cfg, err
	}

	// フラグでオーバーライド
	if addr != "" {
		cfg.Addr = addr
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if logLevel != "" {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}

	return cfg, cfg.Validate()
}

// run はプールとサーバーを起動し、シグナルを受けるまで動かす
func run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// シグナルハンドリング
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("", "中断シグナルを受信、サーバーを終了中...")
		cancel()
	}()

	poolMetrics := metrics.New()
	reg := prometheus.NewRegistry()
	if err := poolMetrics.Register(reg); err != nil {
		return err
	}
	reg.MustRegister(collectors.NewGoCollector())

	pool, err := worker.Build(cfg.Workers, worker.WithObserver(poolMetrics))
	if err != nil {
		return err
	}
	defer pool.Shutdown()

	if cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}
		go func() {
			if err := server.ServeMetrics(ctx, ln, reg, logger.Default); err != nil {
				logger.Error("metrics", "%v", err)
			}
		}()
	}

	srv := server.New(pool, server.Options{
		IndexPath:      cfg.IndexPath,
		NotFoundPath:   cfg.NotFoundPath,
		SleepDelay:     cfg.SleepDelay,
		ReadTimeout:    cfg.ReadTimeout,
		MaxConnections: cfg.MaxConnections,
	}, logger.Default)

	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		return err
	}

	snap := drain(pool, poolMetrics)
	logger.Info("", "served %d jobs (avg %v, p99 %v)", snap.Completed, snap.AverageDuration, snap.P99Duration)
	return nil
}

// drain はプールを停止し、実行中のジョブを待ってから集計する
func drain(pool *worker.Pool, m *metrics.PoolMetrics) metrics.Snapshot {
	pool.Shutdown()
	return m.Snapshot()
}
