package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/parser/parsers/hotstreak"
	"github.com/Vodeneev/hotstreakline/internal/pkg/auth"
	pkgconfig "github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/export"
	"github.com/Vodeneev/hotstreakline/internal/pkg/health"
	"github.com/Vodeneev/hotstreakline/internal/pkg/lines"
	"github.com/Vodeneev/hotstreakline/internal/pkg/logging"
	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
	"github.com/Vodeneev/hotstreakline/internal/pkg/notify"
	"github.com/Vodeneev/hotstreakline/internal/pkg/storage"
)

const defaultConfigPath = "configs/production.yaml"

type config struct {
	configPath string
	once       bool
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&appConfig.Logging, "pipeline"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}
	slog.Info("Config loaded successfully")

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(cancel)

	token, err := auth.ResolveToken(ctx, &appConfig.Hotstreak)
	if err != nil {
		return fmt.Errorf("failed to resolve privy token: %w", err)
	}

	deps, cleanup, err := buildDeps(appConfig, token)
	if err != nil {
		return err
	}
	defer cleanup()

	if port := appConfig.Health.Port; port > 0 {
		health.Run(ctx, health.AddrFor(port), "pipeline", appConfig.Health.ReadHeaderTimeout)
	}

	interval := appConfig.Pipeline.Interval
	if cfg.once || interval <= 0 {
		_, err := runOnce(ctx, appConfig, deps)
		return err
	}

	// Service mode: прогон сразу и далее по интервалу.
	slog.Info("Pipeline service mode", "interval", interval)
	for {
		if _, err := runOnce(ctx, appConfig, deps); err != nil {
			slog.Error("Pipeline run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type pipelineDeps struct {
	parser   *hotstreak.Parser
	exporter *export.Exporter
	store    storage.LineStorage
	notifier *notify.TelegramNotifier
}

func buildDeps(appConfig *pkgconfig.Config, token string) (*pipelineDeps, func(), error) {
	deps := &pipelineDeps{
		parser:   hotstreak.NewParser(appConfig, token),
		exporter: export.NewExporter(&appConfig.Export),
	}

	cleanup := func() {}
	if appConfig.Postgres.DSN != "" {
		store, err := storage.NewPostgresLineStorage(&appConfig.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init postgres storage: %w", err)
		}
		deps.store = store
		cleanup = func() { _ = store.Close() }
	}

	if appConfig.Telegram.BotToken != "" && appConfig.Telegram.ChatID != 0 {
		deps.notifier = notify.NewTelegramNotifier(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID)
	}
	return deps, cleanup, nil
}

// runOnce прогоняет полный цикл: fetch → combine → decode → export/store.
// Сбой декодирования отдельного игрока не фатален; сбой этапа — фатален для
// прогона целиком.
func runOnce(ctx context.Context, appConfig *pkgconfig.Config, deps *pipelineDeps) (models.RunSummary, error) {
	start := time.Now()
	var summary models.RunSummary
	summary.StartedAt = start.UTC().Format(time.RFC3339)

	slog.Info("Pipeline: fetching odds and categories")
	players, cats, err := deps.parser.FetchAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch step: %w", err)
	}
	summary.Players = len(players)
	summary.Categories = len(cats)
	if len(players) == 0 {
		slog.Warn("Pipeline: нет игроков с markets64, прогон пуст")
		finishRun(&summary, start, deps)
		return summary, nil
	}

	slog.Info("Pipeline: extracting category refs")
	rows := lines.ExtractAllRefs(players)

	if _, err := deps.exporter.SaveRawOdds(players, rows, start); err != nil {
		return summary, fmt.Errorf("export raw odds: %w", err)
	}
	if _, err := deps.exporter.SaveCategories(cats, start); err != nil {
		return summary, fmt.Errorf("export categories: %w", err)
	}

	slog.Info("Pipeline: combining odds with categories")
	mappings := lines.Combine(rows, cats)
	if _, err := deps.exporter.SaveCategoryMap(mappings, start); err != nil {
		return summary, fmt.Errorf("export category map: %w", err)
	}

	slog.Info("Pipeline: decoding market lines", "players", len(players))
	reducer := lines.NewReducer(appConfig.Pipeline.Workers)
	out, skipped := reducer.Reduce(players, mappings)
	summary.Lines = len(out)
	summary.PlayersSkipped = skipped

	exportPath, err := deps.exporter.SaveFinalLines(out, start)
	if err != nil {
		return summary, fmt.Errorf("export final lines: %w", err)
	}
	summary.ExportPath = exportPath

	if deps.store != nil {
		unchanged, err := storeRun(ctx, deps.store, players, out, start)
		if err != nil {
			return summary, fmt.Errorf("store step: %w", err)
		}
		summary.BlobsUnchanged = unchanged
	}

	finishRun(&summary, start, deps)
	slog.Info("Pipeline: прогон завершён",
		"players", summary.Players, "skipped", summary.PlayersSkipped,
		"lines", summary.Lines, "unchanged_blobs", summary.BlobsUnchanged,
		"duration", time.Since(start), "export", exportPath)
	return summary, nil
}

// storeRun пишет линии в postgres, пропуская игроков, чей блоб не менялся с
// прошлого прогона (дедупликация по дайджесту).
func storeRun(ctx context.Context, store storage.LineStorage, players []models.PlayerMarkets, out []models.MarketLine, recordedAt time.Time) (int, error) {
	changed := make(map[string]string, len(players))
	unchanged := 0
	for _, p := range players {
		digest := marketblob.Digest(p.Markets64)
		last, err := store.LastBlobDigest(ctx, p.FullName)
		if err != nil {
			return 0, err
		}
		if last == digest {
			unchanged++
			continue
		}
		changed[p.FullName] = digest
	}

	toStore := make([]models.MarketLine, 0, len(out))
	for _, line := range out {
		if _, ok := changed[line.PlayerName]; ok {
			toStore = append(toStore, line)
		}
	}
	if err := store.StoreLines(ctx, toStore, recordedAt); err != nil {
		return 0, err
	}
	// Дайджесты фиксируем только после записи линий: недозаписанный прогон
	// должен повториться для тех же игроков.
	for name, digest := range changed {
		if err := store.StoreBlobDigest(ctx, name, digest, recordedAt); err != nil {
			return 0, err
		}
	}
	return unchanged, nil
}

func finishRun(summary *models.RunSummary, start time.Time, deps *pipelineDeps) {
	summary.DurationMS = time.Since(start).Milliseconds()
	health.SetLastRun(*summary)
	if deps.notifier != nil {
		if err := deps.notifier.SendRunSummary(*summary); err != nil {
			slog.Warn("Failed to send telegram summary", "error", err)
		}
	}
}

func parseFlags() config {
	var cfg config

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "path to config file")
	flag.BoolVar(&cfg.once, "once", false, "run the pipeline once and exit, ignoring pipeline.interval")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "stop after this duration (0 = run until interrupted)")
	flag.Parse()

	return cfg
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()
}
