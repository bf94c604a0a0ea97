// Package health поднимает служебный HTTP-сервер пайплайна: liveness-эндпоинты
// и сводка последнего прогона.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

var (
	lastRunMu sync.RWMutex
	lastRun   *models.RunSummary
)

// SetLastRun запоминает сводку завершившегося прогона.
func SetLastRun(s models.RunSummary) {
	lastRunMu.Lock()
	defer lastRunMu.Unlock()
	lastRun = &s
}

// GetLastRun возвращает сводку последнего прогона, nil если прогонов не было.
func GetLastRun() *models.RunSummary {
	lastRunMu.RLock()
	defer lastRunMu.RUnlock()
	return lastRun
}

// Run стартует сервер в фоне и останавливает его по отмене контекста.
func Run(ctx context.Context, addr, service string, readHeaderTimeout time.Duration) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlePing)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/last-run", handleLastRun)

	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 10 * time.Second
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "service", service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "service", service, "error", err)
		}
	}()
}

// AddrFor собирает адрес прослушивания из порта.
func AddrFor(port int) string {
	return fmt.Sprintf(":%d", port)
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := map[string]any{"status": "ok"}
	if s := GetLastRun(); s != nil {
		status["last_run"] = s.StartedAt
		status["lines"] = s.Lines
	}
	_ = json.NewEncoder(w).Encode(status)
}

func handleLastRun(w http.ResponseWriter, _ *http.Request) {
	s := GetLastRun()
	if s == nil {
		http.Error(w, "no completed runs yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}
