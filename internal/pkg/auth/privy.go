// Package auth отвечает за privy-id-token, которым подписываются запросы к
// HotStreak GraphQL.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
)

const tokenEnvVar = "HS_PRIVY_TOKEN"

// localStorage-ключ, под которым privy SDK держит текущий id-token.
const privyTokenKey = "privy:id_token"

// ResolveToken возвращает токен в порядке приоритета: env, конфиг,
// headless-браузер (если включён). Токены живут недолго, так что env/конфиг —
// для разовых прогонов, браузер — для сервисного режима.
func ResolveToken(ctx context.Context, cfg *config.HotstreakConfig) (string, error) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}
	if cfg.PrivyToken != "" {
		return cfg.PrivyToken, nil
	}
	if !cfg.ResolveTokenViaBrowser {
		return "", fmt.Errorf("privy token is not configured (set hotstreak.privy_token or %s)", tokenEnvVar)
	}
	return fetchTokenViaBrowser(ctx, cfg.WebURL, cfg.BrowserTimeout)
}

// fetchTokenViaBrowser открывает веб-приложение HotStreak в headless Chrome и
// читает токен из localStorage.
func fetchTokenViaBrowser(ctx context.Context, webURL string, timeout time.Duration) (string, error) {
	slog.Info("Resolving privy token via headless browser", "url", webURL)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, timeout)
	defer cancelRun()

	var token string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(webURL),
		// Privy SDK кладёт токен асинхронно после загрузки приложения.
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(fmt.Sprintf(`window.localStorage.getItem(%q) || ""`, privyTokenKey), &token),
	)
	if err != nil {
		return "", fmt.Errorf("browser token resolution: %w", err)
	}

	token = strings.Trim(strings.TrimSpace(token), `"`)
	if token == "" {
		return "", fmt.Errorf("privy token not found in browser localStorage")
	}
	slog.Info("Privy token resolved via browser")
	return token, nil
}
