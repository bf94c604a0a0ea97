package hotstreak

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// Parser забирает из HotStreak сырьё для пайплайна: игроков с markets64
// и справочник категорий. Декодированием занимаются пакеты marketblob и lines.
type Parser struct {
	cfg    *config.Config
	client *Client
}

func NewParser(cfg *config.Config, privyToken string) *Parser {
	return &Parser{
		cfg:    cfg,
		client: NewClient(&cfg.Hotstreak, privyToken),
	}
}

func (p *Parser) GetName() string {
	return "hotstreak"
}

// FetchAll выполняет оба запроса. Лимит игроков из конфига применяется здесь,
// чтобы тестовые прогоны не декодировали всю выдачу.
func (p *Parser) FetchAll(ctx context.Context) ([]models.PlayerMarkets, []models.Category, error) {
	start := time.Now()

	players, err := p.client.FetchMarkets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("FetchMarkets: %w", err)
	}
	if len(players) == 0 {
		slog.Warn("HotStreak: выдача search пуста")
	}
	if limit := p.cfg.Pipeline.TestLimit; limit > 0 && len(players) > limit {
		players = players[:limit]
	}
	slog.Info("HotStreak: игроки получены", "players", len(players))

	cats, err := p.client.FetchCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("FetchCategories: %w", err)
	}
	slog.Info("HotStreak: справочник категорий получен",
		"categories", len(cats), "duration", time.Since(start))

	return players, cats, nil
}
