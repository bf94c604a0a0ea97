package lines

import (
	"strings"

	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// ShapeRecord приводит декодированное окно к выходной схеме
// {id, market, player_name, decimal_odds}.
func ShapeRecord(player string, rec marketblob.Record, meta *models.Category) models.MarketLine {
	line := models.MarketLine{
		PlayerName:  player,
		ID:          BuildID(rec.RawMarker, rec.CategoryID),
		DecimalOdds: PickDecimalOdds(rec.TopValues, rec.FinalLine),
	}
	if meta != nil {
		line.Market = MapMarket(meta.Name, meta.Group)
	}
	return line
}

// BuildID склеивает raw-маркер и числовой id через дефис; если одной части
// нет — берётся оставшаяся, если нет обеих — id отсутствует.
func BuildID(raw, numericID string) *string {
	raw = strings.TrimSpace(raw)
	numericID = strings.TrimSpace(numericID)
	switch {
	case raw != "" && numericID != "":
		id := raw + "-" + numericID
		return &id
	case raw != "":
		return &raw
	case numericID != "":
		return &numericID
	default:
		return nil
	}
}

// MapMarket сводит название и группу категории к каноническому типу рынка.
// Порядок проверок фиксирован — это контракт, а не эвристика для донастройки.
func MapMarket(categoryName, groupName string) *string {
	if categoryName == "" {
		return nil
	}
	cn := strings.ToLower(categoryName)
	gn := strings.ToLower(groupName)

	var market string
	switch {
	case strings.Contains(cn, "points") || strings.Contains(cn, "pts") || strings.Contains(gn, "points"):
		market = "player_points"
	case strings.Contains(cn, "total") || strings.Contains(cn, "over") || strings.Contains(cn, "under") || strings.Contains(gn, "total"):
		market = "team_total"
	case strings.Contains(cn, "money") || strings.Contains(cn, "moneyline") || strings.Contains(cn, "ml"):
		market = "moneyline"
	default:
		market = strings.ReplaceAll(cn, " ", "_")
	}
	return &market
}

// PickDecimalOdds выбирает представительное значение: первый элемент
// topValues, иначе finalLine, иначе отсутствует.
func PickDecimalOdds(topValues []float64, finalLine *float64) *float64 {
	if len(topValues) > 0 {
		v := topValues[0]
		return &v
	}
	if finalLine != nil {
		v := *finalLine
		return &v
	}
	return nil
}
