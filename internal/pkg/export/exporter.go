// Package export пишет артефакты прогона в таймстампированные каталоги:
// сырые markets64 и вхождения категорий, справочник категорий, карту
// игрок→категория и итоговый файл линий.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/lines"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

const tsLayout = "2006-01-02_15-04-05"

type Exporter struct {
	baseDir   string
	latestDir string
}

func NewExporter(cfg *config.ExportConfig) *Exporter {
	return &Exporter{
		baseDir:   cfg.BaseDir,
		latestDir: cfg.LatestDir,
	}
}

// SaveRawOdds сохраняет сырую выдачу search и вхождения категорий в
// <base>/raw/odds/<ts>/. Возвращает путь каталога.
func (e *Exporter) SaveRawOdds(players []models.PlayerMarkets, rows []lines.CategoryRow, ts time.Time) (string, error) {
	dir := filepath.Join(e.baseDir, "raw", "odds", ts.Format(tsLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create odds dir: %w", err)
	}

	marketRows := [][]string{{"firstName", "fullName", "markets64"}}
	for _, p := range players {
		marketRows = append(marketRows, []string{p.FirstName, p.FullName, p.Markets64})
	}
	if err := writeCSV(filepath.Join(dir, "odds_markets_raw.csv"), marketRows); err != nil {
		return "", err
	}

	refRows := [][]string{{"fullName", "raw", "decoded", "numeric_id"}}
	for _, row := range rows {
		refRows = append(refRows, []string{row.Player, row.Ref.Raw, row.Ref.Decoded, row.Ref.NumericID})
	}
	if err := writeCSV(filepath.Join(dir, "odds_categories_decoded.csv"), refRows); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveCategories сохраняет справочник категорий в
// <base>/raw/category_names/<ts>/category_names_raw.csv.
func (e *Exporter) SaveCategories(cats []models.Category, ts time.Time) (string, error) {
	dir := filepath.Join(e.baseDir, "raw", "category_names", ts.Format(tsLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create category dir: %w", err)
	}

	rows := [][]string{{"category_id", "category_name", "group", "sport"}}
	for _, c := range cats {
		rows = append(rows, []string{c.ID, c.Name, c.Group, c.Sport})
	}
	path := filepath.Join(dir, "category_names_raw.csv")
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// SaveCategoryMap сохраняет карту игрок→категория в
// <base>/processed/player_category_map_<ts>.csv.
func (e *Exporter) SaveCategoryMap(mappings []lines.Mapping, ts time.Time) (string, error) {
	dir := filepath.Join(e.baseDir, "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create processed dir: %w", err)
	}

	rows := [][]string{{"fullName", "raw", "decoded", "numeric_id", "category_name", "group", "sport"}}
	for _, m := range mappings {
		name, group, sport := "", "", ""
		if m.Category != nil {
			name, group, sport = m.Category.Name, m.Category.Group, m.Category.Sport
		}
		rows = append(rows, []string{m.Player, m.Raw, m.Decoded, m.NumericID, name, group, sport})
	}
	path := filepath.Join(dir, fmt.Sprintf("player_category_map_%s.csv", ts.Format(tsLayout)))
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFinalLines пишет итоговые записи в
// <base>/odd_object/player_lines_final_<ts>.json и копирует файл в
// стабильный каталог последней выгрузки.
func (e *Exporter) SaveFinalLines(marketLines []models.MarketLine, ts time.Time) (string, error) {
	dir := filepath.Join(e.baseDir, "odd_object")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("player_lines_final_%s.json", ts.Format(tsLayout)))
	if marketLines == nil {
		// Пустой прогон всё равно отдаёт JSON-массив, не null.
		marketLines = []models.MarketLine{}
	}
	data, err := json.MarshalIndent(marketLines, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lines: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write lines file: %w", err)
	}

	if err := e.copyToLatest(path); err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) copyToLatest(path string) error {
	if err := os.MkdirAll(e.latestDir, 0o755); err != nil {
		return fmt.Errorf("failed to create latest dir: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open final file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(e.latestDir, filepath.Base(path)))
	if err != nil {
		return fmt.Errorf("failed to create latest copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy final file: %w", err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FormatOdds — текстовое представление decimal_odds для логов и сводок.
func FormatOdds(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
