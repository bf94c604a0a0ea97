package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/lines"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

func newTestExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	base := t.TempDir()
	cfg := &config.ExportConfig{
		BaseDir:   filepath.Join(base, "data"),
		LatestDir: filepath.Join(base, "odd_object"),
	}
	return NewExporter(cfg), base
}

var testTS = time.Date(2026, 8, 26, 12, 30, 45, 0, time.UTC)

func TestSaveRawOdds(t *testing.T) {
	e, _ := newTestExporter(t)

	players := []models.PlayerMarkets{{FirstName: "John", FullName: "John Doe", Markets64: "AAAA"}}
	rows := []lines.CategoryRow{{
		Player: "John Doe",
		Ref:    models.CategoryRef{Raw: "RAW", Decoded: "gid://hs3/Category/42", NumericID: "42"},
	}}

	dir, err := e.SaveRawOdds(players, rows, testTS)
	if err != nil {
		t.Fatalf("SaveRawOdds: %v", err)
	}
	if filepath.Base(dir) != "2026-08-26_12-30-45" {
		t.Errorf("dir = %s, want timestamped name", dir)
	}

	got := readCSV(t, filepath.Join(dir, "odds_markets_raw.csv"))
	if len(got) != 2 || got[0][2] != "markets64" || got[1][1] != "John Doe" {
		t.Errorf("unexpected markets csv: %v", got)
	}

	got = readCSV(t, filepath.Join(dir, "odds_categories_decoded.csv"))
	if len(got) != 2 || got[1][3] != "42" {
		t.Errorf("unexpected refs csv: %v", got)
	}
}

func TestSaveCategoryMapEmptyMetadata(t *testing.T) {
	e, _ := newTestExporter(t)

	mappings := []lines.Mapping{
		{Player: "John Doe", Raw: "RAW", Decoded: "text", NumericID: "42"},
	}
	path, err := e.SaveCategoryMap(mappings, testTS)
	if err != nil {
		t.Fatalf("SaveCategoryMap: %v", err)
	}

	got := readCSV(t, path)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	// Метаданных нет — пустые поля, строка не отброшена.
	if got[1][4] != "" || got[1][5] != "" || got[1][6] != "" {
		t.Errorf("expected empty metadata fields: %v", got[1])
	}
}

func TestSaveFinalLinesAndLatestCopy(t *testing.T) {
	e, base := newTestExporter(t)

	id := "RAW-42"
	market := "player_points"
	odds := 150.0
	in := []models.MarketLine{
		{ID: &id, Market: &market, PlayerName: "John Doe", DecimalOdds: &odds},
		{PlayerName: "Jane Roe"}, // все опциональные поля отсутствуют
	}

	path, err := e.SaveFinalLines(in, testTS)
	if err != nil {
		t.Fatalf("SaveFinalLines: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read final file: %v", err)
	}
	var out []models.MarketLine
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("final file is not JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d lines, want 2", len(out))
	}
	if out[0].ID == nil || *out[0].ID != "RAW-42" {
		t.Errorf("out[0].ID = %v, want RAW-42", out[0].ID)
	}
	if out[1].ID != nil || out[1].Market != nil || out[1].DecimalOdds != nil {
		t.Errorf("out[1] optional fields should be null: %+v", out[1])
	}

	latest := filepath.Join(base, "odd_object", filepath.Base(path))
	latestData, err := os.ReadFile(latest)
	if err != nil {
		t.Fatalf("latest copy missing: %v", err)
	}
	if string(latestData) != string(data) {
		t.Error("latest copy differs from original")
	}
}

func TestSaveFinalLinesEmptyRunIsArray(t *testing.T) {
	e, _ := newTestExporter(t)

	path, err := e.SaveFinalLines(nil, testTS)
	if err != nil {
		t.Fatalf("SaveFinalLines: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read final file: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("empty run file = %q, want []", data)
	}
}

func TestFormatOdds(t *testing.T) {
	if got := FormatOdds(nil); got != "-" {
		t.Errorf("FormatOdds(nil) = %q, want -", got)
	}
	v := 14.29
	if got := FormatOdds(&v); got != "14.29" {
		t.Errorf("FormatOdds(14.29) = %q", got)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
