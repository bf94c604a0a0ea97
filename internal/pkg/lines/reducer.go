// Package lines собирает декодированные окна блобов в итоговую таблицу линий:
// join с метаданными категорий и приведение к выходной схеме.
package lines

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Vodeneev/hotstreakline/internal/pkg/marketblob"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// CategoryRow — вхождение категории у конкретного игрока (строка
// odds_categories_decoded).
type CategoryRow struct {
	Player string
	Ref    models.CategoryRef
}

// Mapping — строка карты игрок→категория после join с метаданными
// (player_category_map). Category == nil, если метаданные не нашлись.
type Mapping struct {
	Player    string
	Raw       string
	Decoded   string
	NumericID string
	Category  *models.Category
}

// ExtractAllRefs собирает вхождения категорий по всем игрокам в порядке входа.
func ExtractAllRefs(players []models.PlayerMarkets) []CategoryRow {
	var rows []CategoryRow
	for _, p := range players {
		if p.Markets64 == "" {
			continue
		}
		for _, ref := range marketblob.ExtractCategoryRefs(p.Markets64) {
			rows = append(rows, CategoryRow{Player: p.FullName, Ref: ref})
		}
	}
	return rows
}

// Combine выполняет left join вхождений категорий с метаданными по сырому gid.
// Строки без метаданных сохраняются с Category == nil.
func Combine(rows []CategoryRow, cats []models.Category) []Mapping {
	byRaw := make(map[string]*models.Category, len(cats))
	for i := range cats {
		byRaw[cats[i].ID] = &cats[i]
	}

	mappings := make([]Mapping, 0, len(rows))
	for _, row := range rows {
		mappings = append(mappings, Mapping{
			Player:    row.Player,
			Raw:       row.Ref.Raw,
			Decoded:   row.Ref.Decoded,
			NumericID: row.Ref.NumericID,
			Category:  byRaw[row.Ref.Raw],
		})
	}
	return mappings
}

// NormalizeID приводит идентификатор категории к канонической строковой форме:
// числовой "042" и текстовый "42" должны сравниваться равными.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return id
}

// metaIndex — метаданные категорий игрока по нормализованному числовому id.
type metaIndex map[string]map[string]*models.Category

func buildMetaIndex(mappings []Mapping) metaIndex {
	idx := make(metaIndex)
	for i := range mappings {
		m := &mappings[i]
		if m.Category == nil || m.NumericID == "" {
			continue
		}
		byID := idx[m.Player]
		if byID == nil {
			byID = make(map[string]*models.Category)
			idx[m.Player] = byID
		}
		byID[NormalizeID(m.NumericID)] = m.Category
	}
	return idx
}

// Reducer декодирует блобы игроков и строит итоговые записи.
type Reducer struct {
	workers int
}

func NewReducer(workers int) *Reducer {
	if workers < 1 {
		workers = 1
	}
	return &Reducer{workers: workers}
}

// Reduce декодирует markets64 каждого игрока и выдаёт по одной записи на окно,
// с метаданными категории по нормализованному числовому id (left join: записи
// без метаданных не отбрасываются). Порядок выхода следует порядку игроков на
// входе, внутри игрока — порядку маркеров в блобе. Сбой декодирования одного
// игрока не прерывает остальных.
func (r *Reducer) Reduce(players []models.PlayerMarkets, mappings []Mapping) ([]models.MarketLine, int) {
	idx := buildMetaIndex(mappings)

	decoded := make([][]marketblob.Record, len(players))
	if r.workers <= 1 {
		for i, p := range players {
			decoded[i] = marketblob.Decode(p.Markets64)
		}
	} else {
		r.decodeParallel(players, decoded)
	}

	var out []models.MarketLine
	skipped := 0
	for i, p := range players {
		records := decoded[i]
		if len(records) == 0 {
			slog.Info("HotStreak: нет декодируемых данных", "player", p.FullName)
			skipped++
			continue
		}
		for _, rec := range records {
			var meta *models.Category
			if rec.CategoryID != "" {
				meta = idx[p.FullName][NormalizeID(rec.CategoryID)]
			}
			out = append(out, ShapeRecord(p.FullName, rec, meta))
		}
	}
	return out, skipped
}

// decodeParallel раскладывает игроков по воркерам; результаты пишутся в слоты
// по индексу игрока, так что порядок выхода детерминирован.
func (r *Reducer) decodeParallel(players []models.PlayerMarkets, decoded [][]marketblob.Record) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				decoded[i] = marketblob.Decode(players[i].Markets64)
			}
		}()
	}
	for i := range players {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}
