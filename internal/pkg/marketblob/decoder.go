// Package marketblob decodes HotStreak markets64 blobs.
//
// Блоб — это base64-строка, внутри которой (иногда после zlib-сжатия) лежит
// нетипизированный байтовый поток. Схема не опубликована; декодер воспроизводит
// наблюдаемое поведение: сегментация по маркерам категорий и выборка
// little-endian float32 значений внутри каждого сегмента.
package marketblob

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zlib"
)

// markerPrefix — base64 от "gid://hs3/Category/": фиксированный префикс маркера
// категории внутри сырого буфера.
const markerPrefix = "Z2lkOi8vaHMzL0NhdGVnb3J5Lz"

// InvalidPayload подставляется вместо декодированного текста маркера,
// если его base64-payload не разбирается даже после починки паддинга.
const InvalidPayload = "(invalid)"

const (
	minAbsValue    = 0.3
	maxAbsValue    = 400.0
	topCount       = 3
	rescaleDivisor = 3.5
)

var (
	markerRe     = regexp.MustCompile(markerPrefix + `[A-Za-z0-9+/=]+`)
	categoryIDRe = regexp.MustCompile(`/Category/(\d+)`)
)

// Record — результат декодирования одного окна (от маркера до следующего).
type Record struct {
	RawMarker  string    // matched marker text
	Decoded    string    // decoded marker payload, or "(invalid)"
	CategoryID string    // digits of the trailing /Category/<n>, "" if not recoverable
	TopValues  []float64 // top candidates after rescale, descending pre-rescale order
	FinalLine  *float64  // mean of TopValues rounded to 2 decimals, nil if none kept
}

// MarkerOccurrence — вхождение маркера в сыром буфере.
type MarkerOccurrence struct {
	Offset int
	Marker []byte
}

// Decode разбирает один markets64-блоб в набор записей, по одной на окно.
// Ошибки не покидают границу сущности: любой сбой даёт пустой результат.
// Функция чистая — одинаковый вход всегда даёт одинаковый выход.
func Decode(encoded string) []Record {
	if encoded == "" {
		return nil
	}
	buf, err := Unwrap(encoded)
	if err != nil {
		return nil
	}
	occs := ScanMarkers(buf)
	if len(occs) == 0 {
		return nil
	}

	records := make([]Record, 0, len(occs))
	for i, occ := range occs {
		end := len(buf)
		if i+1 < len(occs) {
			end = occs[i+1].Offset
		}
		records = append(records, decodeWindow(buf[occ.Offset:end], occ.Marker))
	}
	return records
}

// Unwrap снимает внешние слои: base64, затем zlib. Внешний слой обязателен,
// сжатие — нет: если zlib-поток не разбирается, байты считаются уже сырыми.
func Unwrap(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw, nil
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		// Заголовок совпал случайно, поток битый — трактуем как несжатый.
		return raw, nil
	}
	return plain, nil
}

// ScanMarkers находит все вхождения маркера категории в порядке возрастания
// смещений. Совпадения жадные и не перекрываются.
func ScanMarkers(buf []byte) []MarkerOccurrence {
	locs := markerRe.FindAllIndex(buf, -1)
	if len(locs) == 0 {
		return nil
	}
	occs := make([]MarkerOccurrence, 0, len(locs))
	for _, lc := range locs {
		occs = append(occs, MarkerOccurrence{Offset: lc[0], Marker: buf[lc[0]:lc[1]]})
	}
	return occs
}

// Windows режет буфер на окна: окно i идёт от маркера i до маркера i+1
// (последнее — до конца буфера). Окна не перекрываются и не пропускают байты.
func Windows(buf []byte, occs []MarkerOccurrence) [][]byte {
	windows := make([][]byte, 0, len(occs))
	for i, occ := range occs {
		end := len(buf)
		if i+1 < len(occs) {
			end = occs[i+1].Offset
		}
		windows = append(windows, buf[occ.Offset:end])
	}
	return windows
}

func decodeWindow(window, markerBytes []byte) Record {
	marker := string(markerBytes)
	decoded, categoryID := DecodeMarkerPayload(marker)
	top := Normalize(ScanFloats(window))

	rec := Record{
		RawMarker:  marker,
		Decoded:    decoded,
		CategoryID: categoryID,
		TopValues:  top,
	}
	if len(top) > 0 {
		m := round2(mean(top))
		rec.FinalLine = &m
	}
	return rec
}

// DecodeMarkerPayload декодирует payload маркера как base64-текст, при
// необходимости дополняя '=' до кратной четырём длины. Сбой декодирования
// не фатален: текст становится "(invalid)", числовой id — пустым.
func DecodeMarkerPayload(marker string) (decoded string, categoryID string) {
	padded := marker + strings.Repeat("=", (4-len(marker)%4)%4)
	b, err := base64.StdEncoding.DecodeString(padded)
	if err != nil {
		return InvalidPayload, ""
	}
	decoded = string(b)
	if m := categoryIDRe.FindStringSubmatch(decoded); m != nil {
		categoryID = m[1]
	}
	return decoded, categoryID
}

// ScanFloats читает окно по выровненным 4-байтовым шагам от его начала и
// интерпретирует каждую четвёрку как little-endian IEEE-754 float32.
// Значение сохраняется, только если 0.3 <= |v| <= 400 (NaN/Inf отсекаются
// сравнением), с округлением до двух знаков. Порядок — порядок сканирования.
//
// Хвостовые байты окна (включая последнее выровненное слово) не читаются:
// граница j+4 < len унаследована от эталонного поведения и менять её нельзя.
func ScanFloats(window []byte) []float64 {
	var vals []float64
	for j := 0; j+4 < len(window); j += 4 {
		bits := binary.LittleEndian.Uint32(window[j : j+4])
		v := float64(math.Float32frombits(bits))
		av := math.Abs(v)
		if !(av >= minAbsValue && av <= maxAbsValue) {
			continue
		}
		vals = append(vals, round2(v))
	}
	return vals
}

// Normalize сортирует кандидатов по убыванию (по знаковому значению), берёт
// первые три и пересчитывает значения из диапазона [10, 100] делением на 3.5 —
// компенсация наблюдаемого артефакта кодирования. Повторная сортировка после
// пересчёта не делается, как в эталоне.
func Normalize(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	top := make([]float64, len(vals))
	copy(top, vals)
	sort.Sort(sort.Reverse(sort.Float64Slice(top)))
	if len(top) > topCount {
		top = top[:topCount]
	}
	for i, v := range top {
		if v >= 10 && v <= 100 {
			top[i] = round2(v / rescaleDivisor)
		}
	}
	return top
}

// Digest — стабильный хеш закодированного блоба, используется для дедупликации
// между прогонами.
func Digest(encoded string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(encoded))
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// round2 округляет до двух знаков; середины — к чётному (2.625 → 2.62).
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
