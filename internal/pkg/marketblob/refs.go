package marketblob

import (
	"sort"

	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// ExtractCategoryRefs возвращает уникальные маркеры категорий из блоба с их
// декодированным текстом и числовым id, отсортированные по raw-строке.
// Используется на этапе построения карты игрок→категории; в отличие от
// Decode, дубликаты здесь схлопываются.
func ExtractCategoryRefs(encoded string) []models.CategoryRef {
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

	seen := make(map[string]struct{}, len(occs))
	raws := make([]string, 0, len(occs))
	for _, occ := range occs {
		raw := string(occ.Marker)
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	refs := make([]models.CategoryRef, 0, len(raws))
	for _, raw := range raws {
		decoded, numericID := DecodeMarkerPayload(raw)
		refs = append(refs, models.CategoryRef{
			Raw:       raw,
			Decoded:   decoded,
			NumericID: numericID,
		})
	}
	return refs
}
