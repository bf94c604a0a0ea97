package models

// PlayerMarkets — игрок с сырой markets64-строкой из search-запроса.
type PlayerMarkets struct {
	FirstName string `json:"firstName"`
	FullName  string `json:"fullName"`
	Markets64 string `json:"markets64"`
}

// Category — метаданные категории из system-запроса.
// ID — сырой gid (base64 от "gid://hs3/Category/<n>"), NumericID — восстановленный
// числовой идентификатор, по нему идёт join с декодированными записями.
type Category struct {
	ID        string `json:"category_id"`
	NumericID string `json:"numeric_id"`
	Name      string `json:"category_name"`
	Group     string `json:"group"`
	Sport     string `json:"sport"`
}

// CategoryRef — одно уникальное вхождение маркера категории внутри блоба.
type CategoryRef struct {
	Raw       string `json:"raw"`        // Matched marker text as found in the buffer
	Decoded   string `json:"decoded"`    // Base64-decoded payload, or "(invalid)"
	NumericID string `json:"numeric_id"` // Digits of the trailing /Category/<n>, "" if absent
}

// MarketLine — итоговая запись в выгрузке (player_lines_final).
// Указатели моделируют отсутствующие значения (null в JSON).
type MarketLine struct {
	ID          *string  `json:"id"`
	Market      *string  `json:"market"`
	PlayerName  string   `json:"player_name"`
	DecimalOdds *float64 `json:"decimal_odds"`
}

// RunSummary — сводка одного прогона пайплайна, отдаётся health-эндпоинтом
// и в telegram-уведомлении.
type RunSummary struct {
	StartedAt      string `json:"started_at"`
	DurationMS     int64  `json:"duration_ms"`
	Players        int    `json:"players"`
	PlayersSkipped int    `json:"players_skipped"` // players with no decodable data
	BlobsUnchanged int    `json:"blobs_unchanged"` // blob digest matched the previous run
	Categories     int    `json:"categories"`
	Lines          int    `json:"lines"`
	ExportPath     string `json:"export_path"`
}
