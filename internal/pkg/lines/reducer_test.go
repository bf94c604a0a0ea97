package lines

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
)

// base64("gid://hs3/Category/42") и base64("gid://hs3/Category/7").
const (
	marker42 = "Z2lkOi8vaHMzL0NhdGVnb3J5LzQy"
	marker7  = "Z2lkOi8vaHMzL0NhdGVnb3J5Lzc"
)

func buildEncodedBlob(marker string, vals ...float32) string {
	var buf bytes.Buffer
	buf.WriteString(marker)
	for _, v := range vals {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	buf.Write([]byte{0, 0, 0, 0})
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"042", "42"},
		{" 42 ", "42"},
		{"", ""},
		{"not-a-number", "not-a-number"},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapMarket(t *testing.T) {
	tests := []struct {
		name  string
		group string
		want  string // "" означает nil
	}{
		{"Player Points", "", "player_points"},
		{"Fantasy Pts", "", "player_points"},
		{"Anything", "Points Group", "player_points"},
		{"Team Total", "", "team_total"},
		{"Over 2.5 Goals", "", "team_total"},
		{"Under 1.5", "", "team_total"},
		{"Moneyline", "", "moneyline"},
		{"Money Line", "", "moneyline"},
		// "points" имеет приоритет над "total".
		{"Total Points", "", "player_points"},
		// Fallback: lower case, пробелы -> подчёркивания.
		{"First Touchdown Scorer", "", "first_touchdown_scorer"},
		{"", "Whatever", ""},
	}
	for _, tt := range tests {
		got := MapMarket(tt.name, tt.group)
		if tt.want == "" {
			if got != nil {
				t.Errorf("MapMarket(%q, %q) = %q, want nil", tt.name, tt.group, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("MapMarket(%q, %q) = %v, want %q", tt.name, tt.group, got, tt.want)
		}
	}
}

func TestBuildID(t *testing.T) {
	tests := []struct {
		raw  string
		nid  string
		want string // "" означает nil
	}{
		{"RAW", "42", "RAW-42"},
		{"RAW", "", "RAW"},
		{"", "42", "42"},
		{"", "", ""},
		{"  ", " ", ""},
	}
	for _, tt := range tests {
		got := BuildID(tt.raw, tt.nid)
		if tt.want == "" {
			if got != nil {
				t.Errorf("BuildID(%q, %q) = %q, want nil", tt.raw, tt.nid, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("BuildID(%q, %q) = %v, want %q", tt.raw, tt.nid, got, tt.want)
		}
	}
}

func TestPickDecimalOdds(t *testing.T) {
	final := 56.43
	if got := PickDecimalOdds([]float64{150.0, 14.29}, &final); got == nil || *got != 150.0 {
		t.Errorf("PickDecimalOdds(top, final) = %v, want 150.0", got)
	}
	if got := PickDecimalOdds(nil, &final); got == nil || *got != 56.43 {
		t.Errorf("PickDecimalOdds(nil, final) = %v, want 56.43", got)
	}
	if got := PickDecimalOdds(nil, nil); got != nil {
		t.Errorf("PickDecimalOdds(nil, nil) = %v, want nil", got)
	}
}

func TestCombineLeftJoin(t *testing.T) {
	rows := []CategoryRow{
		{Player: "John Doe", Ref: models.CategoryRef{Raw: marker42, Decoded: "gid://hs3/Category/42", NumericID: "42"}},
		{Player: "John Doe", Ref: models.CategoryRef{Raw: marker7, Decoded: "gid://hs3/Category/7", NumericID: "7"}},
	}
	cats := []models.Category{
		{ID: marker42, NumericID: "42", Name: "Player Points", Group: "Scoring", Sport: "Football"},
	}

	mappings := Combine(rows, cats)
	if len(mappings) != 2 {
		t.Fatalf("Combine returned %d mappings, want 2", len(mappings))
	}
	if mappings[0].Category == nil || mappings[0].Category.Name != "Player Points" {
		t.Errorf("mapping for %s did not join metadata: %+v", marker42, mappings[0])
	}
	// Left join: строка без метаданных сохраняется.
	if mappings[1].Category != nil {
		t.Errorf("mapping for %s unexpectedly joined metadata: %+v", marker7, mappings[1])
	}
}

func TestReduceJoinsAndShapes(t *testing.T) {
	players := []models.PlayerMarkets{
		{FullName: "John Doe", Markets64: buildEncodedBlob(marker42, 5.0, 50.0, 150.0)},
		{FullName: "No Data", Markets64: "%%%bad-base64%%%"},
		{FullName: "Jane Roe", Markets64: buildEncodedBlob(marker42, 2.5)},
	}
	// Метаданные с id "042": должен сравняться с "42" после нормализации.
	mappings := []Mapping{
		{Player: "John Doe", Raw: marker42, NumericID: "042",
			Category: &models.Category{ID: marker42, NumericID: "042", Name: "Player Points", Group: "Scoring", Sport: "Football"}},
	}

	out, skipped := NewReducer(1).Reduce(players, mappings)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(out) != 2 {
		t.Fatalf("Reduce returned %d lines, want 2", len(out))
	}

	john := out[0]
	if john.PlayerName != "John Doe" {
		t.Errorf("out[0].PlayerName = %q, want John Doe", john.PlayerName)
	}
	if john.Market == nil || *john.Market != "player_points" {
		t.Errorf("out[0].Market = %v, want player_points", john.Market)
	}
	if john.ID == nil || *john.ID != marker42+"-42" {
		t.Errorf("out[0].ID = %v, want %q", john.ID, marker42+"-42")
	}
	if john.DecimalOdds == nil || *john.DecimalOdds != 150.0 {
		t.Errorf("out[0].DecimalOdds = %v, want 150.0", john.DecimalOdds)
	}

	// Запись без метаданных не отбрасывается, market отсутствует.
	jane := out[1]
	if jane.PlayerName != "Jane Roe" {
		t.Errorf("out[1].PlayerName = %q, want Jane Roe", jane.PlayerName)
	}
	if jane.Market != nil {
		t.Errorf("out[1].Market = %v, want nil", jane.Market)
	}
	if jane.DecimalOdds == nil || *jane.DecimalOdds != 2.5 {
		t.Errorf("out[1].DecimalOdds = %v, want 2.5", jane.DecimalOdds)
	}
}

func TestReduceParallelMatchesSequential(t *testing.T) {
	players := make([]models.PlayerMarkets, 0, 8)
	for i := 0; i < 8; i++ {
		m := marker42
		if i%2 == 1 {
			m = marker7
		}
		players = append(players, models.PlayerMarkets{
			FullName:  "Player " + string(rune('A'+i)),
			Markets64: buildEncodedBlob(m, 5.0, 50.0, 150.0),
		})
	}

	seq, seqSkipped := NewReducer(1).Reduce(players, nil)
	par, parSkipped := NewReducer(4).Reduce(players, nil)

	if seqSkipped != parSkipped {
		t.Errorf("skipped mismatch: seq=%d par=%d", seqSkipped, parSkipped)
	}
	if len(seq) != len(par) {
		t.Fatalf("len mismatch: seq=%d par=%d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].PlayerName != par[i].PlayerName {
			t.Errorf("order mismatch at %d: seq=%q par=%q", i, seq[i].PlayerName, par[i].PlayerName)
		}
	}
}

func TestExtractAllRefsSkipsEmptyBlobs(t *testing.T) {
	players := []models.PlayerMarkets{
		{FullName: "John Doe", Markets64: buildEncodedBlob(marker42, 150.0)},
		{FullName: "Empty", Markets64: ""},
	}
	rows := ExtractAllRefs(players)
	if len(rows) != 1 {
		t.Fatalf("ExtractAllRefs returned %d rows, want 1", len(rows))
	}
	if rows[0].Player != "John Doe" || rows[0].Ref.NumericID != "42" {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}
