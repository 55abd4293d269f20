package matcher

import (
	"testing"
	"time"

	"github.com/whatsdesk/console/internal/model"
)

func response(id string, createdAt time.Time, text string, keywords ...string) model.PredefinedResponse {
	return model.PredefinedResponse{
		ID:           id,
		Keywords:     keywords,
		ResponseText: text,
		IsActive:     true,
		CreatedAt:    createdAt,
	}
}

func TestMatchSubstring(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	responses := []model.PredefinedResponse{
		response("r1", base, "¡Hola! ¿En qué podemos ayudarte?", "hola", "buenas"),
	}

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"exact keyword", "hola", true},
		{"keyword inside sentence", "Hola, buenas tardes", true},
		{"case insensitive", "HOLA", true},
		{"substring of larger word", "extrahola", true},
		{"no match", "necesito el catálogo", false},
		{"empty text", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Match(tc.text, responses)
			if (got != nil) != tc.want {
				t.Fatalf("Match(%q) matched=%v, want %v", tc.text, got != nil, tc.want)
			}
		})
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	if got := Match("hola", nil); got != nil {
		t.Fatalf("expected nil for empty candidate set, got %v", got)
	}
}

func TestMatchTieBreakByCreatedAt(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// Both match "precio"; the older response must win regardless of slice order.
	newer := response("r-newer", base.Add(time.Hour), "newer", "precio")
	older := response("r-older", base, "older", "precios", "precio")

	got := Match("¿cuál es el precio?", []model.PredefinedResponse{newer, older})
	if got == nil || got.ID != "r-older" {
		t.Fatalf("expected r-older to win the tie, got %+v", got)
	}
}

func TestMatchDeterministic(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	responses := []model.PredefinedResponse{
		response("a", base, "a", "envío"),
		response("b", base, "b", "envíos", "envío"),
	}

	first := Match("consulta sobre envío", responses)
	for i := 0; i < 50; i++ {
		got := Match("consulta sobre envío", responses)
		if got == nil || got.ID != first.ID {
			t.Fatalf("run %d returned %v, first run returned %v", i, got, first)
		}
	}
}
