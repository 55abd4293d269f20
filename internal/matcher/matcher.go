// Package matcher selects the predefined response triggered by a message.
package matcher

import (
	"sort"
	"strings"

	"github.com/whatsdesk/console/internal/model"
)

// Match returns the first response whose keywords appear in text, or nil when
// nothing matches. Matching is case-insensitive substring containment, so the
// keyword "hola" also triggers on "extrahola". Callers pass the already
// filtered active set; Match does not re-check IsActive.
//
// Candidates are evaluated in CreatedAt order (ID as a final tie-break) so
// repeated calls with the same inputs always pick the same response.
func Match(text string, responses []model.PredefinedResponse) *model.PredefinedResponse {
	if text == "" || len(responses) == 0 {
		return nil
	}

	candidates := make([]model.PredefinedResponse, len(responses))
	copy(candidates, responses)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	lower := strings.ToLower(text)
	for i := range candidates {
		for _, keyword := range candidates[i].Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return &candidates[i]
			}
		}
	}
	return nil
}
