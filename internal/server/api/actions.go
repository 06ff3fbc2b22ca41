package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/gesture"
)

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Keys        []string `json:"keys"`
	Modes       []string `json:"modes"`
}

// Suggestions handles GET /api/actions/suggestions. It lists the action
// strings offered by the settings editor, along with the gesture keys and
// modes they can be assigned to.
func Suggestions(w http.ResponseWriter, r *http.Request) {
	keys := make([]string, 0, gesture.NumKeys)
	for k := gesture.Key(0); k < gesture.NumKeys; k++ {
		keys = append(keys, k.String())
	}

	writeJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions: action.Suggestions,
		Keys:        keys,
		Modes:       []string{action.Hold.String(), action.Repeat.String()},
	})
}
