package questions

import "github.com/example/trivia-rooms/domain/game"

// Service names.
const (
	ServiceListCategories = "list-categories"
	ServiceAssembleDeck   = "assemble-deck"
)

// ListCategoriesRequest asks for the provider's category names.
type ListCategoriesRequest struct{}

// ListCategoriesResponse carries category names or an error.
type ListCategoriesResponse struct {
	Categories []string `json:"categories"`
	Code       string   `json:"code,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// AssembleDeckRequest asks for a deck for a room.
type AssembleDeckRequest = DeckRequest

// AssembleDeckResponse carries an assembled deck or an error.
type AssembleDeckResponse struct {
	Questions []game.Question `json:"questions"`
	Code      string          `json:"code,omitempty"`
	Error     string          `json:"error,omitempty"`
}
