package questions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/trivia-rooms/domain/game"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// QuestionsPort is how other modules reach the question source.
type QuestionsPort interface {
	ListCategories(ctx context.Context) ([]string, error)
	AssembleDeck(ctx context.Context, req DeckRequest) ([]game.Question, error)
}

// QuestionsAdapter implements QuestionsPort using the service container.
type QuestionsAdapter struct {
	container mono.ServiceContainer
}

// NewQuestionsAdapter creates a new QuestionsAdapter.
func NewQuestionsAdapter(container mono.ServiceContainer) QuestionsPort {
	if container == nil {
		panic("questions: ServiceContainer is nil")
	}
	return &QuestionsAdapter{container: container}
}

// ListCategories returns the provider's category names.
func (a *QuestionsAdapter) ListCategories(ctx context.Context) ([]string, error) {
	req := ListCategoriesRequest{}
	var resp ListCategoriesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListCategories,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrContentUnavailable, err)
	}
	if resp.Code != "" {
		return nil, game.ErrorFromCode(resp.Code, resp.Error)
	}
	return resp.Categories, nil
}

// AssembleDeck asks the question source for a room deck.
func (a *QuestionsAdapter) AssembleDeck(ctx context.Context, req DeckRequest) ([]game.Question, error) {
	var resp AssembleDeckResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAssembleDeck,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrContentUnavailable, err)
	}
	if resp.Code != "" {
		return nil, game.ErrorFromCode(resp.Code, resp.Error)
	}
	return resp.Questions, nil
}
