package questions

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/example/trivia-rooms/domain/game"
	"golang.org/x/sync/singleflight"
)

// Outcome is the result code of a GetQuestions call.
type Outcome int

const (
	OutcomeUnreachable   Outcome = -1
	OutcomeOK            Outcome = 0
	OutcomeProviderError Outcome = 1
)

// maxCorrectionDepth caps the NO_RESULTS count-and-retry recursion.
const maxCorrectionDepth = 1

// NumArr splits total questions across n categories as evenly as
// possible, in random slot order. Values differ by at most one.
func NumArr(total, n int) []int {
	if n <= 0 {
		return nil
	}
	base := total / n
	extra := total % n

	nums := make([]int, n)
	for i := range nums {
		nums[i] = base
		if i >= n-extra {
			nums[i]++
		}
	}
	rand.Shuffle(len(nums), func(i, j int) {
		nums[i], nums[j] = nums[j], nums[i]
	})
	return nums
}

// DeckRequest describes the deck a room needs.
type DeckRequest struct {
	Categories []string        `json:"categories"`
	Difficulty game.Difficulty `json:"difficulty"`
	Total      int             `json:"total"`
}

// Source assembles question decks from a ContentSource, resolving
// category names to provider ids. The category list is fetched once and
// served from memory afterwards; a failed fetch is retried on the next
// call.
type Source struct {
	content ContentSource
	group   singleflight.Group

	mu    sync.Mutex
	ids   map[string]int
	names []string
}

// NewSource creates a Source backed by content.
func NewSource(content ContentSource) *Source {
	return &Source{content: content}
}

// Categories returns the provider's category names.
func (s *Source) Categories(ctx context.Context) ([]string, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.names), nil
}

// load fetches the category list unless it is already held. Concurrent
// callers share one provider request.
func (s *Source) load(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.ids != nil
	s.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := s.group.Do("categories", func() (any, error) {
		cats, err := s.content.Categories(ctx)
		if err != nil {
			return nil, err
		}

		ids := make(map[string]int, len(cats))
		names := make([]string, 0, len(cats))
		for _, c := range cats {
			ids[c.Name] = c.ID
			names = append(names, c.Name)
		}
		s.mu.Lock()
		s.ids, s.names = ids, names
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// categoryID resolves name, loading the category list on first use.
func (s *Source) categoryID(ctx context.Context, name string) (int, bool, error) {
	if err := s.load(ctx); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[name]
	return id, ok, nil
}

// GetQuestions fetches up to quantity questions. With restrictCategory
// the query is limited to category; with mcqOnly only multiple-choice
// questions are kept. When the provider has too few questions it is asked
// for the real count and the query is retried once with that amount.
func (s *Source) GetQuestions(ctx context.Context, restrictCategory, mcqOnly bool, category string, difficulty game.Difficulty, quantity int) ([]game.Question, Outcome) {
	return s.getQuestions(ctx, restrictCategory, mcqOnly, category, difficulty, quantity, 0)
}

func (s *Source) getQuestions(ctx context.Context, restrictCategory, mcqOnly bool, category string, difficulty game.Difficulty, quantity, depth int) ([]game.Question, Outcome) {
	if quantity <= 0 {
		return nil, OutcomeOK
	}

	query := QuestionQuery{Amount: quantity, Difficulty: difficulty}
	if restrictCategory {
		id, ok, err := s.categoryID(ctx, category)
		if err != nil {
			log.Printf("[questions] Failed to resolve category %q: %v", category, err)
			return nil, OutcomeUnreachable
		}
		if !ok {
			return nil, OutcomeOK
		}
		query.CategoryID = id
	}
	if mcqOnly {
		query.Type = questionTypeMultiple
	}

	result, err := s.content.Questions(ctx, query)
	if err != nil {
		log.Printf("[questions] Content source unreachable: %v", err)
		return nil, OutcomeUnreachable
	}

	switch result.ResponseCode {
	case ResponseSuccess:
		qs := make([]game.Question, 0, len(result.Results))
		for _, r := range result.Results {
			if mcqOnly && r.Type != questionTypeMultiple {
				continue
			}
			qs = append(qs, r.ToQuestion())
		}
		return qs, OutcomeOK
	case ResponseNoResults:
		// The provider only counts per category by difficulty; its global
		// count has no difficulty split, so an unrestricted query is not
		// corrected.
		if depth >= maxCorrectionDepth || query.CategoryID == 0 {
			return nil, OutcomeOK
		}
		count, err := s.content.CategoryCount(ctx, query.CategoryID)
		if err != nil {
			log.Printf("[questions] Failed to count category %q: %v", category, err)
			return nil, OutcomeUnreachable
		}
		available := min(count.For(difficulty), quantity)
		return s.getQuestions(ctx, restrictCategory, false, category, difficulty, available, depth+1)
	case ResponseInvalidParameter:
		return nil, OutcomeOK
	default:
		return nil, OutcomeProviderError
	}
}

// AssembleDeck builds a shuffled deck: an even split across the
// requested categories, topped up from any category on shortfall. A
// short deck is returned as is; an unreachable provider fails the whole
// assembly.
func (s *Source) AssembleDeck(ctx context.Context, req DeckRequest) ([]game.Question, error) {
	if len(req.Categories) == 0 {
		return nil, game.ErrNoCategories
	}
	if req.Total <= 0 {
		return nil, game.Validationf("deck size must be positive")
	}

	deck := make([]game.Question, 0, req.Total)
	for i, n := range NumArr(req.Total, len(req.Categories)) {
		qs, outcome := s.GetQuestions(ctx, true, true, req.Categories[i], req.Difficulty, n)
		if outcome == OutcomeUnreachable {
			return nil, game.ErrContentUnavailable
		}
		deck = append(deck, qs...)
	}

	if shortfall := req.Total - len(deck); shortfall > 0 {
		qs, outcome := s.GetQuestions(ctx, false, true, "", req.Difficulty, shortfall)
		if outcome == OutcomeUnreachable {
			return nil, game.ErrContentUnavailable
		}
		deck = append(deck, qs...)
	}

	if len(deck) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", game.ErrContentUnavailable)
	}
	if len(deck) > req.Total {
		deck = deck[:req.Total]
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, nil
}
