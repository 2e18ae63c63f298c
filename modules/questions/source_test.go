package questions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/example/trivia-rooms/domain/game"
)

// fakeContent is a scripted ContentSource.
type fakeContent struct {
	mu         sync.Mutex
	categories []Category
	catErr     error
	counts     map[int]CategoryCount
	countErr   error
	questions  func(q QuestionQuery) (QuestionsResult, error)
	queries    []QuestionQuery
	countCalls int
	catCalls   int
}

func (f *fakeContent) Categories(_ context.Context) ([]Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catCalls++
	return f.categories, f.catErr
}

func (f *fakeContent) CategoryCount(_ context.Context, id int) (CategoryCount, error) {
	f.mu.Lock()
	f.countCalls++
	f.mu.Unlock()
	return f.counts[id], f.countErr
}

func (f *fakeContent) Questions(_ context.Context, q QuestionQuery) (QuestionsResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.questions(q)
}

func mcq(n int, prefix string) []ProviderQuestion {
	qs := make([]ProviderQuestion, n)
	for i := range qs {
		qs[i] = ProviderQuestion{
			Type:             questionTypeMultiple,
			Difficulty:       "easy",
			Question:         fmt.Sprintf("%s-%d", prefix, i),
			CorrectAnswer:    "yes",
			IncorrectAnswers: []string{"a", "b", "c"},
		}
	}
	return qs
}

func testCategories() []Category {
	return []Category{
		{ID: 9, Name: "General Knowledge"},
		{ID: 17, Name: "Science & Nature"},
		{ID: 23, Name: "History"},
	}
}

func TestNumArr(t *testing.T) {
	for total := 1; total <= 20; total++ {
		for n := 1; n <= total; n++ {
			nums := NumArr(total, n)
			if len(nums) != n {
				t.Fatalf("NumArr(%d, %d) len = %d", total, n, len(nums))
			}
			sum, lo, hi := 0, nums[0], nums[0]
			for _, v := range nums {
				if v <= 0 {
					t.Fatalf("NumArr(%d, %d) has non-positive slot: %v", total, n, nums)
				}
				sum += v
				lo, hi = min(lo, v), max(hi, v)
			}
			if sum != total {
				t.Errorf("NumArr(%d, %d) sum = %d", total, n, sum)
			}
			if hi-lo > 1 {
				t.Errorf("NumArr(%d, %d) = %v, spread > 1", total, n, nums)
			}
		}
	}
	if NumArr(5, 0) != nil {
		t.Error("NumArr with zero categories should be nil")
	}
}

func TestSource_GetQuestions(t *testing.T) {
	tests := []struct {
		name        string
		questions   func(q QuestionQuery) (QuestionsResult, error)
		counts      map[int]CategoryCount
		countErr    error
		mcqOnly     bool
		wantLen     int
		wantOutcome Outcome
		wantQueries int
	}{
		{
			name: "success filters to multiple choice",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				results := append(mcq(2, "m"), ProviderQuestion{Type: "boolean", Question: "tf", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}})
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: results}, nil
			},
			mcqOnly:     true,
			wantLen:     2,
			wantOutcome: OutcomeOK,
			wantQueries: 1,
		},
		{
			name: "no results retries with the real count",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				if q.Amount > 3 {
					return QuestionsResult{ResponseCode: ResponseNoResults}, nil
				}
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(q.Amount, "r")}, nil
			},
			counts:      map[int]CategoryCount{17: {Total: 40, Easy: 3}},
			mcqOnly:     true,
			wantLen:     3,
			wantOutcome: OutcomeOK,
			wantQueries: 2,
		},
		{
			name: "no results recursion is capped",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseNoResults}, nil
			},
			counts:      map[int]CategoryCount{17: {Easy: 2}},
			mcqOnly:     true,
			wantLen:     0,
			wantOutcome: OutcomeOK,
			wantQueries: 2,
		},
		{
			name: "count failure is unreachable",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseNoResults}, nil
			},
			countErr:    errors.New("boom"),
			wantOutcome: OutcomeUnreachable,
			wantQueries: 1,
		},
		{
			name: "invalid parameter is an empty success",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseInvalidParameter}, nil
			},
			wantOutcome: OutcomeOK,
			wantQueries: 1,
		},
		{
			name: "token errors are provider errors",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseTokenEmpty}, nil
			},
			wantOutcome: OutcomeProviderError,
			wantQueries: 1,
		},
		{
			name: "transport failure",
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{}, errors.New("connection refused")
			},
			wantOutcome: OutcomeUnreachable,
			wantQueries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := &fakeContent{
				categories: testCategories(),
				counts:     tt.counts,
				countErr:   tt.countErr,
				questions:  tt.questions,
			}
			src := NewSource(content)

			qs, outcome := src.GetQuestions(context.Background(), true, tt.mcqOnly, "Science & Nature", game.Easy, 5)

			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %d, want %d", outcome, tt.wantOutcome)
			}
			if len(qs) != tt.wantLen {
				t.Errorf("len(questions) = %d, want %d", len(qs), tt.wantLen)
			}
			if len(content.queries) != tt.wantQueries {
				t.Errorf("queries = %d, want %d", len(content.queries), tt.wantQueries)
			}
			if content.queries[0].CategoryID != 17 {
				t.Errorf("CategoryID = %d, want 17", content.queries[0].CategoryID)
			}
		})
	}
}

func TestSource_Categories_FetchedOnce(t *testing.T) {
	content := &fakeContent{
		categories: testCategories(),
		questions: func(q QuestionQuery) (QuestionsResult, error) {
			return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(q.Amount, "c")}, nil
		},
	}
	src := NewSource(content)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		names, err := src.Categories(ctx)
		if err != nil {
			t.Fatalf("Categories() call %d error = %v", i, err)
		}
		if len(names) != 3 || names[0] != "General Knowledge" {
			t.Errorf("Categories() call %d = %v", i, names)
		}
	}
	if _, outcome := src.GetQuestions(ctx, true, true, "History", game.Easy, 2); outcome != OutcomeOK {
		t.Fatalf("GetQuestions() outcome = %d, want OK", outcome)
	}

	if content.catCalls != 1 {
		t.Errorf("provider category requests = %d, want 1", content.catCalls)
	}
}

func TestSource_Categories_ReturnsCopy(t *testing.T) {
	src := NewSource(&fakeContent{categories: testCategories()})
	ctx := context.Background()

	names, err := src.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	names[0] = "Mutated"

	again, _ := src.Categories(ctx)
	if again[0] != "General Knowledge" {
		t.Errorf("Categories()[0] = %q after caller mutation", again[0])
	}
}

func TestSource_Categories_RetriesAfterFailure(t *testing.T) {
	content := &fakeContent{categories: testCategories(), catErr: errors.New("dns")}
	src := NewSource(content)
	ctx := context.Background()

	if _, err := src.Categories(ctx); err == nil {
		t.Fatal("Categories() expected error while the provider is down")
	}

	content.catErr = nil
	names, err := src.Categories(ctx)
	if err != nil || len(names) != 3 {
		t.Fatalf("Categories() = %v, %v after recovery", names, err)
	}
	if _, err := src.Categories(ctx); err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if content.catCalls != 2 {
		t.Errorf("provider category requests = %d, want 2", content.catCalls)
	}
}

func TestSource_GetQuestions_UnrestrictedNoResults(t *testing.T) {
	content := &fakeContent{
		categories: testCategories(),
		questions: func(q QuestionQuery) (QuestionsResult, error) {
			return QuestionsResult{ResponseCode: ResponseNoResults}, nil
		},
	}
	src := NewSource(content)

	qs, outcome := src.GetQuestions(context.Background(), false, true, "", game.Hard, 5)

	if outcome != OutcomeOK || len(qs) != 0 {
		t.Errorf("GetQuestions() = %d questions, outcome %d; want empty success", len(qs), outcome)
	}
	if content.countCalls != 0 {
		t.Errorf("count requests = %d, want 0", content.countCalls)
	}
	if len(content.queries) != 1 {
		t.Errorf("queries = %d, want 1", len(content.queries))
	}
}

func TestSource_GetQuestions_RetryDropsTypeFilter(t *testing.T) {
	content := &fakeContent{
		categories: testCategories(),
		counts:     map[int]CategoryCount{9: {Easy: 1}},
		questions: func(q QuestionQuery) (QuestionsResult, error) {
			if q.Type != "" {
				return QuestionsResult{ResponseCode: ResponseNoResults}, nil
			}
			return QuestionsResult{ResponseCode: ResponseSuccess, Results: []ProviderQuestion{
				{Type: "boolean", Question: "tf", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
			}}, nil
		},
	}
	src := NewSource(content)

	qs, outcome := src.GetQuestions(context.Background(), true, true, "General Knowledge", game.Easy, 5)

	if outcome != OutcomeOK || len(qs) != 1 {
		t.Fatalf("GetQuestions() = %d questions, outcome %d", len(qs), outcome)
	}
	if content.queries[1].Type != "" || content.queries[1].Amount != 1 {
		t.Errorf("retry query = %+v, want no type filter and amount 1", content.queries[1])
	}
}

func TestSource_GetQuestions_UnknownCategory(t *testing.T) {
	content := &fakeContent{
		categories: testCategories(),
		questions: func(q QuestionQuery) (QuestionsResult, error) {
			t.Fatal("provider should not be queried for an unknown category")
			return QuestionsResult{}, nil
		},
	}
	src := NewSource(content)

	qs, outcome := src.GetQuestions(context.Background(), true, true, "Underwater Basket Weaving", game.Easy, 5)
	if outcome != OutcomeOK || len(qs) != 0 {
		t.Errorf("GetQuestions() = %d questions, outcome %d; want empty success", len(qs), outcome)
	}
}

func TestSource_AssembleDeck(t *testing.T) {
	t.Run("no categories makes no calls", func(t *testing.T) {
		content := &fakeContent{questions: func(q QuestionQuery) (QuestionsResult, error) {
			t.Fatal("unexpected provider call")
			return QuestionsResult{}, nil
		}}
		_, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{Difficulty: game.Easy, Total: 10})
		if !errors.Is(err, game.ErrNoCategories) {
			t.Errorf("AssembleDeck() error = %v, want ErrNoCategories", err)
		}
	})

	t.Run("splits across categories", func(t *testing.T) {
		content := &fakeContent{
			categories: testCategories(),
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(q.Amount, fmt.Sprint(q.CategoryID))}, nil
			},
		}
		deck, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"General Knowledge", "History", "Science & Nature"},
			Difficulty: game.Medium,
			Total:      10,
		})
		if err != nil {
			t.Fatalf("AssembleDeck() unexpected error: %v", err)
		}
		if len(deck) != 10 {
			t.Errorf("len(deck) = %d, want 10", len(deck))
		}
		if len(content.queries) != 3 {
			t.Errorf("queries = %d, want 3 (no top-up)", len(content.queries))
		}
		for _, q := range content.queries {
			if q.Difficulty != game.Medium || q.Type != questionTypeMultiple {
				t.Errorf("query = %+v", q)
			}
		}
	})

	t.Run("tops up shortfall from any category", func(t *testing.T) {
		content := &fakeContent{
			categories: testCategories(),
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				if q.CategoryID == 23 {
					return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(1, "h")}, nil
				}
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(q.Amount, "any")}, nil
			},
		}
		deck, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"History"},
			Difficulty: game.Easy,
			Total:      5,
		})
		if err != nil {
			t.Fatalf("AssembleDeck() unexpected error: %v", err)
		}
		if len(deck) != 5 {
			t.Errorf("len(deck) = %d, want 5", len(deck))
		}
		topUp := content.queries[len(content.queries)-1]
		if topUp.CategoryID != 0 || topUp.Amount != 4 {
			t.Errorf("top-up query = %+v, want any category for 4", topUp)
		}
	})

	t.Run("persistent shortfall returns a short deck", func(t *testing.T) {
		content := &fakeContent{
			categories: testCategories(),
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(min(q.Amount, 2), "s")}, nil
			},
		}
		deck, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"History"},
			Difficulty: game.Easy,
			Total:      10,
		})
		if err != nil {
			t.Fatalf("AssembleDeck() unexpected error: %v", err)
		}
		if len(deck) != 4 {
			t.Errorf("len(deck) = %d, want 4", len(deck))
		}
	})

	t.Run("unreachable provider commits nothing", func(t *testing.T) {
		content := &fakeContent{
			categories: testCategories(),
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				if q.CategoryID == 9 {
					return QuestionsResult{}, errors.New("timeout")
				}
				return QuestionsResult{ResponseCode: ResponseSuccess, Results: mcq(q.Amount, "x")}, nil
			},
		}
		deck, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"History", "General Knowledge"},
			Difficulty: game.Easy,
			Total:      10,
		})
		if !errors.Is(err, game.ErrContentUnavailable) {
			t.Errorf("AssembleDeck() error = %v, want ErrContentUnavailable", err)
		}
		if deck != nil {
			t.Errorf("deck = %d questions, want nil", len(deck))
		}
		if game.KindOf(err) != game.KindCollaborator {
			t.Errorf("KindOf() = %v, want collaborator", game.KindOf(err))
		}
	})

	t.Run("empty deck is unavailable", func(t *testing.T) {
		content := &fakeContent{
			categories: testCategories(),
			questions: func(q QuestionQuery) (QuestionsResult, error) {
				return QuestionsResult{ResponseCode: ResponseInvalidParameter}, nil
			},
		}
		deck, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"History"},
			Difficulty: game.Hard,
			Total:      5,
		})
		if !errors.Is(err, game.ErrContentUnavailable) || deck != nil {
			t.Errorf("AssembleDeck() = %d questions, %v; want ErrContentUnavailable", len(deck), err)
		}
	})

	t.Run("category list failure is unreachable", func(t *testing.T) {
		content := &fakeContent{catErr: errors.New("dns")}
		_, err := NewSource(content).AssembleDeck(context.Background(), DeckRequest{
			Categories: []string{"History"},
			Difficulty: game.Easy,
			Total:      5,
		})
		if !errors.Is(err, game.ErrContentUnavailable) {
			t.Errorf("AssembleDeck() error = %v, want ErrContentUnavailable", err)
		}
	})
}

func TestProviderQuestion_ToQuestion(t *testing.T) {
	p := ProviderQuestion{
		Question:         "Who wrote &quot;Hamlet&quot;?",
		CorrectAnswer:    "Shakespeare",
		IncorrectAnswers: []string{"Marlowe &amp; Kyd"},
		Difficulty:       "hard",
	}
	q := p.ToQuestion()
	if q.Prompt != `Who wrote "Hamlet"?` {
		t.Errorf("Prompt = %q", q.Prompt)
	}
	if q.IncorrectAnswers[0] != "Marlowe & Kyd" {
		t.Errorf("IncorrectAnswers = %v", q.IncorrectAnswers)
	}
	if q.Difficulty != game.Hard {
		t.Errorf("Difficulty = %q", q.Difficulty)
	}
}
