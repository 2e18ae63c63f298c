package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/example/trivia-rooms/domain/game"
)

// Provider response codes.
const (
	ResponseSuccess          = 0
	ResponseNoResults        = 1
	ResponseInvalidParameter = 2
	ResponseTokenNotFound    = 3
	ResponseTokenEmpty       = 4
	ResponseRateLimit        = 5
)

const questionTypeMultiple = "multiple"

// ErrUnexpectedStatus is returned for non-200 provider replies.
var ErrUnexpectedStatus = errors.New("unexpected status from content source")

// Category is a provider category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoryCount holds the number of questions a category has per difficulty.
type CategoryCount struct {
	Total  int `json:"total_question_count"`
	Easy   int `json:"total_easy_question_count"`
	Medium int `json:"total_medium_question_count"`
	Hard   int `json:"total_hard_question_count"`
}

// For returns the count for difficulty d.
func (c CategoryCount) For(d game.Difficulty) int {
	switch d {
	case game.Easy:
		return c.Easy
	case game.Medium:
		return c.Medium
	case game.Hard:
		return c.Hard
	default:
		return c.Total
	}
}

// QuestionQuery is one questions request. A zero CategoryID means any
// category; an empty Type means any question type.
type QuestionQuery struct {
	Amount     int
	CategoryID int
	Difficulty game.Difficulty
	Type       string
}

// ProviderQuestion is a question as the provider returns it.
type ProviderQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// ToQuestion converts p to a game question, decoding HTML entities.
func (p ProviderQuestion) ToQuestion() game.Question {
	incorrect := make([]string, len(p.IncorrectAnswers))
	for i, a := range p.IncorrectAnswers {
		incorrect[i] = html.UnescapeString(a)
	}
	return game.Question{
		Prompt:           html.UnescapeString(p.Question),
		CorrectAnswer:    html.UnescapeString(p.CorrectAnswer),
		IncorrectAnswers: incorrect,
		Difficulty:       game.Difficulty(p.Difficulty),
	}
}

// QuestionsResult is the provider's reply to a questions query.
type QuestionsResult struct {
	ResponseCode int                `json:"response_code"`
	Results      []ProviderQuestion `json:"results"`
}

// ContentSource is the external trivia provider.
type ContentSource interface {
	Categories(ctx context.Context) ([]Category, error)
	CategoryCount(ctx context.Context, categoryID int) (CategoryCount, error)
	Questions(ctx context.Context, q QuestionQuery) (QuestionsResult, error)
}

// ClientConfig configures the HTTP content client.
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
}

// DefaultClientConfig returns the public Open Trivia DB settings.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      "https://opentdb.com",
		Timeout:      10 * time.Second,
		RequestDelay: 5 * time.Second,
	}
}

// Client talks to an Open Trivia DB compatible provider. Requests are
// spaced at least RequestDelay apart because the provider rate limits
// per address.
type Client struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration

	mu   sync.Mutex
	next time.Time
}

var _ ContentSource = (*Client)(nil)

// NewClient creates a content client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		delay:      cfg.RequestDelay,
	}
}

// Categories lists the provider's categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var body struct {
		TriviaCategories []Category `json:"trivia_categories"`
	}
	if err := c.get(ctx, "/api_category.php", nil, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return body.TriviaCategories, nil
}

// CategoryCount returns the number of questions in a category.
func (c *Client) CategoryCount(ctx context.Context, categoryID int) (CategoryCount, error) {
	var body struct {
		CategoryID    int           `json:"category_id"`
		CategoryCount CategoryCount `json:"category_question_count"`
	}
	params := url.Values{"category": {strconv.Itoa(categoryID)}}
	if err := c.get(ctx, "/api_count.php", params, &body); err != nil {
		return CategoryCount{}, fmt.Errorf("failed to fetch category count: %w", err)
	}
	return body.CategoryCount, nil
}

// Questions runs a questions query. Provider-level failures come back
// in ResponseCode, not as errors.
func (c *Client) Questions(ctx context.Context, q QuestionQuery) (QuestionsResult, error) {
	params := url.Values{
		"amount":     {strconv.Itoa(q.Amount)},
		"difficulty": {string(q.Difficulty)},
	}
	if q.CategoryID > 0 {
		params.Set("category", strconv.Itoa(q.CategoryID))
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	var result QuestionsResult
	if err := c.get(ctx, "/api.php", params, &result); err != nil {
		return QuestionsResult{}, fmt.Errorf("failed to fetch questions: %w", err)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// wait blocks until the next request slot.
func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	at := c.next
	if at.Before(now) {
		at = now
	}
	c.next = at.Add(c.delay)
	c.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
