package game

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
)

// Difficulty is a question difficulty level.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Allowed settings values.
var (
	AnswerTimes     = []int{10, 15, 20, 25, 30}
	QuestionTotals  = []int{5, 10, 15, 20}
	MinPlayers      = 2
	MaxPlayersLimit = 6
)

// DefaultCategory is the category every new room starts with.
const DefaultCategory = "General Knowledge"

// Settings is a room's validated configuration. Fields change only
// through the named mutators.
type Settings struct {
	isPublic   bool
	categories []string
	difficulty Difficulty
	maxPlayers int
	seconds    int
	total      int
}

// DefaultSettings returns the settings a new room starts with.
func DefaultSettings() Settings {
	return Settings{
		categories: []string{DefaultCategory},
		difficulty: Easy,
		maxPlayers: MaxPlayersLimit,
		seconds:    20,
		total:      10,
	}
}

func (s Settings) IsPublic() bool               { return s.isPublic }
func (s Settings) Categories() []string         { return slices.Clone(s.categories) }
func (s Settings) Difficulty() Difficulty       { return s.difficulty }
func (s Settings) MaxPlayers() int              { return s.maxPlayers }
func (s Settings) PerQuestionSeconds() int      { return s.seconds }
func (s Settings) TotalQuestions() int          { return s.total }
func (s Settings) TimeBudgetMillis() int        { return s.seconds * 1000 }
func (s Settings) HasCategory(name string) bool { return slices.Contains(s.categories, name) }

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.categories = slices.Clone(s.categories)
	return s
}

// SetPublic sets room visibility for matchmaking.
func (s *Settings) SetPublic(public bool) {
	s.isPublic = public
}

// AddCategory appends name; adding a present category is a no-op.
func (s *Settings) AddCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Validationf("category name cannot be empty")
	}
	if !slices.Contains(s.categories, name) {
		s.categories = append(s.categories, name)
	}
	return nil
}

// RemoveCategory removes name if present.
func (s *Settings) RemoveCategory(name string) {
	if i := slices.Index(s.categories, name); i >= 0 {
		s.categories = slices.Delete(s.categories, i, i+1)
	}
}

func (s *Settings) SetDifficulty(d Difficulty) error {
	if !d.Valid() {
		return Validationf("invalid difficulty %q", d)
	}
	s.difficulty = d
	return nil
}

func (s *Settings) SetMaxPlayers(n int) error {
	if n < MinPlayers || n > MaxPlayersLimit {
		return Validationf("max players must be between %d and %d", MinPlayers, MaxPlayersLimit)
	}
	s.maxPlayers = n
	return nil
}

func (s *Settings) SetPerQuestionSeconds(n int) error {
	if !slices.Contains(AnswerTimes, n) {
		return Validationf("invalid answer time %d", n)
	}
	s.seconds = n
	return nil
}

func (s *Settings) SetTotalQuestions(n int) error {
	if !slices.Contains(QuestionTotals, n) {
		return Validationf("invalid number of questions %d", n)
	}
	s.total = n
	return nil
}

// SettingsView is the wire representation of Settings.
type SettingsView struct {
	IsPublic   bool       `json:"isPublic"`
	Categories []string   `json:"categories"`
	Difficulty Difficulty `json:"difficulty"`
	MaxPlayers int        `json:"maxPlayers"`
	Time       int        `json:"time"`
	Total      int        `json:"total"`
}

// View returns the wire representation of s.
func (s Settings) View() SettingsView {
	return SettingsView{
		IsPublic:   s.isPublic,
		Categories: s.Categories(),
		Difficulty: s.difficulty,
		MaxPlayers: s.maxPlayers,
		Time:       s.seconds,
		Total:      s.total,
	}
}

func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}

// SettingKind enumerates the setting operations.
type SettingKind int

const (
	SettingPublic SettingKind = iota + 1
	SettingAddCategory
	SettingRemoveCategory
	SettingDifficulty
	SettingMaxPlayers
	SettingTime
	SettingTotal
)

// SettingOp is one typed settings mutation.
type SettingOp struct {
	Kind   SettingKind
	Flag   bool
	Name   string
	Number int
}

func PublicOp(public bool) SettingOp         { return SettingOp{Kind: SettingPublic, Flag: public} }
func AddCategoryOp(name string) SettingOp    { return SettingOp{Kind: SettingAddCategory, Name: name} }
func RemoveCategoryOp(name string) SettingOp { return SettingOp{Kind: SettingRemoveCategory, Name: name} }
func DifficultyOp(d Difficulty) SettingOp    { return SettingOp{Kind: SettingDifficulty, Name: string(d)} }
func MaxPlayersOp(n int) SettingOp           { return SettingOp{Kind: SettingMaxPlayers, Number: n} }
func TimeOp(seconds int) SettingOp           { return SettingOp{Kind: SettingTime, Number: seconds} }
func TotalOp(n int) SettingOp                { return SettingOp{Kind: SettingTotal, Number: n} }

// Category returns the category an add/remove op refers to.
func (o SettingOp) Category() (string, bool) {
	if o.Kind == SettingAddCategory || o.Kind == SettingRemoveCategory {
		return o.Name, true
	}
	return "", false
}

// Apply runs the op against s.
func (o SettingOp) Apply(s *Settings) error {
	switch o.Kind {
	case SettingPublic:
		s.SetPublic(o.Flag)
		return nil
	case SettingAddCategory:
		return s.AddCategory(o.Name)
	case SettingRemoveCategory:
		s.RemoveCategory(o.Name)
		return nil
	case SettingDifficulty:
		return s.SetDifficulty(Difficulty(o.Name))
	case SettingMaxPlayers:
		return s.SetMaxPlayers(o.Number)
	case SettingTime:
		return s.SetPerQuestionSeconds(o.Number)
	case SettingTotal:
		return s.SetTotalQuestions(o.Number)
	default:
		return ErrInvalidSetting
	}
}

const categoryOptionPrefix = "category-"

// ParseSettingOp converts a client's (settingOption, optionValue) pair
// into a SettingOp. Unknown options and mistyped values are rejected.
func ParseSettingOp(option string, value any) (SettingOp, error) {
	switch {
	case option == "isPublic":
		b, ok := value.(bool)
		if !ok {
			return SettingOp{}, ErrInvalidSetting
		}
		return PublicOp(b), nil
	case strings.HasPrefix(option, categoryOptionPrefix):
		name := strings.TrimPrefix(option, categoryOptionPrefix)
		b, ok := value.(bool)
		if !ok || name == "" {
			return SettingOp{}, ErrInvalidSetting
		}
		if b {
			return AddCategoryOp(name), nil
		}
		return RemoveCategoryOp(name), nil
	case option == "difficulty":
		d, ok := value.(string)
		if !ok || !Difficulty(d).Valid() {
			return SettingOp{}, ErrInvalidSetting
		}
		return DifficultyOp(Difficulty(d)), nil
	case option == "maxPlayers", option == "timeLimit", option == "total":
		n, ok := wholeNumber(value)
		if !ok {
			return SettingOp{}, ErrInvalidSetting
		}
		switch option {
		case "maxPlayers":
			return MaxPlayersOp(n), nil
		case "timeLimit":
			return TimeOp(n), nil
		default:
			return TotalOp(n), nil
		}
	default:
		return SettingOp{}, ErrInvalidSetting
	}
}

// wholeNumber accepts the numeric types a JSON decoder can produce.
func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
