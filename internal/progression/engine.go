// Package progression turns achievement points into levels, titles, progress
// and cosmetic unlocks.
package progression

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotUnlocked   = errors.New("feature is not unlocked")
	ErrInvalidOption = errors.New("option is not available for this feature")
	ErrUnknownReward = errors.New("unknown feature")
)

// NextThreshold is the points value of the next level, or Max when the
// current level is the last one. It marshals to a number or "max".
type NextThreshold struct {
	Points int
	Max    bool
}

func (n NextThreshold) MarshalJSON() ([]byte, error) {
	if n.Max {
		return []byte(`"max"`), nil
	}
	return []byte(strconv.Itoa(n.Points)), nil
}

func (n *NextThreshold) UnmarshalJSON(b []byte) error {
	if string(b) == `"max"` {
		*n = NextThreshold{Max: true}
		return nil
	}
	p, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("next level threshold: %w", err)
	}
	*n = NextThreshold{Points: p}
	return nil
}

// Summary is derived from a points total and never persisted.
type Summary struct {
	TotalPoints        int           `json:"total_points"`
	Level              int           `json:"level"`
	Title              string        `json:"title"`
	NextLevelThreshold NextThreshold `json:"next_level_threshold"`
	ProgressFraction   float64       `json:"progress"`
}

// AchievementPoints is the part of an achievement the engine reads.
type AchievementPoints struct {
	Points   int
	Unlocked bool
}

// TotalPoints sums the points of unlocked achievements.
func TotalPoints(achievements []AchievementPoints) int {
	total := 0
	for _, a := range achievements {
		if a.Unlocked {
			total += a.Points
		}
	}
	return total
}

// Engine evaluates a level table and a reward table. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	levels  []LevelThreshold
	rewards []RewardDefinition
	byKey   map[string]int
}

// New validates the tables and builds an Engine.
func New(levels []LevelThreshold, rewards []RewardDefinition) (*Engine, error) {
	if len(levels) == 0 {
		return nil, errors.New("progression: level table is empty")
	}
	if levels[0].Points != 0 {
		return nil, fmt.Errorf("progression: first level must start at 0 points, got %d", levels[0].Points)
	}
	for i, l := range levels {
		if l.Level != i+1 {
			return nil, fmt.Errorf("progression: level %d at position %d, levels must be contiguous from 1", l.Level, i)
		}
		if i > 0 && l.Points <= levels[i-1].Points {
			return nil, fmt.Errorf("progression: level %d threshold %d is not above level %d", l.Level, l.Points, levels[i-1].Level)
		}
	}

	byKey := make(map[string]int, len(rewards))
	maxLevel := levels[len(levels)-1].Level
	for i, r := range rewards {
		if r.FeatureKey == "" {
			return nil, fmt.Errorf("progression: reward at position %d has no feature key", i)
		}
		if _, dup := byKey[r.FeatureKey]; dup {
			return nil, fmt.Errorf("progression: duplicate feature key %q", r.FeatureKey)
		}
		if len(r.Options) == 0 {
			return nil, fmt.Errorf("progression: feature %q has no options", r.FeatureKey)
		}
		if r.Level < 1 || r.Level > maxLevel {
			return nil, fmt.Errorf("progression: feature %q granted at unknown level %d", r.FeatureKey, r.Level)
		}
		byKey[r.FeatureKey] = i
	}

	return &Engine{
		levels:  append([]LevelThreshold(nil), levels...),
		rewards: append([]RewardDefinition(nil), rewards...),
		byKey:   byKey,
	}, nil
}

// Default builds an Engine over DefaultLevels and DefaultRewards.
func Default() *Engine {
	e, err := New(DefaultLevels, DefaultRewards)
	if err != nil {
		panic(err)
	}
	return e
}

// Levels returns a copy of the level table.
func (e *Engine) Levels() []LevelThreshold {
	return append([]LevelThreshold(nil), e.levels...)
}

// Rewards returns a copy of the reward table.
func (e *Engine) Rewards() []RewardDefinition {
	out := make([]RewardDefinition, len(e.rewards))
	for i, r := range e.rewards {
		r.Options = append([]string(nil), r.Options...)
		out[i] = r
	}
	return out
}

// Reward looks up a feature by key.
func (e *Engine) Reward(featureKey string) (RewardDefinition, bool) {
	i, ok := e.byKey[featureKey]
	if !ok {
		return RewardDefinition{}, false
	}
	return e.rewards[i], true
}

// RewardsAt returns the rewards granted exactly at level.
func (e *Engine) RewardsAt(level int) []RewardDefinition {
	var out []RewardDefinition
	for _, r := range e.rewards {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// ComputeSummary selects the highest threshold not above totalPoints.
func (e *Engine) ComputeSummary(totalPoints int) Summary {
	if totalPoints < 0 {
		totalPoints = 0
	}

	idx := 0
	for i := len(e.levels) - 1; i >= 0; i-- {
		if totalPoints >= e.levels[i].Points {
			idx = i
			break
		}
	}
	current := e.levels[idx]

	s := Summary{
		TotalPoints: totalPoints,
		Level:       current.Level,
		Title:       current.Title,
	}
	if idx == len(e.levels)-1 {
		s.NextLevelThreshold = NextThreshold{Max: true}
		s.ProgressFraction = 1
		return s
	}

	next := e.levels[idx+1]
	s.NextLevelThreshold = NextThreshold{Points: next.Points}
	fraction := float64(totalPoints-current.Points) / float64(next.Points-current.Points)
	s.ProgressFraction = min(max(fraction, 0), 1)
	return s
}

// ReconcileUnlocks grants every reward at or below level. Keys already in
// existing are kept as they are apart from being marked unlocked, so a
// lower level never re-locks anything.
func (e *Engine) ReconcileUnlocks(level int, existing UnlockState) UnlockState {
	out := existing.Clone()
	for _, r := range e.rewards {
		if r.Level > level {
			continue
		}
		u := out[r.FeatureKey]
		u.Unlocked = true
		if u.Selected == "" {
			u.Selected = r.DefaultOption()
		}
		out[r.FeatureKey] = u
	}
	return out
}

// SelectOption returns a copy of state with featureKey set to option.
func (e *Engine) SelectOption(state UnlockState, featureKey, option string) (UnlockState, error) {
	if !state.IsUnlocked(featureKey) {
		return state, fmt.Errorf("%s: %w", featureKey, ErrNotUnlocked)
	}
	r, ok := e.Reward(featureKey)
	if !ok {
		return state, fmt.Errorf("%s: %w", featureKey, ErrUnknownReward)
	}
	if !r.HasOption(option) {
		return state, fmt.Errorf("%s=%s: %w", featureKey, option, ErrInvalidOption)
	}

	out := state.Clone()
	u := out[featureKey]
	u.Selected = option
	out[featureKey] = u
	return out, nil
}

// Normalize is applied to states read from storage: unknown feature keys are
// dropped and unlocked features with a missing or invalid selection fall
// back to their default option.
func (e *Engine) Normalize(state UnlockState) UnlockState {
	out := make(UnlockState, len(state))
	for key, u := range state {
		r, ok := e.Reward(key)
		if !ok {
			continue
		}
		if u.Selected != "" && !r.HasOption(u.Selected) {
			u.Selected = ""
		}
		if u.Unlocked && u.Selected == "" {
			u.Selected = r.DefaultOption()
		}
		out[key] = u
	}
	return out
}
