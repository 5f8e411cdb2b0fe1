package progression

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Unlock is the per-feature entry of an UnlockState. Selected is empty when
// no option has been chosen.
type Unlock struct {
	Unlocked bool   `json:"unlocked"`
	Selected string `json:"selected,omitempty"`
}

// UnlockState maps a reward feature key to its unlock entry. Values are
// treated as immutable: every operation returns a new map.
type UnlockState map[string]Unlock

// Clone returns a shallow copy of s. A nil state clones to an empty one.
func (s UnlockState) Clone() UnlockState {
	out := make(UnlockState, len(s))
	maps.Copy(out, s)
	return out
}

// IsUnlocked reports whether key is present and unlocked.
func (s UnlockState) IsUnlocked(key string) bool {
	return s[key].Unlocked
}

// Equal reports whether both states hold the same entries.
func (s UnlockState) Equal(other UnlockState) bool {
	return maps.Equal(s, other)
}

// ParseUnlockState decodes a persisted unlock blob. An empty or null blob is
// an empty state.
func ParseUnlockState(raw []byte) (UnlockState, error) {
	state := UnlockState{}
	if len(raw) == 0 || string(raw) == "null" {
		return state, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode unlock state: %w", err)
	}
	if state == nil {
		state = UnlockState{}
	}
	return state, nil
}

// Encode serializes s for persistence.
func (s UnlockState) Encode() ([]byte, error) {
	if s == nil {
		s = UnlockState{}
	}
	return json.Marshal(map[string]Unlock(s))
}
