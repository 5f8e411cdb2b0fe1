package progression

import "slices"

// RewardDefinition is a cosmetic feature granted at a level.
// Options[0] is the default selection.
type RewardDefinition struct {
	Level       int      `json:"level"`
	FeatureKey  string   `json:"feature"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

// HasOption reports whether option is one of the feature's options.
func (r RewardDefinition) HasOption(option string) bool {
	return slices.Contains(r.Options, option)
}

// DefaultOption returns the first option.
func (r RewardDefinition) DefaultOption() string {
	return r.Options[0]
}

// DefaultRewards is the reward table used by the service.
var DefaultRewards = []RewardDefinition{
	{
		Level:       2,
		FeatureKey:  "profileBanner",
		Name:        "Custom Profile Banner",
		Description: "Personalize your profile with a custom banner image",
		Options:     []string{"banner1", "banner2", "banner3"},
	},
	{
		Level:       3,
		FeatureKey:  "profileTheme",
		Name:        "Custom Profile Themes",
		Description: "Change the color theme of your profile page",
		Options:     []string{"blue", "green", "purple", "orange"},
	},
	{
		Level:       4,
		FeatureKey:  "avatarFrame",
		Name:        "Custom Avatar Frames",
		Description: "Add decorative frames to your profile avatar",
		Options:     []string{"gold", "silver", "bronze", "wood"},
	},
	{
		Level:       5,
		FeatureKey:  "eventBadges",
		Name:        "Game Event Badges",
		Description: "Display special badges on your hosted game events",
		Options:     []string{"premium", "featured", "expert"},
	},
	{
		Level:       6,
		FeatureKey:  "usernameColor",
		Name:        "Custom Username Colors",
		Description: "Change the color of your username in chats and comments",
		Options:     []string{"gold", "blue", "green", "red", "purple"},
	},
	{
		Level:       7,
		FeatureKey:  "messageTheme",
		Name:        "Custom Message Themes",
		Description: "Personalize the appearance of your chat messages",
		Options:     []string{"classic", "modern", "retro", "minimal"},
	},
	{
		Level:       8,
		FeatureKey:  "profileAnimations",
		Name:        "Animated Profile Elements",
		Description: "Add subtle animations to your profile page",
		Options:     []string{"subtle", "playful", "elegant"},
	},
	{
		Level:       9,
		FeatureKey:  "gameCardStyle",
		Name:        "Custom Game Cards",
		Description: "Personalize how your hosted games appear in the listings",
		Options:     []string{"premium", "classic", "modern", "minimal"},
	},
	{
		Level:       10,
		FeatureKey:  "spotlightEffects",
		Name:        "Profile Spotlight Effects",
		Description: "Add special visual effects to your profile that others can see",
		Options:     []string{"glow", "sparkle", "confetti", "dice"},
	},
}
