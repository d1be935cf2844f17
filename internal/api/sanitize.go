package api

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/everforgeworks/domefall/internal/game"
)

const (
	MaxNameLength = 20
	DefaultName   = "Player"
	DefaultColor  = "#4CAF50"
	MinPlayers    = 2
	MaxPlayers    = 6
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// SanitizeName strips markup brackets, trims, and caps the name at
// MaxNameLength runes.
func SanitizeName(name string) string {
	name = strings.NewReplacer("<", "", ">", "").Replace(name)
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLength]))
	}
	if name == "" {
		return DefaultName
	}
	return name
}

// SanitizeColor accepts only #RRGGBB.
func SanitizeColor(color string) string {
	if hexColor.MatchString(color) {
		return color
	}
	return DefaultColor
}

// SanitizeDomeType falls back to the default loadout for unknown ids.
func SanitizeDomeType(rules *game.Rules, id string) string {
	if rules.HasDomeType(id) {
		return id
	}
	return rules.DefaultDome
}

// ValidPlayerCount reports whether n is a supported lobby size.
func ValidPlayerCount(n int) bool {
	return n >= MinPlayers && n <= MaxPlayers
}
