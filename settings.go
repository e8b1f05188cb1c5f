package portfolio

import (
	"fmt"
	"slices"
	"strconv"
)

// Setting keys as persisted.
const (
	KeyThemeColor  = "theme_color"
	KeyDarkMode    = "dark_mode"
	KeyGradient    = "gradient_enabled"
	KeyCompactView = "compact_view"
	KeyLightText   = "light_text"
)

// SettingKeys lists all known setting keys in display order.
var SettingKeys = []string{KeyThemeColor, KeyDarkMode, KeyGradient, KeyCompactView, KeyLightText}

// Settings are the user display preferences.
type Settings struct {
	ThemeColor  string
	DarkMode    bool
	Gradient    bool
	CompactView bool
	LightText   bool
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		ThemeColor:  "#FFD700",
		DarkMode:    true,
		Gradient:    true,
		CompactView: false,
		LightText:   true,
	}
}

// SettingsFrom builds settings from persisted key/value pairs. Missing or
// invalid values fall back to the defaults.
func SettingsFrom(kv map[string]string) Settings {
	s := DefaultSettings()
	for _, key := range SettingKeys {
		value, ok := kv[key]
		if !ok {
			continue
		}
		// invalid persisted values are ignored, the default stays.
		_ = s.Set(key, value)
	}
	return s
}

// Set validates and updates a single setting. On error s is unchanged.
func (s *Settings) Set(key, value string) error {
	if !slices.Contains(SettingKeys, key) {
		return fmt.Errorf("unknown setting %q, known settings are %v", key, SettingKeys)
	}
	if key == KeyThemeColor {
		color, err := ParseHexColor(value)
		if err != nil {
			return err
		}
		s.ThemeColor = color
		return nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("setting %q expects a boolean, got %q", key, value)
	}
	switch key {
	case KeyDarkMode:
		s.DarkMode = b
	case KeyGradient:
		s.Gradient = b
	case KeyCompactView:
		s.CompactView = b
	case KeyLightText:
		s.LightText = b
	}
	return nil
}

// Map returns the settings as key/value pairs, ready to be persisted.
func (s Settings) Map() map[string]string {
	return map[string]string{
		KeyThemeColor:  s.ThemeColor,
		KeyDarkMode:    strconv.FormatBool(s.DarkMode),
		KeyGradient:    strconv.FormatBool(s.Gradient),
		KeyCompactView: strconv.FormatBool(s.CompactView),
		KeyLightText:   strconv.FormatBool(s.LightText),
	}
}
