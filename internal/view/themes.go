package view

import "strings"

// ThemeOption describes a selectable theme for page design pickers.
type ThemeOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ThemeColors holds the CSS class fragments a theme contributes to the public page.
type ThemeColors struct {
	Background string `json:"background"`
	Card       string `json:"card"`
	CardHover  string `json:"cardHover"`
	Text       string `json:"text"`
	TextMuted  string `json:"textMuted"`
	Accent     string `json:"accent"`
}

type themeAsset struct {
	Key    string
	Name   string
	Colors ThemeColors
}

var (
	themeDefinitions = []themeAsset{
		{Key: "default", Name: "Default", Colors: ThemeColors{
			Background: "from-slate-50 to-slate-100",
			Card:       "bg-white border-slate-200",
			CardHover:  "hover:bg-slate-50",
			Text:       "text-slate-900",
			TextMuted:  "text-slate-600",
			Accent:     "bg-slate-900 text-white",
		}},
		{Key: "ocean", Name: "Ocean", Colors: ThemeColors{
			Background: "from-blue-50 via-cyan-50 to-teal-50",
			Card:       "bg-white/80 backdrop-blur-sm border-blue-200",
			CardHover:  "hover:bg-blue-50/80",
			Text:       "text-blue-950",
			TextMuted:  "text-blue-700",
			Accent:     "bg-blue-600 text-white",
		}},
		{Key: "sunset", Name: "Sunset", Colors: ThemeColors{
			Background: "from-orange-50 via-pink-50 to-purple-50",
			Card:       "bg-white/80 backdrop-blur-sm border-orange-200",
			CardHover:  "hover:bg-orange-50/80",
			Text:       "text-orange-950",
			TextMuted:  "text-orange-700",
			Accent:     "bg-orange-600 text-white",
		}},
		{Key: "forest", Name: "Forest", Colors: ThemeColors{
			Background: "from-green-50 via-emerald-50 to-teal-50",
			Card:       "bg-white/80 backdrop-blur-sm border-green-200",
			CardHover:  "hover:bg-green-50/80",
			Text:       "text-green-950",
			TextMuted:  "text-green-700",
			Accent:     "bg-green-600 text-white",
		}},
		{Key: "midnight", Name: "Midnight", Colors: ThemeColors{
			Background: "from-slate-900 via-slate-800 to-slate-900",
			Card:       "bg-slate-800/80 backdrop-blur-sm border-slate-700",
			CardHover:  "hover:bg-slate-700/80",
			Text:       "text-slate-50",
			TextMuted:  "text-slate-300",
			Accent:     "bg-slate-50 text-slate-900",
		}},
		{Key: "rose", Name: "Rose", Colors: ThemeColors{
			Background: "from-rose-50 via-pink-50 to-fuchsia-50",
			Card:       "bg-white/80 backdrop-blur-sm border-rose-200",
			CardHover:  "hover:bg-rose-50/80",
			Text:       "text-rose-950",
			TextMuted:  "text-rose-700",
			Accent:     "bg-rose-600 text-white",
		}},
	}

	themeLookup = func() map[string]themeAsset {
		lookup := make(map[string]themeAsset, len(themeDefinitions))
		for _, theme := range themeDefinitions {
			lookup[theme.Key] = theme
		}
		return lookup
	}()

	// 页面外观字段的合法取值集合，与前端选择器保持一致。
	designFieldOptions = map[string][]string{
		"buttonStyle":       {"rounded", "square", "pill"},
		"backgroundStyle":   {"solid", "gradient", "mesh"},
		"fontStyle":         {"sans", "serif", "mono"},
		"layout":            {"centered", "left", "grid"},
		"cardShadow":        {"none", "sm", "md", "lg"},
		"spacing":           {"compact", "normal", "relaxed"},
		"profileImageShape": {"circle", "square", "rounded"},
	}
)

// ThemeOptions exposes the selectable theme metadata for the dashboard UI.
func ThemeOptions() []ThemeOption {
	options := make([]ThemeOption, 0, len(themeDefinitions))
	for _, theme := range themeDefinitions {
		options = append(options, ThemeOption{Key: theme.Key, Name: theme.Name})
	}
	return options
}

// ThemeColorsFor resolves the color set for a theme key, falling back to the default theme.
func ThemeColorsFor(key string) ThemeColors {
	trimmed := strings.ToLower(strings.TrimSpace(key))
	if theme, ok := themeLookup[trimmed]; ok {
		return theme.Colors
	}
	return themeLookup["default"].Colors
}

// IsValidTheme reports whether key names a theme in the catalog.
func IsValidTheme(key string) bool {
	_, ok := themeLookup[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// IsValidDesignValue reports whether value is allowed for the given design field.
func IsValidDesignValue(field, value string) bool {
	options, ok := designFieldOptions[field]
	if !ok {
		return false
	}
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}

// DesignFieldOptions returns a copy of the allowed values per design field.
func DesignFieldOptions() map[string][]string {
	clone := make(map[string][]string, len(designFieldOptions))
	for field, options := range designFieldOptions {
		clone[field] = append([]string(nil), options...)
	}
	return clone
}
