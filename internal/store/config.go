// internal/store/config.go
//
// Storefront appearance settings.
//
// Context
// -------
// Each tenant schema holds at most one row in `store_configs`, a JSON
// document describing how the public storefront renders.  Partial
// documents merge over the defaults on read, so a tenant that has only
// ever set a color still renders with sane sizing.
package store

import (
	"encoding/json"
	"fmt"
)

// CustomLink is a navigation entry the merchant adds to the storefront.
type CustomLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Sections toggles the storefront page blocks.
type Sections struct {
	Navigation  bool `json:"navigation"`
	Hero        bool `json:"hero"`
	NewArrivals bool `json:"newArrivals"`
	Products    bool `json:"products"`
	Featured    bool `json:"featured"`
}

// Config is the merged storefront configuration.
type Config struct {
	LogoURL        string       `json:"logoUrl,omitempty"`
	HeaderImageURL string       `json:"headerImageUrl,omitempty"`
	PrimaryColor   string       `json:"primaryColor,omitempty"`
	AccentColor    string       `json:"accentColor,omitempty"`
	ItemCardSize   string       `json:"itemCardSize"`
	ButtonSize     string       `json:"buttonSize"`
	BorderRadius   string       `json:"borderRadius"`
	CustomLinks    []CustomLink `json:"customLinks"`
	Sections       Sections     `json:"sections"`
}

// Defaults returns the configuration a brand-new tenant renders with.
// Colors and images stay empty; CSSVars falls back to the site theme
// for those.
func Defaults() Config {
	return Config{
		ItemCardSize: "medium",
		ButtonSize:   "md",
		BorderRadius: "md",
		CustomLinks:  []CustomLink{},
		Sections: Sections{
			Navigation:  true,
			Hero:        true,
			NewArrivals: true,
			Products:    true,
			Featured:    true,
		},
	}
}

// Parse merges a stored JSON document over the defaults.  A nil or empty
// document yields the defaults unchanged.
func Parse(raw []byte) (Config, error) {
	cfg := Defaults()
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Defaults(), fmt.Errorf("store config: %w", err)
	}
	if cfg.CustomLinks == nil {
		cfg.CustomLinks = []CustomLink{}
	}
	return cfg, nil
}

var (
	radiusVars = map[string]string{
		"none": "0px", "sm": "4px", "md": "8px", "lg": "12px", "xl": "16px",
	}
	cardVars = map[string]string{
		"small": "220px", "medium": "260px", "large": "320px",
	}
	buttonVars = map[string]string{
		"sm": "32px", "md": "40px", "lg": "48px",
	}
)

// CSSVars maps the theme tokens to the CSS custom properties the
// storefront consumes.  Unset colors defer to the site theme; unknown
// enum values fall back to the medium variants rather than breaking
// the page.
func (c Config) CSSVars() map[string]string {
	primary := c.PrimaryColor
	if primary == "" {
		primary = "hsl(var(--primary))"
	}
	accent := c.AccentColor
	if accent == "" {
		accent = "hsl(var(--accent))"
	}
	radius, ok := radiusVars[c.BorderRadius]
	if !ok {
		radius = radiusVars["md"]
	}
	card, ok := cardVars[c.ItemCardSize]
	if !ok {
		card = cardVars["medium"]
	}
	button, ok := buttonVars[c.ButtonSize]
	if !ok {
		button = buttonVars["md"]
	}
	return map[string]string{
		"--store-primary":       primary,
		"--store-accent":        accent,
		"--store-card-width":    card,
		"--store-button-height": button,
		"--store-radius":        radius,
	}
}
