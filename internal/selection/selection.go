package selection

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Color is a player color code as carried in fragments and session storage.
type Color string

const (
	White Color = "w"
	Black Color = "b"

	DefaultColor = White
	DefaultModel = "random"
)

// Selection is the opponent model and color a player picked on the new-game page.
type Selection struct {
	PlayerColor  string `json:"playerColor,omitempty"`
	BackendModel string `json:"backendModel,omitempty"`
}

// ValidColor reports whether s is exactly one of the two color codes.
func ValidColor(s string) bool {
	return s == string(White) || s == string(Black)
}

// NormalizeColor returns s as a Color, or DefaultColor if s is not a color code.
func NormalizeColor(s string) Color {
	if ValidColor(s) {
		return Color(s)
	}
	return DefaultColor
}

// NormalizeModel returns the model id, or DefaultModel when it is empty.
func NormalizeModel(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultModel
	}
	return s
}

// Effective returns the selection with both defaults applied.
func Effective(sel Selection) Selection {
	return Selection{
		PlayerColor:  string(NormalizeColor(sel.PlayerColor)),
		BackendModel: NormalizeModel(sel.BackendModel),
	}
}

// EncodeFragment serializes sel into a URL-safe string for use after '#'.
func EncodeFragment(sel Selection) string {
	raw, err := json.Marshal(sel)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeFragment is the inverse of EncodeFragment. Empty or malformed input, and
// fields of the wrong type, yield missing fields rather than an error.
func DecodeFragment(s string) Selection {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return Selection{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return Selection{}
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Selection{}
	}
	var sel Selection
	if v, ok := fields["playerColor"].(string); ok {
		sel.PlayerColor = v
	}
	if v, ok := fields["backendModel"].(string); ok {
		sel.BackendModel = v
	}
	return sel
}
