package config

// PaletteColor holds the hex pair for a named palette color. Main drives the
// flat UI surfaces, Dark the hover/active variants.
type PaletteColor struct {
	Main string
	Dark string
}

// PaletteColors is the fixed table of named colors accepted by
// theme.palette.primary and theme.palette.accent.
var PaletteColors = map[string]PaletteColor{
	"red":         {Main: "#ef5350", Dark: "#b61827"},
	"pink":        {Main: "#e91e63", Dark: "#b0003a"},
	"purple":      {Main: "#ab47bc", Dark: "#790e8b"},
	"deep-purple": {Main: "#7e57c2", Dark: "#4d2c91"},
	"indigo":      {Main: "#3f51b5", Dark: "#002984"},
	"blue":        {Main: "#2196f3", Dark: "#0069c0"},
	"light-blue":  {Main: "#03a9f4", Dark: "#007ac1"},
	"cyan":        {Main: "#00bcd4", Dark: "#008ba3"},
	"teal":        {Main: "#009688", Dark: "#00675b"},
	"green":       {Main: "#4caf50", Dark: "#087f23"},
	"light-green": {Main: "#7cb342", Dark: "#4b830d"},
	"lime":        {Main: "#c0ca33", Dark: "#8c9900"},
	"yellow":      {Main: "#fdd835", Dark: "#c6a700"},
	"amber":       {Main: "#ffb300", Dark: "#c68400"},
	"orange":      {Main: "#fb8c00", Dark: "#c25e00"},
	"deep-orange": {Main: "#ff7043", Dark: "#c63f17"},
	"brown":       {Main: "#795548", Dark: "#4b2c20"},
	"grey":        {Main: "#757575", Dark: "#494949"},
	"blue-grey":   {Main: "#546e7a", Dark: "#29434e"},
	"black":       {Main: "#212121", Dark: "#000000"},
	"white":       {Main: "#fafafa", Dark: "#c7c7c7"},
}

// DefaultPaletteColor is used when a configured color name is unknown.
const DefaultPaletteColor = "indigo"

// IsPaletteColor reports whether name is in the palette table.
func IsPaletteColor(name string) bool {
	_, ok := PaletteColors[name]
	return ok
}
