package color

// namedColors covers the CSS named-colour keywords most likely to appear
// in captured computed styles. Extend as needed; unknown names fail
// Parse rather than guessing.
var namedColors = map[string]Color{
	"black":   {R: 0, G: 0, B: 0, A: 1},
	"white":   {R: 255, G: 255, B: 255, A: 1},
	"red":     {R: 255, G: 0, B: 0, A: 1},
	"green":   {R: 0, G: 128, B: 0, A: 1},
	"blue":    {R: 0, G: 0, B: 255, A: 1},
	"yellow":  {R: 255, G: 255, B: 0, A: 1},
	"gray":    {R: 128, G: 128, B: 128, A: 1},
	"grey":    {R: 128, G: 128, B: 128, A: 1},
	"silver":  {R: 192, G: 192, B: 192, A: 1},
	"maroon":  {R: 128, G: 0, B: 0, A: 1},
	"purple":  {R: 128, G: 0, B: 128, A: 1},
	"fuchsia": {R: 255, G: 0, B: 255, A: 1},
	"lime":    {R: 0, G: 255, B: 0, A: 1},
	"olive":   {R: 128, G: 128, B: 0, A: 1},
	"navy":    {R: 0, G: 0, B: 128, A: 1},
	"teal":    {R: 0, G: 128, B: 128, A: 1},
	"aqua":    {R: 0, G: 255, B: 255, A: 1},
	"orange":  {R: 255, G: 165, B: 0, A: 1},
	"pink":    {R: 255, G: 192, B: 203, A: 1},
	"brown":   {R: 165, G: 42, B: 42, A: 1},
	"indigo":  {R: 75, G: 0, B: 130, A: 1},
	"violet":  {R: 238, G: 130, B: 238, A: 1},
	"coral":   {R: 255, G: 127, B: 80, A: 1},
	"crimson": {R: 220, G: 20, B: 60, A: 1},
	"gold":    {R: 255, G: 215, B: 0, A: 1},
	"ivory":   {R: 255, G: 255, B: 240, A: 1},
	"khaki":   {R: 240, G: 230, B: 140, A: 1},
	"salmon":  {R: 250, G: 128, B: 114, A: 1},
	"tomato":  {R: 255, G: 99, B: 71, A: 1},
	"plum":    {R: 221, G: 160, B: 221, A: 1},
	"orchid":  {R: 218, G: 112, B: 214, A: 1},
}
