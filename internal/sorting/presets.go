package sorting

// Preset is a named selector list offered when the caller did not pick one.
type Preset struct {
	Label  string
	Fields []string
}

// Presets are the sort orders offered interactively, most common first.
var Presets = []Preset{
	{Label: "By priority (!!! and (A)), then content", Fields: []string{"-priority", "content"}},
	{Label: "By @mention, then priority", Fields: []string{"mentions", "-priority", "content"}},
	{Label: "By #hashtag, then priority", Fields: []string{"hashtags", "-priority", "content"}},
	{Label: "By content (alphabetical)", Fields: []string{"content"}},
	{Label: "By original line order", Fields: []string{"lineIndex"}},
}

// PresetByLabel returns the preset with the given label.
func PresetByLabel(label string) (Preset, bool) {
	for _, p := range Presets {
		if p.Label == label {
			return p, true
		}
	}
	return Preset{}, false
}
