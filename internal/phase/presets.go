package phase

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	Box = Config{
		Name:   "box",
		Phases: []string{"Inhale", "Hold", "Exhale", "Hold"},
		Length: 4 * time.Second,
		Cycles: 8,
	}
	Equal = Config{
		Name:   "equal",
		Phases: []string{"Inhale", "Exhale"},
		Length: 5 * time.Second,
		Cycles: 6,
	}
	Triangle = Config{
		Name:   "triangle",
		Phases: []string{"Inhale", "Hold", "Exhale"},
		Length: 4 * time.Second,
		Cycles: 6,
	}
)

var presets = map[string]Config{
	Box.Name:      Box,
	Equal.Name:    Equal,
	Triangle.Name: Triangle,
}

// Preset returns a copy of the named preset.
func Preset(name string) (Config, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(PresetNames(), ", "))
	}
	p.Phases = append([]string(nil), p.Phases...)
	return p, nil
}

// PresetNames lists the preset names in order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
