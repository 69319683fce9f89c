package config

// Layer precedence, lowest to highest priority, mirroring the ambient
// configuration layering style used throughout this codebase's tooling.
const (
	LayerGlobal = iota
	LayerEnvironment
	LayerSite
	LayerEphemeral
)

var layerNames = map[int]string{
	LayerGlobal:      "global",
	LayerEnvironment: "environment",
	LayerSite:        "site",
	LayerEphemeral:   "ephemeral",
}

// LayerName returns the human-readable name for a layer constant.
func LayerName(layer int) string {
	if name, ok := layerNames[layer]; ok {
		return name
	}
	return "unknown"
}

// PrecedenceOrder returns the merge order from lowest to highest priority.
func PrecedenceOrder() []int {
	return []int{LayerGlobal, LayerEnvironment, LayerSite, LayerEphemeral}
}
