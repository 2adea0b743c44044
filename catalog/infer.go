package catalog

import (
	"strings"

	"github.com/floralog/floralog/store"
)

var succulentKeywords = []string{"cactus", "succulent", "haworthia", "aloe", "jade", "lithops"}

var tropicalKeywords = []string{
	"orchid", "monstera", "philodendron", "anthurium", "dracaena",
	"ficus", "pothos", "calathea", "alocasia", "zamioculcas",
}

var coniferKeywords = []string{"conifer", "juniper", "cypress", "thuja", "pine", "spruce"}

// InferPlantType guesses the plant type from whatever naming signal the
// providers returned. The watering label "minimum" counts as a succulent
// signal too.
func InferPlantType(commonName, watering, query string) store.PlantType {
	joined := strings.ToLower(commonName + " " + watering + " " + query)
	if strings.Contains(joined, "fern") {
		return store.PlantTypeFern
	}
	for _, keyword := range succulentKeywords {
		if strings.Contains(joined, keyword) {
			return store.PlantTypeSucculent
		}
	}
	if strings.Contains(joined, "minimum") {
		return store.PlantTypeSucculent
	}
	for _, keyword := range coniferKeywords {
		if strings.Contains(joined, keyword) {
			return store.PlantTypeConifer
		}
	}
	for _, keyword := range tropicalKeywords {
		if strings.Contains(joined, keyword) {
			return store.PlantTypeTropical
		}
	}
	return store.PlantTypeDefault
}

// intervalFromType is the seed interval used when no provider reports one.
func intervalFromType(t store.PlantType) int {
	switch t {
	case store.PlantTypeSucculent:
		return 14
	case store.PlantTypeFern:
		return 4
	case store.PlantTypeConifer:
		return 10
	case store.PlantTypeTropical:
		return 7
	default:
		return 7
	}
}
