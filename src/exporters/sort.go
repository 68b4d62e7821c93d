package exporters

import (
	"sort"

	"github.com/username/lossfolio/backend/src/models"
)

func sortedKeysEntity(m map[string]models.EntitySummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysFund(m map[string]models.FundSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
