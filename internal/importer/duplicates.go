package importer

import (
	"fmt"
	"strings"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// DetectDuplicates groups record indices by trimmed lower-cased name.
// Only names appearing more than once are returned, every participating
// index included.
func DetectDuplicates(records []models.ParsedProduct) map[string][]int {
	byName := make(map[string][]int)
	for i, record := range records {
		key := strings.ToLower(strings.TrimSpace(record.Name))
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], i)
	}
	for key, indices := range byName {
		if len(indices) < 2 {
			delete(byName, key)
		}
	}
	return byName
}

// ReportDuplicates logs one warning per duplicate group. Duplicates never
// block persistence on their own; the operator decides what to keep.
func ReportDuplicates(records []models.ParsedProduct, errs *Collector) {
	for name, indices := range DetectDuplicates(records) {
		rows := make([]string, len(indices))
		for i, idx := range indices {
			rows[i] = fmt.Sprintf("%d", idx+1)
		}
		errs.Log(models.SeverityWarning, models.ErrCodeDuplicate,
			fmt.Sprintf("name %q appears on rows %s", name, strings.Join(rows, ", ")),
			ErrorMeta{Value: name, Field: "name"})
	}
}
