package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

const (
	minNameLength        = 3
	minDescriptionLength = 20
	priceDeviationRatio  = 0.20
)

// ValidateOptions tune a validation pass
type ValidateOptions struct {
	// SuggestedPrice, when set, triggers a warning if the record's price
	// deviates from it by more than 20% in either direction.
	SuggestedPrice *float64
}

// ValidateRecord runs the field-level checks on one record. Hard errors make
// the record ineligible for persistence; warnings are enrichment gaps the
// merchant may ignore.
func ValidateRecord(record models.ParsedProduct, opts ValidateOptions) models.ValidationResult {
	var result models.ValidationResult

	name := strings.TrimSpace(record.Name)
	if name == "" {
		result.Errors = append(result.Errors, "el nombre es obligatorio")
	} else if len([]rune(name)) < minNameLength {
		result.Errors = append(result.Errors, fmt.Sprintf("el nombre debe tener al menos %d caracteres", minNameLength))
	}

	if strings.TrimSpace(record.Category) == "" {
		result.Errors = append(result.Errors, "la categoría es obligatoria")
	}

	if record.Price <= 0 {
		result.Errors = append(result.Errors, "el precio debe ser mayor a 0")
	}

	if record.Stock < 0 {
		result.Errors = append(result.Errors, "el stock no puede ser negativo")
	}

	if len([]rune(strings.TrimSpace(record.Description))) < minDescriptionLength {
		result.Warnings = append(result.Warnings, "una descripción de al menos 20 caracteres mejora la ficha del producto")
	}
	if record.PrimaryImage == "" {
		result.Warnings = append(result.Warnings, "sin imagen se usará una imagen por defecto")
	}
	if len(record.Tags) == 0 {
		result.Warnings = append(result.Warnings, "agregar tags mejora las búsquedas")
	}
	if opts.SuggestedPrice != nil && *opts.SuggestedPrice > 0 && record.Price > 0 {
		deviation := math.Abs(record.Price-*opts.SuggestedPrice) / *opts.SuggestedPrice
		if deviation > priceDeviationRatio {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("el precio difiere más de un 20%% del sugerido ($%.2f)", *opts.SuggestedPrice))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
