package importer

import (
	"testing"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

func validRecord() models.ParsedProduct {
	return models.ParsedProduct{
		Name:         "Remera Oversize Negra",
		Category:     "Remeras",
		Price:        12500,
		Stock:        10,
		Description:  "Remera de algodón peinado, calce oversize",
		PrimaryImage: "https://cdn.example.com/remera.jpg",
		Tags:         []string{"verano"},
		Active:       true,
	}
}

func TestValidateRecordHardErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ParsedProduct)
	}{
		{"empty name", func(r *models.ParsedProduct) { r.Name = "" }},
		{"short name", func(r *models.ParsedProduct) { r.Name = "ab" }},
		{"empty category", func(r *models.ParsedProduct) { r.Category = "" }},
		{"zero price", func(r *models.ParsedProduct) { r.Price = 0 }},
		{"negative price", func(r *models.ParsedProduct) { r.Price = -10 }},
		{"negative stock", func(r *models.ParsedProduct) { r.Stock = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)
			result := ValidateRecord(record, ValidateOptions{})
			if result.IsValid {
				t.Errorf("expected invalid record, errors=%v", result.Errors)
			}
		})
	}
}

func TestValidateRecordWarningsDoNotBlock(t *testing.T) {
	record := validRecord()
	record.Description = "corta"
	record.PrimaryImage = ""
	record.Tags = nil

	result := ValidateRecord(record, ValidateOptions{})
	if !result.IsValid {
		t.Fatalf("warnings must not block: %v", result.Errors)
	}
	if len(result.Warnings) != 3 {
		t.Errorf("warnings = %v, want 3 entries", result.Warnings)
	}
}

func TestValidateRecordSuggestedPriceDeviation(t *testing.T) {
	suggested := 10000.0

	record := validRecord()
	record.Price = 13000 // 30% above
	result := ValidateRecord(record, ValidateOptions{SuggestedPrice: &suggested})
	if !result.IsValid {
		t.Fatal("deviation is a warning, not an error")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a price deviation warning")
	}

	record.Price = 11000 // 10% above, within tolerance
	result = ValidateRecord(record, ValidateOptions{SuggestedPrice: &suggested})
	for _, warning := range result.Warnings {
		if warning == "el precio difiere más de un 20% del sugerido ($10000.00)" {
			t.Error("10% deviation should not warn")
		}
	}
}
