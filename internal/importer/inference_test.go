package importer

import (
	"reflect"
	"testing"
)

func TestInferCategory(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Remera Oversize Negra", "Remeras"},
		{"Black T-Shirt", "Remeras"},
		{"Jean Mom Fit", "Pantalones"},
		{"Buzo Canguro Gris", "Buzos"},
		{"Campera de Cuero", "Camperas"},
		{"Vestido Largo Floreado", "Vestidos"},
		{"Zapatilla Urbana", "Calzado"},
		{"Gorra Trucker", "Accesorios"},
		{"Producto Misterioso", "General"},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.name); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDetectSizes(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Shirt size S/M/L", []string{"S", "M", "L"}},
		{"Jean talle 38/40/42", []string{"38", "40", "42"}},
		{"Remera talle M", []string{"M"}},
		{"Buzo talles: XL", []string{"XL"}},
		{"Remera lisa", nil},
		{"Producto M de calidad", nil}, // bare token without label or run
	}
	for _, tt := range tests {
		got := DetectSizes(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DetectSizes(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectColors(t *testing.T) {
	got := DetectColors("Remera negra y blanca, también en blue")
	want := []string{"negro", "blanco", "azul"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectColors = %v, want %v", got, want)
	}
	if DetectColors("Remera lisa") != nil {
		t.Error("expected no colors for plain text")
	}
}

func TestDistributeStock(t *testing.T) {
	tests := []struct {
		name  string
		total int
		sizes []string
		want  map[string]int
	}{
		{"even split", 15, []string{"S", "M", "L"}, map[string]int{"S": 5, "M": 5, "L": 5}},
		{"remainder to first sizes", 10, []string{"S", "M", "L"}, map[string]int{"S": 4, "M": 3, "L": 3}},
		{"fewer units than sizes", 2, []string{"S", "M", "L"}, map[string]int{"S": 1, "M": 1, "L": 0}},
		{"zero stock", 0, []string{"S", "M"}, map[string]int{"S": 0, "M": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistributeStock(tt.total, tt.sizes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DistributeStock(%d, %v) = %v, want %v", tt.total, tt.sizes, got, tt.want)
			}
		})
	}

	if DistributeStock(10, nil) != nil {
		t.Error("expected nil map for empty size list")
	}
}

// The per-size assignments must always sum back to the total and never
// differ by more than one unit.
func TestDistributeStockInvariants(t *testing.T) {
	sizes := []string{"XS", "S", "M", "L", "XL"}
	for total := 0; total <= 50; total++ {
		dist := DistributeStock(total, sizes)
		sum, min, max := 0, dist[sizes[0]], dist[sizes[0]]
		for _, qty := range dist {
			sum += qty
			if qty < min {
				min = qty
			}
			if qty > max {
				max = qty
			}
		}
		if sum != total {
			t.Fatalf("total %d: distributed sum %d", total, sum)
		}
		if max-min > 1 {
			t.Fatalf("total %d: spread %d exceeds 1", total, max-min)
		}
	}
}
