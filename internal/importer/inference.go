package importer

import (
	"regexp"
	"strings"
)

// DefaultCategory is assigned when no keyword matches the product name
const DefaultCategory = "General"

// categoryKeywords maps lower-cased name keywords to a canonical category.
// Order matters: the first matching entry wins.
var categoryKeywords = []struct {
	keywords []string
	category string
}{
	{[]string{"remera", "camiseta", "shirt", "t-shirt", "tee", "polo", "musculosa"}, "Remeras"},
	{[]string{"pantalon", "pantalón", "jean", "jeans", "jogger", "pants", "trousers", "bermuda", "short"}, "Pantalones"},
	{[]string{"buzo", "hoodie", "sweater", "sweter", "canguro"}, "Buzos"},
	{[]string{"campera", "jacket", "abrigo", "tapado", "parka"}, "Camperas"},
	{[]string{"vestido", "dress", "pollera", "falda", "skirt"}, "Vestidos"},
	{[]string{"zapatilla", "sneaker", "shoe", "bota", "sandalia", "calzado"}, "Calzado"},
	{[]string{"gorra", "cap", "cinturon", "cinturón", "belt", "medias", "riñonera", "accesorio", "accessory"}, "Accesorios"},
}

// colorKeywords maps recognized color tokens to a canonical color name
var colorKeywords = map[string]string{
	"negro": "negro", "negra": "negro", "black": "negro",
	"blanco": "blanco", "blanca": "blanco", "white": "blanco",
	"azul": "azul", "blue": "azul",
	"celeste": "celeste",
	"rojo": "rojo", "roja": "rojo", "red": "rojo",
	"verde": "verde", "green": "verde",
	"gris": "gris", "gray": "gris", "grey": "gris",
	"amarillo": "amarillo", "amarilla": "amarillo", "yellow": "amarillo",
	"rosa": "rosa", "pink": "rosa",
	"beige": "beige",
	"marron": "marron", "marrón": "marron", "brown": "marron",
	"violeta": "violeta", "purple": "violeta", "lila": "violeta",
	"naranja": "naranja", "orange": "naranja",
	"bordo": "bordo", "bordó": "bordo",
}

const sizeToken = `(?:XXXL|XXL|XL|XS|S|M|L|[2-5][0-9])`

var (
	sizeRunPattern     = regexp.MustCompile(`(?i)\b(` + sizeToken + `(?:\s*/\s*` + sizeToken + `)+)\b`)
	sizeLabeledPattern = regexp.MustCompile(`(?i)\b(?:talles?|sizes?)\s*:?\s*(` + sizeToken + `)\b`)
	wordPattern        = regexp.MustCompile(`[\p{L}-]+`)
)

// InferCategory picks a category from keywords in the product name.
// Falls back to DefaultCategory when nothing matches.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return DefaultCategory
}

// DetectSizes scans free text for size tokens. Slash-joined runs like
// "S/M/L" or "36/38/40" match anywhere; a single token needs an explicit
// size label ("talle M") to avoid false positives. Matches are returned
// upper-cased, deduplicated, in order of first appearance.
func DetectSizes(text string) []string {
	var found []string
	seen := make(map[string]bool)
	add := func(tok string) {
		upper := strings.ToUpper(strings.TrimSpace(tok))
		if upper != "" && !seen[upper] {
			seen[upper] = true
			found = append(found, upper)
		}
	}

	for _, run := range sizeRunPattern.FindAllStringSubmatch(text, -1) {
		for _, tok := range strings.Split(run[1], "/") {
			add(tok)
		}
	}
	for _, m := range sizeLabeledPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return found
}

// DetectColors scans free text for recognized color names. All matches are
// kept, not just the first, since a product may list several colors.
func DetectColors(text string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if canonical, ok := colorKeywords[word]; ok && !seen[canonical] {
			seen[canonical] = true
			found = append(found, canonical)
		}
	}
	return found
}

// DistributeStock spreads a total quantity across sizes: each size gets the
// floor share and the first totalStock mod n sizes get one extra unit, so
// the per-size values always sum back to the total and never differ by more
// than one.
func DistributeStock(totalStock int, sizes []string) map[string]int {
	if len(sizes) == 0 {
		return nil
	}
	if totalStock < 0 {
		totalStock = 0
	}
	base := totalStock / len(sizes)
	remainder := totalStock % len(sizes)
	out := make(map[string]int, len(sizes))
	for i, size := range sizes {
		qty := base
		if i < remainder {
			qty++
		}
		out[size] = qty
	}
	return out
}
