package importer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// rawFields is the untyped draft one line strategy extracts before
// normalization and inference run.
type rawFields struct {
	name        string
	category    string
	price       string
	stock       string
	sku         string
	description string
	sizes       string
	colors      string
	tags        string
	image       string
}

// Label synonyms accepted in pasted text, Spanish and English
var fieldLabels = []struct {
	field  string
	labels []string
}{
	{"category", []string{"categoria", "categoría", "category", "cat", "rubro"}},
	{"price", []string{"precio", "price", "costo", "cost", "valor"}},
	{"stock", []string{"stock", "cantidad", "quantity", "qty", "unidades", "units"}},
	{"sku", []string{"sku", "codigo", "código", "code"}},
	{"description", []string{"descripcion", "descripción", "description", "desc", "detalle"}},
	{"sizes", []string{"talles", "talle", "sizes", "size"}},
	{"colors", []string{"colores", "color", "colors"}},
	{"tags", []string{"tags", "etiquetas"}},
	{"image", []string{"imagen", "image", "img", "foto"}},
}

var (
	leadInPattern = regexp.MustCompile(`(?i)^(?:add|item|agregar|producto|alta|nuevo|sumar)\s*:\s*`)

	loosePricePattern    = regexp.MustCompile(`(?i)(?:precio|price|costo|cost|\$)\s*:?\s*(\d+(?:[.,]\d+)?)`)
	looseStockPattern    = regexp.MustCompile(`(?i)(?:stock|cantidad|qty|unidades|units)\s*:?\s*(\d+)`)
	looseCategoryPattern = regexp.MustCompile(`(?i)\bcategor(?:y|ia|ía)\s*:?\s*([\p{L}]+)`)
	looseNameCutPattern  = regexp.MustCompile(`(?i),|\bcategor(?:y|ia|ía)\b|\bprecio\b|\bprice\b|\bstock\b|\bcantidad\b|\bqty\b|\bunidades\b|\bunits\b|\$`)
)

// prefixPatterns anchor the label at the start of a segment (pipe strategy);
// searchPatterns find it anywhere inside one (semicolon strategy).
var prefixPatterns, searchPatterns = compileLabelPatterns()

func compileLabelPatterns() (map[string]*regexp.Regexp, map[string]*regexp.Regexp) {
	prefix := make(map[string]*regexp.Regexp, len(fieldLabels))
	search := make(map[string]*regexp.Regexp, len(fieldLabels))
	for _, fl := range fieldLabels {
		alternation := strings.Join(fl.labels, "|")
		prefix[fl.field] = regexp.MustCompile(`(?i)^(?:` + alternation + `)\s*:\s*(.+)$`)
		search[fl.field] = regexp.MustCompile(`(?i)(?:` + alternation + `)\s*:\s*(.+)$`)
	}
	return prefix, search
}

// Parser turns raw pasted text or a JSON document into normalized product
// records. Diagnostics go to the injected collector; a line that cannot
// yield a record is dropped without stopping the rest of the input.
type Parser struct {
	errs *Collector
}

func NewParser(errs *Collector) *Parser {
	return &Parser{errs: errs}
}

// Parse dispatches on the declared format. Unknown formats fall back to the
// free-text path.
func (p *Parser) Parse(raw string, format models.ImportFormat) []models.ParsedProduct {
	switch format {
	case models.ImportFormatJSON:
		return p.parseJSON(raw)
	default:
		return p.parseText(raw)
	}
}

func (p *Parser) parseText(raw string) []models.ParsedProduct {
	normalized := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")

	var products []models.ParsedProduct
	row := 0
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row++

		var fields rawFields
		switch {
		case strings.Contains(line, "|"):
			fields = parsePipeLine(line)
		case strings.Contains(line, ";"):
			fields = parseSemicolonLine(line)
		default:
			fields = parseLooseLine(line)
		}

		if record, ok := p.buildRecord(fields, row); ok {
			products = append(products, record)
		}
	}
	return products
}

func parsePipeLine(line string) rawFields {
	segments := strings.Split(line, "|")
	fields := rawFields{name: strings.TrimSpace(leadInPattern.ReplaceAllString(strings.TrimSpace(segments[0]), ""))}
	for _, segment := range segments[1:] {
		segment = strings.TrimSpace(segment)
		for _, fl := range fieldLabels {
			if m := prefixPatterns[fl.field].FindStringSubmatch(segment); m != nil {
				fields.set(fl.field, strings.TrimSpace(m[1]))
				break
			}
		}
	}
	return fields
}

func parseSemicolonLine(line string) rawFields {
	var fields rawFields
	for _, segment := range strings.Split(line, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		matched := false
		for _, fl := range fieldLabels {
			if m := searchPatterns[fl.field].FindStringSubmatch(segment); m != nil {
				fields.set(fl.field, strings.TrimSpace(m[1]))
				matched = true
				break
			}
		}
		if !matched && fields.name == "" {
			fields.name = strings.TrimSpace(leadInPattern.ReplaceAllString(segment, ""))
		}
	}
	return fields
}

func parseLooseLine(line string) rawFields {
	stripped := leadInPattern.ReplaceAllString(line, "")

	name := stripped
	if loc := looseNameCutPattern.FindStringIndex(stripped); loc != nil {
		name = stripped[:loc[0]]
	}

	fields := rawFields{name: strings.TrimSpace(name)}
	if m := looseCategoryPattern.FindStringSubmatch(stripped); m != nil {
		fields.category = m[1]
	}
	if m := loosePricePattern.FindStringSubmatch(stripped); m != nil {
		fields.price = m[1]
	}
	if m := looseStockPattern.FindStringSubmatch(stripped); m != nil {
		fields.stock = m[1]
	}
	return fields
}

func (p *Parser) parseJSON(raw string) []models.ParsedProduct {
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			fmt.Sprintf("invalid JSON payload: %v", err), ErrorMeta{})
		return nil
	}

	var products []models.ParsedProduct
	switch value := payload.(type) {
	case []interface{}:
		for i, element := range value {
			row := i + 1
			obj, ok := element.(map[string]interface{})
			if !ok {
				p.errs.Log(models.SeverityError, models.ErrCodeParseError,
					fmt.Sprintf("element %d is not an object", i), ErrorMeta{Row: &row})
				continue
			}
			if record, ok := p.buildRecord(objectToFields(obj), row); ok {
				products = append(products, record)
			}
		}
	case map[string]interface{}:
		row := 1
		if record, ok := p.buildRecord(objectToFields(value), row); ok {
			products = append(products, record)
		}
	default:
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			"JSON payload must be an object or an array of objects", ErrorMeta{})
	}
	return products
}

// buildRecord normalizes the extracted fields into a typed record, running
// inference for whatever the input left blank. A missing name or a price
// that stays at zero rejects the row.
func (p *Parser) buildRecord(fields rawFields, row int) (models.ParsedProduct, bool) {
	name := NormalizeName(fields.name)
	if name == "" {
		p.errs.Log(models.SeverityError, models.ErrCodeEmptyName,
			fmt.Sprintf("row %d has no product name", row), ErrorMeta{Row: &row, Field: "name"})
		return models.ParsedProduct{}, false
	}

	category := strings.TrimSpace(fields.category)
	if category == "" {
		category = InferCategory(name)
	}
	if category == "" {
		p.errs.Log(models.SeverityError, models.ErrCodeEmptyCategory,
			fmt.Sprintf("row %d has no category", row), ErrorMeta{Row: &row, Field: "category"})
		return models.ParsedProduct{}, false
	}

	price := NormalizePrice(fields.price)
	if price <= 0 {
		p.errs.Log(models.SeverityError, models.ErrCodeInvalidPrice,
			fmt.Sprintf("row %d has an invalid price %q", row, fields.price),
			ErrorMeta{Row: &row, Field: "price", Value: fields.price, AutoFixable: true,
				FixSuggestion: "Usá un número mayor a 0, por ejemplo 12500 o 12500.50."})
		return models.ParsedProduct{}, false
	}

	stock := NormalizeStock(fields.stock)
	if fields.stock != "" && stock == 0 && strings.TrimSpace(fields.stock) != "0" {
		p.errs.Log(models.SeverityWarning, models.ErrCodeInvalidStock,
			fmt.Sprintf("row %d has an unparsable stock %q, defaulting to 0", row, fields.stock),
			ErrorMeta{Row: &row, Field: "stock", Value: fields.stock, AutoFixable: true,
				FixSuggestion: "Ingresá la cantidad como número entero."})
	}

	description := strings.TrimSpace(fields.description)

	sizes := DedupeList(upperAll(SplitList(fields.sizes)))
	if len(sizes) == 0 {
		sizes = DetectSizes(fields.name + " " + description)
	}

	colors := SplitList(fields.colors)
	if len(colors) == 0 {
		colors = DetectColors(fields.name + " " + description)
	}

	image := strings.TrimSpace(fields.image)
	if image != "" && !isImageRef(image) {
		p.errs.Log(models.SeverityWarning, models.ErrCodeInvalidImageURL,
			fmt.Sprintf("row %d has an invalid image reference %q", row, image),
			ErrorMeta{Row: &row, Field: "image", Value: image})
		image = ""
	}

	return models.ParsedProduct{
		Name:         name,
		Description:  description,
		Category:     category,
		Price:        price,
		Stock:        stock,
		StockBySize:  DistributeStock(stock, sizes),
		Sizes:        sizes,
		Colors:       colors,
		SKU:          strings.TrimSpace(fields.sku),
		Tags:         SplitList(fields.tags),
		PrimaryImage: image,
		Active:       true,
	}, true
}

func (f *rawFields) set(field, value string) {
	switch field {
	case "category":
		f.category = value
	case "price":
		f.price = value
	case "stock":
		f.stock = value
	case "sku":
		f.sku = value
	case "description":
		f.description = value
	case "sizes":
		f.sizes = value
	case "colors":
		f.colors = value
	case "tags":
		f.tags = value
	case "image":
		f.image = value
	}
}

// objectToFields maps a decoded JSON object onto the draft fields, accepting
// the same label synonyms as the text strategies plus "name"/"nombre".
func objectToFields(obj map[string]interface{}) rawFields {
	var fields rawFields
	for key, value := range obj {
		lower := strings.ToLower(strings.TrimSpace(key))
		text := stringify(value)
		if lower == "name" || lower == "nombre" || lower == "producto" {
			fields.name = text
			continue
		}
		for _, fl := range fieldLabels {
			for _, label := range fl.labels {
				if lower == label {
					fields.set(fl.field, text)
				}
			}
		}
	}
	return fields
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func upperAll(items []string) []string {
	for i, item := range items {
		items[i] = strings.ToUpper(item)
	}
	return items
}
