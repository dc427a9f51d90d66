package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

const contentCheckLimit = 1 << 20 // deep content checks only below 1MB

// FileCheckOptions tune the pre-ingestion file validation
type FileCheckOptions struct {
	MaxSizeMB         int
	AllowedExtensions []string
	RequiredColumns   []string
}

// DefaultFileCheckOptions returns the standard upload policy.
// RequiredColumns are canonical field names; header cells are matched
// through the same synonym table the parser uses, so "nombre" and "name"
// both satisfy the name requirement.
func DefaultFileCheckOptions() FileCheckOptions {
	return FileCheckOptions{
		MaxSizeMB:         10,
		AllowedExtensions: []string{"csv", "xlsx", "xls", "json", "txt"},
		RequiredColumns:   []string{"name", "price"},
	}
}

// requiredColumnLabels holds the user-facing Spanish name per canonical field
var requiredColumnLabels = map[string]string{
	"name":  "nombre",
	"price": "precio",
	"stock": "stock",
}

// mimeByExtension lists the MIME types commonly declared per extension.
// A mismatch is only worth a warning since browsers are unreliable here.
var mimeByExtension = map[string][]string{
	"csv":  {"text/csv", "application/csv", "text/plain", "application/vnd.ms-excel"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/octet-stream"},
	"xls":  {"application/vnd.ms-excel", "application/octet-stream"},
	"json": {"application/json", "text/json", "text/plain"},
	"txt":  {"text/plain"},
}

// CheckFile runs the pre-parse validation over an upload: size and extension
// are hard gates, MIME mismatches and content-shape oddities only warn.
// Content is inspected only for small text formats to bound cost. Pure
// function over the given bytes.
func CheckFile(meta models.FileMetadata, content []byte, opts FileCheckOptions) models.FileValidationResult {
	if meta.Extension == "" {
		meta.Extension = strings.TrimPrefix(strings.ToLower(filepath.Ext(meta.Name)), ".")
	}
	result := models.FileValidationResult{IsValid: true, Metadata: meta}

	fail := func(msg string) {
		result.IsValid = false
		result.Errors = append(result.Errors, msg)
	}
	warn := func(msg string) {
		result.Warnings = append(result.Warnings, msg)
	}

	if meta.SizeBytes <= 0 {
		fail("el archivo está vacío")
		return result
	}
	if float64(meta.SizeBytes)/(1<<20) > float64(opts.MaxSizeMB) {
		fail(fmt.Sprintf("el archivo supera el máximo de %dMB", opts.MaxSizeMB))
	}

	allowed := false
	for _, ext := range opts.AllowedExtensions {
		if meta.Extension == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		fail(fmt.Sprintf("extensión .%s no soportada (permitidas: %s)",
			meta.Extension, strings.Join(opts.AllowedExtensions, ", ")))
	}

	if meta.MimeType != "" && allowed {
		known := mimeByExtension[meta.Extension]
		matched := false
		for _, mime := range known {
			if strings.EqualFold(meta.MimeType, mime) {
				matched = true
				break
			}
		}
		if !matched {
			warn(fmt.Sprintf("el tipo declarado %q no coincide con la extensión .%s", meta.MimeType, meta.Extension))
		}
	}

	if !result.IsValid || len(content) == 0 || meta.SizeBytes >= contentCheckLimit {
		return result
	}

	switch meta.Extension {
	case "csv":
		checkCSVShape(string(content), opts.RequiredColumns, fail, warn)
	case "json":
		checkJSONShape(content, fail, warn)
	case "txt":
		if len(strings.TrimSpace(string(content))) < 10 {
			warn("el archivo de texto parece demasiado corto")
		}
	case "xlsx":
		checkXLSXShape(content, opts.RequiredColumns, fail, warn)
	case "xls":
		warn("la validación profunda de planillas .xls se hace durante la importación")
	}
	return result
}

func checkCSVShape(text string, requiredColumns []string, fail, warn func(string)) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		fail("el CSV no tiene contenido")
		return
	}

	headerCells := strings.Split(lines[0], ",")
	for i, cell := range headerCells {
		headerCells[i] = strings.Trim(cell, `" `)
	}
	requireHeaderColumns(headerCells, requiredColumns, fail)

	if len(lines) == 1 {
		warn("el CSV tiene encabezado pero ninguna fila de datos")
		return
	}
	expected := len(headerCells)
	sample := lines[1:]
	if len(sample) > 10 {
		sample = sample[:10]
	}
	for i, line := range sample {
		if len(strings.Split(line, ",")) != expected {
			warn(fmt.Sprintf("la fila %d tiene una cantidad de columnas distinta al encabezado", i+1))
		}
	}
}

// requireHeaderColumns checks that every required field has a header cell
// resolving to it through the parser's synonym table, in either language.
func requireHeaderColumns(headerCells []string, requiredColumns []string, fail func(string)) {
	present := make(map[string]bool, len(headerCells))
	for _, cell := range headerCells {
		if field := headerField(cell); field != "" {
			present[field] = true
		}
	}
	for _, required := range requiredColumns {
		if present[required] {
			continue
		}
		label := requiredColumnLabels[required]
		if label == "" {
			label = required
		}
		fail(fmt.Sprintf("falta la columna requerida %q en el encabezado", label))
	}
}

// checkXLSXShape opens the workbook with excelize and applies the same header
// requirements as the CSV check. Unreadable bytes are a hard reject since the
// importer would fail on them anyway.
func checkXLSXShape(content []byte, requiredColumns []string, fail, warn func(string)) {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		fail("el archivo no es una planilla XLSX válida")
		return
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		fail("la planilla no tiene hojas")
		return
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil || len(rows) == 0 {
		fail("la planilla no tiene contenido")
		return
	}
	requireHeaderColumns(rows[0], requiredColumns, fail)
	if len(rows) == 1 {
		warn("la planilla tiene encabezado pero ninguna fila de datos")
	}
}

func checkJSONShape(content []byte, fail, warn func(string)) {
	var payload interface{}
	if err := json.Unmarshal(content, &payload); err != nil {
		fail("el archivo no es JSON válido")
		return
	}
	switch value := payload.(type) {
	case []interface{}:
		if len(value) == 0 {
			warn("el JSON es una lista vacía")
			return
		}
		first, ok := value[0].(map[string]interface{})
		if !ok {
			warn("los elementos del JSON no son objetos")
			return
		}
		if !hasNameField(first) {
			warn("los objetos no tienen un campo de nombre reconocible")
		}
	case map[string]interface{}:
		if !hasNameField(value) {
			warn("el objeto no tiene un campo de nombre reconocible")
		}
	default:
		fail("el JSON debe ser un objeto o una lista de objetos")
	}
}

func hasNameField(obj map[string]interface{}) bool {
	for key := range obj {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name", "nombre", "producto":
			return true
		}
	}
	return false
}
