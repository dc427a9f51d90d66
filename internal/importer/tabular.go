package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/reqini/catalogo-indumentaria-sub002/internal/models"
)

// headerField maps one lower-cased header cell onto a draft field name.
// "name"/"nombre" is handled apart because it is not a labeled segment in
// the text strategies.
func headerField(header string) string {
	lower := strings.ToLower(strings.TrimSpace(header))
	if lower == "name" || lower == "nombre" || lower == "producto" {
		return "name"
	}
	for _, fl := range fieldLabels {
		for _, label := range fl.labels {
			if lower == label {
				return fl.field
			}
		}
	}
	return ""
}

// ParseCSV reads a CSV payload whose first row is the header. Unrecognized
// columns are ignored; each data row becomes one candidate record.
func (p *Parser) ParseCSV(content []byte) []models.ParsedProduct {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			fmt.Sprintf("cannot read CSV header: %v", err), ErrorMeta{})
		return nil
	}

	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = headerField(cell)
	}

	var products []models.ParsedProduct
	row := 0
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			r := row
			p.errs.Log(models.SeverityError, models.ErrCodeParseError,
				fmt.Sprintf("row %d is not valid CSV: %v", row, err), ErrorMeta{Row: &r})
			continue
		}
		if record, ok := p.buildRecord(cellsToFields(columns, cells), row); ok {
			products = append(products, record)
		}
	}
	return products
}

// ParseXLSX reads the first sheet of a spreadsheet, first row as header.
func (p *Parser) ParseXLSX(content []byte) []models.ParsedProduct {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			fmt.Sprintf("cannot open spreadsheet: %v", err), ErrorMeta{})
		return nil
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError, "spreadsheet has no sheets", ErrorMeta{})
		return nil
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			fmt.Sprintf("cannot read sheet %q: %v", sheets[0], err), ErrorMeta{})
		return nil
	}
	if len(rows) < 2 {
		p.errs.Log(models.SeverityCritical, models.ErrCodeParseError,
			"spreadsheet has a header but no data rows", ErrorMeta{})
		return nil
	}

	columns := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		columns[i] = headerField(cell)
	}

	var products []models.ParsedProduct
	for i, cells := range rows[1:] {
		row := i + 1
		if isBlankRow(cells) {
			continue
		}
		if record, ok := p.buildRecord(cellsToFields(columns, cells), row); ok {
			products = append(products, record)
		}
	}
	return products
}

// BuildTemplateXLSX renders the import template as a downloadable workbook:
// a styled header row, sample data and an instructions sheet.
func BuildTemplateXLSX(template models.ImportTemplate) (*bytes.Buffer, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	headerStyle, _ := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := workbook.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	sheet := workbook.GetSheetName(0)
	for i, column := range template.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("template header cell: %w", err)
		}
		name := column.Name
		if column.Required {
			name += " *"
		}
		if err := workbook.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("template header cell: %w", err)
		}
		if column.Required {
			workbook.SetCellStyle(sheet, cell, cell, requiredStyle)
		} else {
			workbook.SetCellStyle(sheet, cell, cell, headerStyle)
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		workbook.SetColWidth(sheet, colName, colName, 20)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, column := range template.Columns {
			value, ok := sample[column.Name]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("template sample cell: %w", err)
			}
			if err := workbook.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("template sample cell: %w", err)
			}
		}
	}

	writeTemplateInstructions(workbook, template)

	if idx, err := workbook.GetSheetIndex(sheet); err == nil {
		workbook.SetActiveSheet(idx)
	}
	return workbook.WriteToBuffer()
}

func writeTemplateInstructions(workbook *excelize.File, template models.ImportTemplate) {
	const sheet = "Instrucciones"
	workbook.NewSheet(sheet)
	workbook.SetCellValue(sheet, "A1", "Cómo importar productos")
	workbook.SetCellValue(sheet, "A3", "Completá una fila por producto en la primera hoja.")
	workbook.SetCellValue(sheet, "A4", "Las columnas marcadas con * son obligatorias.")
	workbook.SetCellValue(sheet, "A5", "Las categorías que no existan se crean automáticamente.")
	workbook.SetCellValue(sheet, "A6", "Si cargás talles sin stock por talle, el stock total se reparte en partes iguales.")

	workbook.SetCellValue(sheet, "A8", "Columna")
	workbook.SetCellValue(sheet, "B8", "Descripción")
	workbook.SetCellValue(sheet, "C8", "Obligatoria")
	workbook.SetCellValue(sheet, "D8", "Tipo")
	workbook.SetCellValue(sheet, "E8", "Ejemplo")
	for i, column := range template.Columns {
		row := i + 9
		workbook.SetCellValue(sheet, fmt.Sprintf("A%d", row), column.Name)
		workbook.SetCellValue(sheet, fmt.Sprintf("B%d", row), column.Description)
		required := "No"
		if column.Required {
			required = "Sí"
		}
		workbook.SetCellValue(sheet, fmt.Sprintf("C%d", row), required)
		workbook.SetCellValue(sheet, fmt.Sprintf("D%d", row), column.Type)
		workbook.SetCellValue(sheet, fmt.Sprintf("E%d", row), column.Example)
	}
	workbook.SetColWidth(sheet, "A", "A", 18)
	workbook.SetColWidth(sheet, "B", "B", 60)
	workbook.SetColWidth(sheet, "C", "C", 12)
	workbook.SetColWidth(sheet, "D", "D", 12)
	workbook.SetColWidth(sheet, "E", "E", 35)
}

func cellsToFields(columns []string, cells []string) rawFields {
	var fields rawFields
	for i, cell := range cells {
		if i >= len(columns) || columns[i] == "" {
			continue
		}
		value := strings.TrimSpace(cell)
		if value == "" {
			continue
		}
		if columns[i] == "name" {
			fields.name = value
		} else {
			fields.set(columns[i], value)
		}
	}
	return fields
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
