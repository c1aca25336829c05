package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sheetName = "Report"

// ExportCSV writes the result as CSV with a header row
func ExportCSV(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(result.Columns); err != nil {
		return nil, err
	}
	for _, rec := range result.Data {
		row := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			row[i] = FormatCell(rec[col])
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportXLSX writes the result into a single styled sheet
func ExportXLSX(result *Result, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")
	_ = f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "bulk-webhook"})

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range result.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, record := range result.Data {
		for colIdx, col := range result.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			switch v := record[col].(type) {
			case nil:
			case int, int32, int64, float32, float64, bool:
				f.SetCellValue(sheetName, cell, v)
			default:
				f.SetCellValue(sheetName, cell, FormatCell(v))
			}
		}
	}

	for i := range result.Columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// FormatCell renders a value the way it should appear in a spreadsheet
func FormatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case primitive.DateTime:
		return v.Time().UTC().Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return v.Hex()
	case map[string]any:
		if name, ok := v["name"]; ok {
			return fmt.Sprintf("%v", name)
		}
		return fmt.Sprintf("%v", v)
	case primitive.M:
		return FormatCell(map[string]any(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
