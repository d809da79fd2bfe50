package generate_excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"shopfloor/internal/service"
	"shopfloor/internal/service/timeline"
)

type TimelineProvider interface {
	Timeline(ctx context.Context, scope service.Scope, orderIDs []int64) ([]timeline.Entry, error)
}

type GenerateExcelService struct {
	timeline TimelineProvider
}

func NewGenerateService(timeline TimelineProvider) *GenerateExcelService {
	return &GenerateExcelService{timeline: timeline}
}

const (
	sheet      = "Timeline"
	dateLayout = "2006-01-02 15:04"
)

var headers = []string{"ID", "Уровень", "Наименование", "Начало", "Окончание", "Готовность, %", "Статус", "Родитель"}

// GenerateExcel выгружает ленту Ганта в xlsx, одна строка на полосу.
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, scope service.Scope, orderIDs []int64) ([]byte, error) {
	const op = "service.generate-excel.GenerateExcel"

	entries, err := g.timeline.Timeline(ctx, scope, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch timeline: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// --- СТИЛИ ---
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle)

	for rowIdx, e := range entries {
		row := rowIdx + 2

		f.SetCellValue(sheet, cellName(1, row), e.ID)
		f.SetCellValue(sheet, cellName(2, row), convertLevel(e.Level))
		f.SetCellValue(sheet, cellName(3, row), indent(e)+e.Label)
		f.SetCellValue(sheet, cellName(4, row), e.Start.Format(dateLayout))
		f.SetCellValue(sheet, cellName(5, row), e.End.Format(dateLayout))
		f.SetCellValue(sheet, cellName(6, row), e.ProgressPercent)
		f.SetCellValue(sheet, cellName(7, row), e.Status)
		f.SetCellValue(sheet, cellName(8, row), e.Parent)
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(sheet, "A", "B", 12)
	f.SetColWidth(sheet, "C", "C", 40)
	f.SetColWidth(sheet, "D", "H", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write buffer: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func indent(e timeline.Entry) string {
	return strings.Repeat("  ", len(e.Ancestors))
}

func convertLevel(level timeline.Level) string {
	switch level {
	case timeline.LevelOrder:
		return "заказ"
	case timeline.LevelMO:
		return "MO"
	case timeline.LevelJobsheet:
		return "наряд"
	case timeline.LevelTask:
		return "задача"
	default:
		return string(level)
	}
}
