package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

const sheetName = "Submissions"

// WriteXLSX renders a batch of submissions as a single-sheet workbook.
func WriteXLSX(w io.Writer, subs []domain.Submission) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	for col, title := range columns {
		if err := f.SetCellValue(sheetName, cellRef(col, 1), title); err != nil {
			return fmt.Errorf("writing header cell %d: %w", col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, cellRef(0, 1), cellRef(len(columns)-1, 1), headerStyle)
	}

	for i := range subs {
		row := submissionToRow(&subs[i])
		for col, val := range row {
			if err := f.SetCellValue(sheetName, cellRef(col, i+2), val); err != nil {
				return fmt.Errorf("writing row %d: %w", i, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
