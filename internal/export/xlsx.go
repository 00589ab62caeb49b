package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// VarietySheet is the worksheet name of the variety guide workbook
const VarietySheet = "Variety Guide"

// WriteVarietyXLSX writes the variety guide as an Excel workbook
func WriteVarietyXLSX(w io.Writer, varieties []garden.Variety) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with a single "Sheet1"
	if err := f.SetSheetName(f.GetSheetName(0), VarietySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range VarietyHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(VarietySheet, cell, header); err != nil {
			return err
		}
	}

	for r, v := range varieties {
		for c, value := range VarietyRow(v) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(VarietySheet, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
