package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// VarietyHeader is the header row of the variety guide table
var VarietyHeader = []string{"Crop", "Season", "Variety", "Experience Level", "Organic", "Seed Link"}

// emptyCellLine is a one-column row holding an empty quoted field
const emptyCellLine = "\"\"\n"

// WriteLayoutCSV writes the bed with a header of column indexes ("0".."n-1").
// Empty cells are written as empty fields.
func WriteLayoutCSV(w io.Writer, l *garden.Layout) error {
	cw := csv.NewWriter(w)

	header := make([]string, l.Cols())
	for c := range header {
		header[c] = strconv.Itoa(c)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range l.Grid() {
		// encoding/csv writes a lone empty field as a blank line, which
		// readers skip
		if len(row) == 1 && row[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("write layout csv: %w", err)
			}
			if _, err := io.WriteString(w, emptyCellLine); err != nil {
				return fmt.Errorf("write layout csv: %w", err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write layout csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write layout csv: %w", err)
	}
	return nil
}

// ReadLayoutCSV parses a file written by WriteLayoutCSV
func ReadLayoutCSV(r io.Reader) (*garden.Layout, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read layout csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("read layout csv: no rows")
	}
	return garden.LayoutFromGrid(records[1:])
}

// VarietyRow renders one variety as a table row
func VarietyRow(v garden.Variety) []string {
	organic := "No"
	if v.Organic {
		organic = "Yes"
	}
	return []string{v.Group, v.Season, v.Name, string(v.Level), organic, v.Link}
}

// WriteVarietyCSV writes the variety guide table
func WriteVarietyCSV(w io.Writer, varieties []garden.Variety) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(VarietyHeader); err != nil {
		return err
	}
	for _, v := range varieties {
		if err := cw.Write(VarietyRow(v)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
