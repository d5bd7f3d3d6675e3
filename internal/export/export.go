// Package export writes a year of merged school data as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"absenteeismgap.org/internal/charts"
	"absenteeismgap.org/internal/schools"
)

// Sheet names in the workbook.
const (
	SheetMerged = "Merged"
	SheetTop    = "Top 20"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var mergedHeader = []interface{}{
	"DBN", "School", "Borough", "Year", "Enrollment",
	"Students in Temp Housing", "% Temp Housing", "In Shelter",
	"DHS Shelter", "Non-DHS Shelter", "Doubled Up",
	"% Chronically Absent", "Chronically Absent", "Attendance %",
}

// Workbook builds the workbook. The caller must Close it.
func Workbook(list []schools.School) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetMerged); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetTop); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeMerged(f, list); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error writing %s sheet: %w", SheetMerged, err)
	}
	if err := writeTop(f, charts.Top(list, charts.TopN)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error writing %s sheet: %w", SheetTop, err)
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
}

func writeHeader(f *excelize.File, sheet string, header []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeMerged(f *excelize.File, list []schools.School) error {
	if err := writeHeader(f, SheetMerged, mergedHeader); err != nil {
		return err
	}
	for i, s := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			s.DBN, s.Name, s.Borough, s.Year, s.Enrollment,
			s.NTempHousing, s.PctTempHousing, s.NInShelter,
			s.NDHSShelter, s.NNonDHSShelter, s.NDoubledUp,
			s.PctChronicallyAbsent, s.NChronicallyAbsent, s.AttendanceRate,
		}
		if err := f.SetSheetRow(SheetMerged, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetMerged, "B", "B", 45)
}

func writeTop(f *excelize.File, top []charts.TopRow) error {
	header := []interface{}{"#"}
	for _, c := range charts.TopColumns {
		header = append(header, c)
	}
	if err := writeHeader(f, SheetTop, header); err != nil {
		return err
	}
	for i, r := range top {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Rank, r.School, r.Borough, r.PctTempHousing, r.PctChronicallyAbsent, r.Enrollment}
		if err := f.SetSheetRow(SheetTop, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetTop, "B", "B", 45)
}

// Write streams the workbook for list to w.
func Write(w io.Writer, list []schools.School) error {
	f, err := Workbook(list)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

// SaveAs writes the workbook for list to path.
func SaveAs(path string, list []schools.School) error {
	f, err := Workbook(list)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}
