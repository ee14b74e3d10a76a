package export

import (
	"time"

	"villabook/cmd/internal/domain/entity"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Bookings"

var headers = []string{
	"ID", "Owner", "Start", "End", "Start day", "End day",
	"Duration", "Gap", "Type", "Status", "Validated by", "Overlap",
}

// BookingsXLSX renders bookings as a workbook: a title row, a header row,
// then one row per booking.
func BookingsXLSX(title string, bookings []*entity.Booking, overlaps map[int]bool, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 2, bold); err != nil {
		return nil, err
	}

	for i, h := range headers {
		if err := setCell(f, i+1, 2, h); err != nil {
			return nil, err
		}
	}

	for r, b := range bookings {
		validatedBy := ""
		if b.Validator != nil {
			validatedBy = b.Validator.Username
		}
		row := []any{
			b.ID,
			b.Owner.Username,
			time.UnixMilli(b.StartsAt).In(loc).Format("2006-01-02"),
			time.UnixMilli(b.EndsAt).In(loc).Format("2006-01-02"),
			b.StartDay,
			b.EndDay,
			b.Duration,
			b.Gap,
			b.Type,
			b.Status,
			validatedBy,
			overlaps[b.ID],
		}
		for c, v := range row {
			if err := setCell(f, c+1, r+3, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "L", 14); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, v)
}
