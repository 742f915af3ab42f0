package work_report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Column Name Constants
const (
	sheetNameSets        = "工单明细"
	sheetNameTechnicians = "技术员汇总"

	colSetID         = "工单ID"
	colAssetSerial   = "资产序列号"
	colAssetName     = "资产名称"
	colTaskName      = "任务名称"
	colCompletedBy   = "完成人"
	colEndDate       = "完成时间"
	colBillableHours = "计费工时"
	colActionCount   = "步骤数"

	colUsername      = "技术员"
	colCompletedSets = "完成工单数"
	colTotalHours    = "计费工时合计"
)

var setColumns = []string{
	colSetID, colAssetSerial, colAssetName, colTaskName,
	colCompletedBy, colEndDate, colBillableHours, colActionCount,
}

var technicianColumns = []string{colUsername, colCompletedSets, colTotalHours}

// GenerateWorkReportExcel 生成周报 Excel 工作簿
func GenerateWorkReportExcel(data ReportTemplateData) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSetSheet(f, data.CompletedSets); err != nil {
		return nil, err
	}
	if err := writeTechnicianSheet(f, data.Technicians); err != nil {
		return nil, err
	}

	// 删除默认 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheetNameSets)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func writeSetSheet(f *excelize.File, rows []CompletedSetRow) error {
	if _, err := f.NewSheet(sheetNameSets); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetNameSets, err)
	}

	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, col := range setColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetNameSets, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetNameSets, cell, cell, style); err != nil {
			return err
		}
	}

	for r, row := range rows {
		values := []interface{}{
			row.SetID, row.AssetSerial, row.AssetName, row.TaskName,
			row.CompletedBy, row.EndDate, row.BillableHours, row.ActionCount,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetNameSets, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTechnicianSheet(f *excelize.File, rows []TechnicianSummary) error {
	if _, err := f.NewSheet(sheetNameTechnicians); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetNameTechnicians, err)
	}

	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	for i, col := range technicianColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetNameTechnicians, cell, col); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetNameTechnicians, cell, cell, style); err != nil {
			return err
		}
	}

	for r, row := range rows {
		values := []interface{}{row.Username, row.CompletedSets, row.BillableHours}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetNameTechnicians, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
