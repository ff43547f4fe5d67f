package xlsexport

import (
	"bytes"

	requestapimodels "org-portal-backend/models/api/request"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Provider interface {
	ExportRequestHistory(title string, list []requestapimodels.HistoryItem, stepNames map[string]string) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var historyHeaders = []string{"التاريخ", "المرحلة", "المستخدم", "الإجراء", "الملاحظات"}

func (i impl) ExportRequestHistory(title string, list []requestapimodels.HistoryItem, stepNames map[string]string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("xlsx file close failed")
		}
	}()
	sheet := "Sheet1"
	rtl := true
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, errors.Wrap(err, "xlsx sheet view failed")
	}
	row := 0
	row, err := writeTitle(f, sheet, row, title, len(historyHeaders))
	if err != nil {
		return nil, errors.Wrap(err, "xlsx title failed")
	}
	row, err = writeHeader(f, sheet, row, historyHeaders)
	if err != nil {
		return nil, errors.Wrap(err, "xlsx header failed")
	}
	if len(list) != 0 {
		row, err = writeHistoryData(f, sheet, list, stepNames, row)
		if err != nil {
			return nil, errors.Wrap(err, "xlsx data failed")
		}
	}
	if err = f.SetSheetName(sheet, "سجل الاعتماد"); err != nil {
		return nil, errors.Wrap(err, "xlsx sheet rename failed")
	}
	return f.WriteToBuffer()
}

func writeHistoryData(f *excelize.File, sheet string, list []requestapimodels.HistoryItem, stepNames map[string]string, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(historyHeaders), row+len(list)); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		values := []interface{}{
			item.Time.Format("2006-01-02 15:04"),
			stepNames[item.StepID],
			item.UserName,
			item.Status,
			item.Comments,
		}
		for idx, value := range values {
			if err := writeColumn(f, sheet, idx+1, row, value); err != nil {
				return row, err
			}
		}
	}
	return row, nil
}
