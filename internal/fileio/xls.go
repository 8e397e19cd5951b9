package fileio

import (
	"bytes"
	"errors"
	"io"

	xls "github.com/extrame/xls"
)

// readXLS читает легаси .xls. Ширину таблицы меряем сами: Row.LastCol()
// у этого формата врёт на разреженных строках.
func readXLS(r io.Reader, headerRow int) ([]map[string]string, error) {
	if headerRow <= 0 {
		return nil, errors.New("headerRow must be 1-based and >= 1")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	// .xls из 1С чаще всего cp1251, но попадаются UTF-8 и KOI8-R
	var wb *xls.WorkBook
	var lastErr error
	for _, ch := range []string{"windows-1251", "utf-8", "koi8-r"} {
		wb, err = xls.OpenReader(bytes.NewReader(b), ch)
		if err == nil && wb != nil {
			lastErr = nil
			break
		}
		lastErr = err
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("xls: failed to open workbook")
		}
		return nil, lastErr
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	maxCols := computeMaxCols(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		cols := make([]string, maxCols)
		if row != nil {
			for j := 0; j < maxCols; j++ {
				cols[j] = cleanCell(row.Col(j))
			}
		}
		rows = append(rows, cols)
	}

	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// computeMaxCols ищет самую правую непустую ячейку по всем строкам.
func computeMaxCols(sheet *xls.WorkSheet) int {
	const probeMax = 512
	maxCols := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		for j := 0; j < probeMax; j++ {
			if cleanCell(r.Col(j)) != "" && j+1 > maxCols {
				maxCols = j + 1
			}
		}
	}
	if maxCols == 0 {
		maxCols = 1
	}
	return maxCols
}
