package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ReadAnyMaps выбирает парсер по расширению и возвращает строки файла как
// срез map[заголовок]значение. headerRow — номер строки заголовков (1-based).
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]map[string]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, headerRow)
	case ".xls":
		return readXLS(r, headerRow)
	case ".csv":
		return readCSV(r, headerRow)
	default:
		return nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// cleanCell — обрезка + выкидываем неразрывные/узкие пробелы из выгрузок 1С.
func cleanCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u2009", " ", "\u202F", " ").Replace(s)
	return strings.TrimSpace(s)
}

// pickHeader — строка заголовков; пустым колонкам даём имя Column N.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = cleanCell(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps — AoA → []map по заголовкам, полностью пустые строки мимо.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	var out []map[string]string
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := 0; c < len(headers); c++ {
			var v string
			if c < len(rec) {
				v = cleanCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
