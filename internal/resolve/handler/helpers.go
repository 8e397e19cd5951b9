package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"nameres-service/internal/middleware"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func requestID(r *http.Request) string {
	if rid := middleware.GetRequestID(r); rid != "" {
		return rid
	}
	return r.Header.Get("X-Request-ID")
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

var rxHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey — имя колонки к сравнимому виду: нижний регистр, без
// служебных символов, ё→е.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "ё", "е").Replace(s)
	s = rxHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey ищет реальный ключ записи по желаемому имени колонки.
// Поддерживает альтернативы через "|" («Наименование|Номенклатура»)
// и частичные совпадения для составных заголовков 1С.
func resolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// точное совпадение как есть
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	var nAlts []string
	for _, a := range alts {
		nAlts = append(nAlts, normHeaderKey(a))
	}

	bestKey, bestScore := "", 0
	for k := range rec {
		nk := normHeaderKey(k)
		for _, n := range nAlts {
			if nk == n {
				return k
			}
		}
		// частичное: want ⊂ key или key ⊂ want
		score := 0
		for _, n := range nAlts {
			if n != "" && (strings.Contains(nk, n) || strings.Contains(n, nk)) && len(n) > score {
				score = len(n)
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}
