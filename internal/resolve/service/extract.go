package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"nameres-service/internal/resolve/model"
)

// Правила извлечения — явный упорядоченный список чистых функций над
// словами сложенной строки; результаты объединяются в множества.

// 0,5 → 0.5 (до разбиения на слова, иначе десятичная часть потеряется)
var decComma = regexp.MustCompile(`(\d),(\d)`)

// слово — последовательность [a-z0-9.] в сложенной строке
var reWord = regexp.MustCompile(`[a-z0-9.]+`)

// код: буквы, затем цифры, затем опциональный хвост (xtr111, bat54c, tny274gntl)
var reCode = regexp.MustCompile(`^[a-z]+[0-9]+[a-z0-9]*$`)

// числовой литерал с опционально приклеенной единицей: 4.7kom, 12mm, 100
var reValue = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-z]+)?$`)

var reDigits = regexp.MustCompile(`^[0-9]+$`)
var reLetters = regexp.MustCompile(`^[a-z]+$`)

// Словарь единиц: алиас после Fold → каноническая форма. Ключи — то, во
// что единица складывается ПОСЛЕ двойников и транслитерации: «кОм»→kom,
// «нФ»→hf, «В»→b, «Вт»→bt, «мкГн»→mkgh. Голая «b» трактуется как вольты:
// отдельного слова «50b» в этих выгрузках с другим смыслом не бывает.
var unitAliases = map[string]string{
	// сопротивление
	"om": "om", "ohm": "om",
	"kom": "kom", "kohm": "kom",
	"mom": "mom", "mohm": "mom",
	// ёмкость
	"f": "f", "pf": "pf", "nf": "nf", "hf": "nf", "mkf": "mkf", "uf": "mkf",
	// индуктивность
	"gn": "gn", "gh": "gn", "mgn": "mgn", "mgh": "mgn", "mh": "mgn",
	"mkgn": "mkgn", "mkgh": "mkgn", "uh": "mkgn",
	// электрика прочее
	"v": "v", "b": "v", "kv": "kv", "kb": "kv",
	"a": "a", "ma": "ma", "w": "w", "vt": "w", "bt": "w",
	// габариты
	"mm": "mm", "sm": "sm", "cm": "sm", "m": "m",
}

// Числа короче трёх цифр кодами не считаем — слишком много случайных
// совпадений («2 шт», «12мм»).
const bareCodeMinLen = 3

type Extractor struct {
	norm  *Normalizer
	units map[string]string
}

func NewExtractor(n *Normalizer) *Extractor {
	return &Extractor{norm: n, units: unitAliases}
}

func (e *Extractor) Normalizer() *Normalizer { return e.norm }

func (e *Extractor) isUnit(w string) bool {
	_, ok := e.units[w]
	return ok
}

// Profile строит нормализованный профиль имени. Token — канонический
// Normalize(raw); коды и значения извлекаются из сложенной (но ещё не
// ободранной) формы, где жив десятичный разделитель.
func (e *Extractor) Profile(raw string) model.Profile {
	token := e.norm.Normalize(raw)
	if token == "" {
		return model.Profile{}
	}

	folded := decComma.ReplaceAllString(e.norm.Fold(raw), "$1.$2")
	words := reWord.FindAllString(folded, -1)

	codes := make(map[string]struct{})
	values := make(map[model.Value]struct{})

	addValue := func(numStr, unit string) {
		f, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return
		}
		// незнакомый приклеенный суффикс не должен ронять само число
		canon, ok := e.units[unit]
		if !ok {
			canon = ""
		}
		values[model.Value{Num: f, Unit: canon}] = struct{}{}
	}

	for i, w := range words {
		// значение: число с приклеенной единицей либо голое число
		if m := reValue.FindStringSubmatch(w); m != nil {
			num, unit := m[1], m[2]
			addValue(num, unit)
			// «4.7 kom» → единица отдельным словом, приклеиваем
			if unit == "" && i+1 < len(words) && e.isUnit(words[i+1]) {
				addValue(num, words[i+1])
			}
		}

		cw := strings.ReplaceAll(w, ".", "")

		// код целиком в одном слове
		if reCode.MatchString(cw) {
			codes[cw] = struct{}{}
		}

		// голый числовой артикул (0603, 1117); извлекается независимо
		// от того, что то же число попало и в значения
		if reDigits.MatchString(cw) && len(cw) >= bareCodeMinLen {
			codes[cw] = struct{}{}
		}

		// составной код из соседних слов: «xtr 111» → «xtr111»
		if reLetters.MatchString(w) && !e.isUnit(w) &&
			i+1 < len(words) && reDigits.MatchString(words[i+1]) {
			codes[w+words[i+1]] = struct{}{}
		}
	}

	return model.Profile{
		Token:  token,
		Codes:  sortedCodes(codes),
		Values: sortedValues(values),
	}
}

// ===== helpers =====

func sortedCodes(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func sortedValues(m map[model.Value]struct{}) []model.Value {
	out := make([]model.Value, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Unit != out[j].Unit {
			return out[i].Unit < out[j].Unit
		}
		return out[i].Num < out[j].Num
	})
	return out
}
