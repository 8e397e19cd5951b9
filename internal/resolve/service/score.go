package service

import (
	"sort"
	"strconv"
	"strings"

	"nameres-service/internal/resolve/model"
)

// Weights — все константы скоринга и порог принятия в одном месте.
// Правила аддитивны; ничего, кроме кодов и значений, в счёт не входит —
// расстояние редактирования по всему имени даёт ложные совпадения на
// описательных словах и потому запрещено.
type Weights struct {
	ExactCode      int            // точное равенство буквенно-цифровых кодов, сильнейший сигнал
	ExactCodeBare  int            // точное равенство чисто числовых кодов: типоразмеры вроде 0603 совпадают у разных семейств
	CodeOverlap    int            // за руну общего фрагмента при вхождении кода в код
	CodeOverlapCap int            // потолок бонуса вхождения, строго < ExactCode
	MinOverlap     int            // более короткое общее вхождение — шум
	MinOverlapBare int            // для чисто числового вложенного кода: «111» внутри «ld1117» ничего не значит
	ValueBase      int            // базовый бонус за общее значение
	UnitWeight     map[string]int // специфичность единицы измерения
	Threshold      int            // порог принятия лучшего кандидата
}

// Порог 100: выше любого одиночного совпадения голых чисел (40) и любого
// вхождения короче минимальной длины, но ниже самого слабого осмысленного
// сигнала (трёхрунное вхождение кода = 180, значение с единицей = 160).
func DefaultWeights() Weights {
	return Weights{
		ExactCode:      1000,
		ExactCodeBare:  300,
		CodeOverlap:    60,
		CodeOverlapCap: 900,
		MinOverlap:     3,
		MinOverlapBare: 4,
		ValueBase:      40,
		UnitWeight: map[string]int{
			"": 1,
			// габариты — умеренно специфичны
			"mm": 2, "sm": 2, "m": 2,
			// электрические единицы — почти артикул
			"om": 4, "kom": 4, "mom": 4,
			"f": 4, "pf": 4, "nf": 4, "mkf": 4,
			"gn": 4, "mgn": 4, "mkgn": 4,
			"v": 4, "kv": 4, "a": 4, "ma": 4, "w": 4,
		},
		Threshold: 100,
	}
}

func (w Weights) unitWeight(unit string) int {
	if k, ok := w.UnitWeight[unit]; ok {
		return k
	}
	return 1
}

// scoreProfiles сравнивает два профиля и возвращает счёт с причинами.
func scoreProfiles(in, cand model.Profile, w Weights) (int, []string) {
	score := 0
	var reasons []string

	// лучший бонус на каждый входящий код
	for _, a := range in.Codes {
		best, reason := 0, ""
		for _, b := range cand.Codes {
			bonus, why := codeBonus(a, b, w)
			if bonus > best {
				best, reason = bonus, why
			}
		}
		if best > 0 {
			score += best
			reasons = append(reasons, reason)
		}
	}

	// общие значения (число и единица равны)
	for _, v := range in.Values {
		for _, cv := range cand.Values {
			if v == cv {
				score += w.ValueBase * w.unitWeight(v.Unit)
				reasons = append(reasons, "value:"+formatValue(v))
				break
			}
		}
	}

	return score, reasons
}

func codeBonus(a, b string, w Weights) (int, string) {
	if a == b {
		if reDigits.MatchString(a) {
			return w.ExactCodeBare, "code:" + a
		}
		return w.ExactCode, "code:" + a
	}
	// вхождение в любую сторону; длина общего фрагмента = длина короткого
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter := a
		if len([]rune(b)) < len([]rune(a)) {
			shorter = b
		}
		n := len([]rune(shorter))
		min := w.MinOverlap
		if reDigits.MatchString(shorter) {
			min = w.MinOverlapBare
		}
		if n < min {
			return 0, ""
		}
		bonus := n * w.CodeOverlap
		if bonus > w.CodeOverlapCap {
			bonus = w.CodeOverlapCap
		}
		return bonus, "code:" + a + "~" + b
	}
	return 0, ""
}

func formatValue(v model.Value) string {
	return strconv.FormatFloat(v.Num, 'f', -1, 64) + v.Unit
}

type scored struct {
	ep      entryProfile
	score   int
	reasons []string
}

// rank скорит вход против всех профилей каталога и сортирует по убыванию
// счёта; при равенстве предпочитаем более короткий токен (более
// специфичную запись), затем меньший id — ради детерминизма.
func rank(in model.Profile, profs []entryProfile, w Weights) []scored {
	out := make([]scored, 0, len(profs))
	for _, ep := range profs {
		s, reasons := scoreProfiles(in, ep.Profile, w)
		if s <= 0 {
			continue
		}
		out = append(out, scored{ep: ep, score: s, reasons: reasons})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		li, lj := len(out[i].ep.Profile.Token), len(out[j].ep.Profile.Token)
		if li != lj {
			return li < lj
		}
		return out[i].ep.Entry.ID < out[j].ep.Entry.ID
	})
	return out
}
