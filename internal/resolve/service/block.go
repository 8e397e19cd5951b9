package service

import "strings"

// Ключевые слова категорий в естественном написании; нормализуются той же
// нормализацией, что и имена, при конструировании блокировщика. Правило
// существует из-за реального промаха: разъём сматчился с конденсатором
// чисто на общих цифрах.
var categoryKeywords = map[string][]string{
	"capacitor": {"конденсатор", "capacitor"},
	"resistor":  {"резистор", "resistor"},
	"inductor":  {"дроссель", "индуктивность", "катушка", "inductor"},
	"connector": {"разъем", "разъём", "роз'єм", "клеммник", "connector"},
	"diode":     {"диод", "діод", "стабилитрон", "diode"},
	"ic":        {"микросхема", "мікросхема", "мікросхем"},
	"relay":     {"реле", "relay"},
	"tool":      {"фреза", "сверло", "свердло", "метчик", "отвертка", "викрутка"},
}

// Blocker — вето-правило по категориям: совпадение цифр и кодов само по
// себе не доказательство, когда имена описывают разные семейства деталей.
type Blocker struct {
	// нормализованное ключевое слово → категория
	keywords map[string]string
}

func NewBlocker(n *Normalizer) *Blocker {
	b := &Blocker{keywords: make(map[string]string)}
	for bucket, words := range categoryKeywords {
		for _, w := range words {
			if k := n.Normalize(w); k != "" {
				b.keywords[k] = bucket
			}
		}
	}
	return b
}

// bucketOf возвращает категорию токена, только если она определяется
// однозначно: ноль или две+ разных категории — нет вердикта.
func (b *Blocker) bucketOf(token string) (string, bool) {
	found := ""
	for kw, bucket := range b.keywords {
		if !strings.Contains(token, kw) {
			continue
		}
		if found != "" && found != bucket {
			return "", false
		}
		found = bucket
	}
	return found, found != ""
}

// Blocked — true, когда обе стороны однозначно попадают в разные
// категории. Вето абсолютно: кандидат выбывает независимо от счёта.
func (b *Blocker) Blocked(inToken, candToken string) bool {
	ib, ok := b.bucketOf(inToken)
	if !ok {
		return false
	}
	cb, ok := b.bucketOf(candToken)
	if !ok {
		return false
	}
	return ib != cb
}
