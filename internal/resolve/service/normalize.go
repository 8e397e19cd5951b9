package service

import (
	"strings"
	"unicode"
)

// Кириллица→латиница (визуальные двойники). Эти буквы регулярно попадают
// в латинские коды из кириллической раскладки («BAT54С» с русской «С»),
// поэтому применяем их ДО общей транслитерации.
var lookalikes = map[rune]rune{
	'а': 'a', 'в': 'b', 'е': 'e', 'к': 'k', 'м': 'm', 'н': 'h',
	'о': 'o', 'р': 'p', 'с': 'c', 'т': 't', 'у': 'y', 'х': 'x', 'ф': 'f',
}

// Транслитерация остальной кириллицы (русский + украинский алфавит).
// Буквы-двойники сюда не доходят, но таблица полная — она же документация
// принятой романизации.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'ґ': "g", 'д': "d",
	'е': "e", 'ё': "e", 'є': "ye", 'ж': "zh", 'з': "z", 'и': "i",
	'і': "i", 'ї': "yi", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh",
	'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya",
}

// Normalizer — неизменяемые таблицы нормализации, загружаются один раз
// и передаются по ссылке в экстрактор и блокировщик.
type Normalizer struct {
	lookalikes map[rune]rune
	translit   map[rune]string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{lookalikes: lookalikes, translit: translit}
}

// Fold — нижний регистр + двойники + транслитерация. Пунктуация и пробелы
// остаются на месте: эта форма нужна экстрактору, чтобы не потерять
// десятичный разделитель («4,7» ещё отличима от «47»).
func (n *Normalizer) Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		r = unicode.ToLower(r)
		if lr, ok := n.lookalikes[r]; ok {
			b.WriteRune(lr)
			continue
		}
		if t, ok := n.translit[r]; ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize — канонический токен сравнения: Fold + только [a-z0-9].
// Детерминированна и идемпотентна: normalize(normalize(x)) == normalize(x).
// Пустой результат означает «сигнала нет», такое имя не скорится вовсе.
func (n *Normalizer) Normalize(s string) string {
	folded := n.Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
