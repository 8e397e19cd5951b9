package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBasics(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("  \t ---///"))
	assert.Equal(t, "bat54c", n.Normalize("BAT54C"))
	assert.Equal(t, "bat54c", n.Normalize(" BAT-54.C "))
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer()
	inputs := []string{
		"",
		"BAT54C",
		"Діод BAT54CW",
		"Мікросхема XTR111",
		"0603 4,7 kOm",
		"Конденсатор 12пФ / 50В",
		"фреза концевая 12мм",
		"щось із ї, є та ґ",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizeLookalikes(t *testing.T) {
	n := NewNormalizer()
	// вторая «с» — кириллическая, набрана в русской раскладке
	assert.Equal(t, n.Normalize("BAT54C"), n.Normalize("bat54с"))
	// целиком кириллический двойник латинского кода
	assert.Equal(t, n.Normalize("COM"), n.Normalize("СОМ"))
}

func TestNormalizeTranslit(t *testing.T) {
	n := NewNormalizer()
	// украинские буквы
	assert.Equal(t, "diod", n.Normalize("Діод"))
	// многобуквенные цели транслитерации
	assert.Equal(t, "schit", n.Normalize("щит"))
	// русское и украинское написание складываются одинаково
	assert.Equal(t, n.Normalize("Микросхема"), n.Normalize("Мікросхема"))
}

func TestNormalizeStripsEverythingElse(t *testing.T) {
	n := NewNormalizer()
	assert.Equal(t, "xtr111aidgqr", n.Normalize("XTR 111  AIDGQR"))
	assert.Equal(t, "r060347kom1", n.Normalize("R0603 4,7 kOm 1%"))
	// скобки выбрасываются как символы, их содержимое остаётся
	assert.Equal(t, "ld1117s33trsot223", n.Normalize("LD1117S33TR (SOT-223)"))
}
