package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nameres-service/internal/resolve/model"
)

func profileOf(t *testing.T, raw string) model.Profile {
	t.Helper()
	return newTestExtractor().Profile(raw)
}

func TestScoreExactCode(t *testing.T) {
	w := DefaultWeights()
	in := profileOf(t, "Мікросхема XTR111")
	cand := profileOf(t, "XTR 111  AIDGQR")

	s, reasons := scoreProfiles(in, cand, w)
	assert.GreaterOrEqual(t, s, w.ExactCode)
	assert.Contains(t, reasons, "code:xtr111")
}

func TestScoreSubstringBelowExact(t *testing.T) {
	w := DefaultWeights()
	in := profileOf(t, "Діод BAT54CW")
	cand := profileOf(t, "BAT54C")

	s, _ := scoreProfiles(in, cand, w)
	assert.Greater(t, s, 0)
	assert.Less(t, s, w.ExactCode)
	// шесть общих рун
	assert.Equal(t, 6*w.CodeOverlap, s)
}

func TestScoreOverlapCap(t *testing.T) {
	w := DefaultWeights()
	// очень длинное вхождение упирается в потолок, но не в точный бонус
	bonus, _ := codeBonus("abc123def456xxx777", "abc123def456xxx7779", w)
	assert.Equal(t, w.CodeOverlapCap, bonus)
	assert.Less(t, bonus, w.ExactCode)
}

func TestScoreShortOverlapIgnored(t *testing.T) {
	w := DefaultWeights()
	bonus, _ := codeBonus("12", "a12b34", w)
	assert.Zero(t, bonus)
}

func TestScoreValueUnitSpecificity(t *testing.T) {
	w := DefaultWeights()

	// двузначное число, чтобы не зацепить правило голых числовых кодов
	bare, _ := scoreProfiles(profileOf(t, "47"), profileOf(t, "тип 47"), w)
	assert.Equal(t, w.ValueBase, bare)

	// «4,7 kOm» даёт и голое 4.7, и 4.7kom — совпадают оба значения
	withUnit, _ := scoreProfiles(profileOf(t, "4,7 kOm"), profileOf(t, "4.7 кОм прецизионный"), w)
	assert.Equal(t, w.ValueBase*(1+w.unitWeight("kom")), withUnit)
	assert.Greater(t, withUnit, bare)
}

func TestScoreNoGenericSimilarity(t *testing.T) {
	w := DefaultWeights()
	// описательные слова без кодов и значений не дают ничего,
	// как бы похожи они ни были
	s, _ := scoreProfiles(profileOf(t, "нож туристический"), profileOf(t, "нож туристически"), w)
	assert.Zero(t, s)
}

func TestRankExactBeatsSubstring(t *testing.T) {
	w := DefaultWeights()
	e := newTestExtractor()

	in := e.Profile("BAT54C")
	profs := []entryProfile{
		{Entry: model.CatalogEntry{ID: 1, Name: "BAT54CW", Kind: model.KindComponent}, Profile: e.Profile("BAT54CW")},
		{Entry: model.CatalogEntry{ID: 2, Name: "BAT54C", Kind: model.KindComponent}, Profile: e.Profile("BAT54C")},
	}

	ranked := rank(in, profs, w)
	assert.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ep.Entry.ID, "точное совпадение кода выше частичного")
}

func TestRankTieBreakShorterToken(t *testing.T) {
	w := DefaultWeights()
	e := newTestExtractor()

	// оба кандидата дают одинаковый точный код; короче токен — выше
	in := e.Profile("XTR111")
	profs := []entryProfile{
		{Entry: model.CatalogEntry{ID: 1, Name: "XTR111 AIDGQR IC DAC driver", Kind: model.KindComponent}, Profile: e.Profile("XTR111 AIDGQR IC DAC driver")},
		{Entry: model.CatalogEntry{ID: 2, Name: "XTR111", Kind: model.KindComponent}, Profile: e.Profile("XTR111")},
	}

	ranked := rank(in, profs, w)
	assert.Equal(t, int64(2), ranked[0].ep.Entry.ID)
}
