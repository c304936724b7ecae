package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tayloree/confere/internal/normalize"
)

func TestForGrouping(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Arroz Tio João 1kg", "arroz tio joao"},
		{"  ARROZ   tio joao ", "arroz tio joao"},
		{"Leite Mimosa 1,5 L", "leite mimosa"},
		{"Óleo de Soja Garrafa 900ml", "oleo soja"},
		{"Coca-Cola Lata 2x 330ml", "coca-cola"},
		{"Ovos 12 unidades", "ovos"},
		{"Açúcar Extra Fino 500 g", "acucar fino"},
		{"Pão de Queijo", "pao queijo"},
		{"Piña", "pina"},
		{"Dona Maria", "dona maria"},
		{"Sabão Omo 3 pacotes", "sabao omo"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.ForGrouping(tt.input))
		})
	}
}

func TestForGrouping_WholeWordsOnly(t *testing.T) {
	// "do" and "de" inside words must survive.
	assert.Equal(t, "dodo desodorizante", normalize.ForGrouping("dodo desodorizante"))
	assert.Equal(t, "galinha", normalize.ForGrouping("galinha"))
}

func TestForGrouping_Equivalence(t *testing.T) {
	assert.Equal(t,
		normalize.ForGrouping("arroz tio joao"),
		normalize.ForGrouping("Arroz Tio João 1kg"),
	)
}

func TestForGrouping_Idempotent(t *testing.T) {
	inputs := []string{
		"Arroz Tio João 1kg",
		"5 de un",
		"Leite 1 de l",
		"Sumo Compal 2x 1,5L Pack",
		"Feijão-Manteiga 500g",
		"super super extra",
		"café   com leite",
	}
	for _, in := range inputs {
		once := normalize.ForGrouping(in)
		assert.Equal(t, once, normalize.ForGrouping(once), in)
	}
}

func TestForPinning(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pão-de-Açúcar 1L", "paodeacucar1l"},
		{"Arroz Tio João", "arroztiojoao"},
		{"  Leite  Mimosa ", "leitemimosa"},
		{"Coca-Cola 2x", "cocacola2x"},
		{"ñandú", "nandu"},
		{"Pilhas Nº 5", "pilhasn5"},
		{"Bolo ½ kg", "bolokg"},
		{"Weißbier", "weibier"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.ForPinning(tt.input))
		})
	}
}

func TestForPinning_Idempotent(t *testing.T) {
	for _, in := range []string{"Pão-de-Açúcar 1L", "Óleo Fula", "água!!"} {
		once := normalize.ForPinning(in)
		assert.Equal(t, once, normalize.ForPinning(once))
	}
}

func TestNormalizersDiffer(t *testing.T) {
	name := "Arroz Tio João 1kg"
	assert.NotEqual(t, normalize.ForGrouping(name), normalize.ForPinning(name))
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "acucar cafe pao nino", normalize.StripDiacritics("açúcar café pão niño"))
}
