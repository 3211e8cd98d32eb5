package fleet

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForSearch(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bus Urbano", "bus urbano"},
		{"  Validadora   GPS  ", "validadora gps"},
		{"Cámara León", "camara leon"},
		{"BILBÁO", "bilbao"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeForSearch(tc.in), "input %q", tc.in)
	}
}

func TestBuildSearchTermsTokensAndPhrase(t *testing.T) {
	got := BuildSearchTerms("Bus Urbano", "BUS-321")
	assert.Equal(t, []string{"bus", "urbano", "bus urbano", "bus-321"}, got)
}

func TestBuildSearchTermsSkipsShortTokensAndEmpties(t *testing.T) {
	got := BuildSearchTerms("a b cd", "", "  ")
	// Single-char tokens drop; the full phrase survives.
	assert.Equal(t, []string{"cd", "a b cd"}, got)
}

func TestBuildSearchTermsDedupes(t *testing.T) {
	got := BuildSearchTerms("bus bus", "bus")
	assert.Equal(t, []string{"bus", "bus bus"}, got)
}

func TestBuildSearchTermsCap(t *testing.T) {
	partes := make([]string, 60)
	for i := range partes {
		partes[i] = fmt.Sprintf("pieza%02d", i)
	}
	got := BuildSearchTerms(partes...)
	assert.Len(t, got, maxSearchTermsPorDoc)
}
