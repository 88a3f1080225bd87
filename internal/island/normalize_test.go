package island

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"İstanbul":           "istanbul",
		"istanbul":           "istanbul",
		"ISTANBUL":           "istanbul",
		"Palandöken":         "palandoken",
		"Muğla":              "mugla",
		"Çanakkale":          "canakkale",
		"Şanlıurfa":          "sanliurfa",
		"  Afyon Karahisar ": "afyon-karahisar",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), "input %q", in)
	}
}
