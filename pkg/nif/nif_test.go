package nif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/appgestion-api/pkg/nif"
)

func TestValid_DNI(t *testing.T) {
	assert.True(t, nif.Valid("12345678Z"))
	assert.True(t, nif.Valid("12345678-z"), "se normalizan guiones y minúsculas")
	assert.False(t, nif.Valid("12345678A"), "letra de control incorrecta")
}

func TestValid_NIE(t *testing.T) {
	assert.True(t, nif.Valid("X1234567L"))
	assert.True(t, nif.Valid("x 1234567 l"))
	assert.False(t, nif.Valid("Y1234567L"), "el prefijo Y cambia la letra esperada")
}

func TestValid_CIF(t *testing.T) {
	assert.True(t, nif.Valid("B12345674"), "control numérico")
	assert.True(t, nif.Valid("B1234567E"), "control en letra equivalente")
	assert.False(t, nif.Valid("B12345675"))
}

func TestValid_FormatosInvalidos(t *testing.T) {
	for _, s := range []string{"", "123", "1234567890", "I12345674", "ABCDEFGHI"} {
		assert.False(t, nif.Valid(s), "debe rechazar %q", s)
	}
}

func TestDetect(t *testing.T) {
	assert.Equal(t, nif.TypeDNI, nif.Detect("12345678Z"))
	assert.Equal(t, nif.TypeNIE, nif.Detect("Z1234567R"))
	assert.Equal(t, nif.TypeCIF, nif.Detect("A12345674"))
	assert.Equal(t, nif.TypeUnknown, nif.Detect("12"))
}
