package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterGarantiasByClienteEmail(t *testing.T) {
	garantias := []Garantia{
		{ID: 1, Servicio: &Servicio{Cliente: &Cliente{Email: " Ana@X.com "}}},
		{ID: 2, Servicio: &Servicio{Cliente: &Cliente{Email: "otro@x.com"}}},
		{ID: 3},
		{ID: 4, Servicio: &Servicio{}},
	}

	own := FilterGarantiasByClienteEmail(garantias, "ana@x.com")
	require.Len(t, own, 1, "match is case- and whitespace-insensitive")
	assert.Equal(t, uint(1), own[0].ID)
}

func TestFilterGarantiasByClienteEmailNoMatches(t *testing.T) {
	garantias := []Garantia{
		{ID: 2, Servicio: &Servicio{Cliente: &Cliente{Email: "otro@x.com"}}},
	}
	assert.Empty(t, FilterGarantiasByClienteEmail(garantias, "ana@x.com"))
}
