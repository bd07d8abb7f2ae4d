package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

func TestReadCatalog_CalculaHashPorFila(t *testing.T) {
	csv := "code,name,unit\nSKU-1,Tornillo,UND\nSKU-2,Tuerca,UND\n"
	rows, err := readCatalog(strings.NewReader(csv), false, ',')
	require.NoError(t, err)
	require.Len(t, rows, 2)

	want, err := commitment.SHA256JSON(map[string]string{"code": "SKU-1", "name": "Tornillo", "unit": "UND"})
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", rows[0].Code)
	assert.True(t, rows[0].Hash.Equal(want))
	assert.False(t, rows[0].Hash.Equal(rows[1].Hash))
	assert.Equal(t, 3, rows[1].Line)
}

// El orden de las columnas no cambia el compromiso.
func TestReadCatalog_HashIndependienteDelOrden(t *testing.T) {
	a, err := readCatalog(strings.NewReader("code,name,unit\nX,Y,Z\n"), false, ',')
	require.NoError(t, err)
	b, err := readCatalog(strings.NewReader("unit;name;code\nZ;Y;X\n"), false, ';')
	require.NoError(t, err)
	assert.True(t, a[0].Hash.Equal(b[0].Hash))
}

// Una fila con acentos produce el mismo digest que el relay para ese producto.
func TestReadCatalog_DigestDelRelay(t *testing.T) {
	rows, err := readCatalog(strings.NewReader("code,name,unit\nP-1,Azúcar,KG\n"), false, ',')
	require.NoError(t, err)
	assert.Equal(t, "0x21c43b2c58889ba9717d5d6b8bb50d5534117e12d7baccfc846be91d0a9bdac5", rows[0].Hash.String())
}

func TestReadCatalog_Latin1(t *testing.T) {
	enc, err := charmap.ISO8859_1.NewEncoder().String("code,name\nP-1,Cañería\n")
	require.NoError(t, err)

	rows, err := readCatalog(bytes.NewReader([]byte(enc)), true, ',')
	require.NoError(t, err)
	assert.Equal(t, "Cañería", rows[0].Name)
}

func TestReadCatalog_Errores(t *testing.T) {
	cases := map[string]string{
		"sin columna name": "code,unit\nA,UND\n",
		"code vacío":       "code,name\n,Tornillo\n",
		"código repetido":  "code,name\nA,Uno\nA,Dos\n",
		"vacío":            "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := readCatalog(strings.NewReader(in), false, ',')
			assert.Error(t, err)
		})
	}
}
