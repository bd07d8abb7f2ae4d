package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

const (
	testSecret    = "test-secret-key-for-unit-tests"
	testPrincipal = "0xffcf8fdee72ac11b5c542428b35eef5769c409f0"
	testIssuer    = "inventario-ledger-test"
)

func TestJWT_GenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testPrincipal, testIssuer, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	principal, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, testPrincipal, principal)
}

func TestJWT_TokenExpirado_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testPrincipal, testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestJWT_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testPrincipal, testIssuer, 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestJWT_EntradasVacias(t *testing.T) {
	_, err := pkgjwt.Generate("", testPrincipal, testIssuer, 60)
	assert.Error(t, err)
	_, err = pkgjwt.Generate(testSecret, "", testIssuer, 60)
	assert.Error(t, err)
	_, err = pkgjwt.Parse("", "x")
	assert.Error(t, err)
}
