package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/pkg/validator"
)

const validHash = "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func TestValidateStruct_Valido(t *testing.T) {
	errs := validator.ValidateStruct(dto.RegisterProductRequest{Code: "SKU-1", Name: "Tornillo", DataHash: validHash})
	assert.Nil(t, errs)
}

func TestValidateStruct_DigestInvalido(t *testing.T) {
	errs := validator.ValidateStruct(dto.RegisterProductRequest{Code: "SKU-1", Name: "Tornillo", DataHash: "0x1234"})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "DataHash", errs[0].Field)
		assert.Equal(t, "digest", errs[0].Tag)
	}
}

func TestValidateStruct_CamposRequeridos(t *testing.T) {
	errs := validator.ValidateStruct(dto.RegisterProductRequest{})
	assert.Len(t, errs, 3)
}

func TestValidateStruct_Direccion(t *testing.T) {
	assert.Nil(t, validator.ValidateStruct(dto.AddressParam{Address: "0xffcf8fdee72ac11b5c542428b35eef5769c409f0"}))
	errs := validator.ValidateStruct(dto.AddressParam{Address: "0x123"})
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "eth_addr", errs[0].Tag)
	}
}
