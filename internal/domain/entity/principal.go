package entity

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Principal identidad tipo dirección (0x + 40 hex), normalizada a minúsculas.
type Principal string

// principalHexLen longitud en caracteres hex de una dirección (20 bytes).
const principalHexLen = 40

// ParsePrincipal valida y normaliza una dirección.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if len(s) != principalHexLen+2 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", fmt.Errorf("dirección inválida %q: formato 0x + 40 hex", s)
	}
	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("dirección inválida %q: %w", s, err)
	}
	return Principal("0x" + body), nil
}

// MustPrincipal como ParsePrincipal pero entra en pánico; solo para constantes y tests.
func MustPrincipal(s string) Principal {
	p, err := ParsePrincipal(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Principal) String() string { return string(p) }

// IsZero indica principal vacío.
func (p Principal) IsZero() bool { return p == "" }
