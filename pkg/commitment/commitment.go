// Package commitment: digests de 256 bits usados como ancla de integridad de los registros
// que viven fuera del ledger. El ledger nunca guarda el registro completo, solo su digest.
package commitment

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/sha3"
)

// Size longitud fija del digest en bytes.
const Size = 32

// Digest hash de compromiso de ancho fijo (Keccak-256 o SHA-256).
type Digest [Size]byte

// Zero digest vacío (sin compromiso).
var Zero Digest

// Keccak256 calcula el Keccak-256 (variante Ethereum, compatible con web3.utils.keccak256).
func Keccak256(data ...[]byte) Digest {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// SHA256 calcula el SHA-256 de los datos.
func SHA256(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// SHA256JSON calcula el SHA-256 del JSON del valor tal como lo escribe el relay:
// json.dumps(v, sort_keys=True) de Python. Llaves ordenadas, separadores ", " y ": ",
// todo lo que no sea ASCII imprimible como \uXXXX y sin escapes HTML.
func SHA256JSON(v any) (Digest, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Zero, fmt.Errorf("commitment: serializar: %w", err)
	}
	// Re-decodificar a any normaliza structs a mapas y conserva los números tal cual.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return Zero, fmt.Errorf("commitment: normalizar: %w", err)
	}
	var buf bytes.Buffer
	writeCanonical(&buf, generic)
	return SHA256(buf.Bytes()), nil
}

func writeCanonical(buf *bytes.Buffer, v any) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeString(buf, k)
			buf.WriteString(": ")
			writeCanonical(buf, x[k])
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteString(", ")
			}
			writeCanonical(buf, e)
		}
		buf.WriteByte(']')
	case string:
		writeString(buf, x)
	case json.Number:
		buf.WriteString(x.String())
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case nil:
		buf.WriteString("null")
	}
}

// writeString escapa como ensure_ascii: fuera de 0x20..0x7e todo va como \uXXXX en
// minúsculas, con pares sustitutos por encima del plano básico.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				buf.WriteRune(r)
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(buf, `\u%04x\u%04x`, r1, r2)
			default:
				fmt.Fprintf(buf, `\u%04x`, r)
			}
		}
	}
	buf.WriteByte('"')
}

// Parse acepta 64 caracteres hexadecimales, con o sin prefijo 0x.
func Parse(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != Size*2 {
		return Zero, fmt.Errorf("commitment: se esperaban %d caracteres hex, se recibieron %d", Size*2, len(s))
	}
	var d Digest
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return Zero, fmt.Errorf("commitment: hex inválido: %w", err)
	}
	return d, nil
}

// FromBytes copia un slice de exactamente Size bytes (columnas bytea).
func FromBytes(b []byte) (Digest, error) {
	if len(b) != Size {
		return Zero, fmt.Errorf("commitment: se esperaban %d bytes, se recibieron %d", Size, len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Equal compara en tiempo constante y por igualdad exacta de bytes.
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

// IsZero indica si el digest está vacío.
func (d Digest) IsZero() bool {
	return d == Zero
}

// Bytes devuelve una copia como slice.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// String representación 0x + hex en minúsculas.
func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
