package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// row un producto del catálogo con su compromiso ya calculado.
type row struct {
	Line  int
	Code  string
	Name  string
	Attrs map[string]string
	Hash  commitment.Digest
}

// readCatalog lee un CSV con cabecera. Columnas obligatorias: code, name.
// El resto se incluye en el documento que se compromete (SHA-256 sobre el JSON canónico).
func readCatalog(r io.Reader, latin1 bool, sep rune) ([]row, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}
	codeIdx, nameIdx := indexOf(header, "code"), indexOf(header, "name")
	if codeIdx < 0 || nameIdx < 0 {
		return nil, fmt.Errorf("la cabecera debe incluir code y name")
	}

	var out []row
	seen := make(map[string]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		attrs := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				attrs[h] = strings.TrimSpace(rec[i])
			}
		}
		code, name := attrs["code"], attrs["name"]
		if code == "" || name == "" {
			return nil, fmt.Errorf("línea %d: code y name son obligatorios", line)
		}
		if prev, dup := seen[code]; dup {
			return nil, fmt.Errorf("línea %d: código %q repetido (línea %d)", line, code, prev)
		}
		seen[code] = line

		// Llaves ordenadas: el hash no depende del orden de columnas.
		hash, err := commitment.SHA256JSON(attrs)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		out = append(out, row{Line: line, Code: code, Name: name, Attrs: attrs, Hash: hash})
	}
	return out, nil
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}
