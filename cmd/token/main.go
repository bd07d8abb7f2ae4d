// token emite un JWT de llamador para pruebas locales contra la API.
//
// Uso: go run ./cmd/token -principal 0x... [-exp 60]
// El secreto y el issuer salen de JWT_SECRET / JWT_ISSUER (o .env).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

func main() {
	principal := flag.String("principal", "", "dirección del llamador (0x + 40 hex)")
	exp := flag.Int("exp", 0, "expiración en minutos (0 = JWT_EXPIRATION)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	p, err := entity.ParsePrincipal(*principal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Principal inválido: %v\n", err)
		os.Exit(1)
	}
	minutes := cfg.JWT.Expiration
	if *exp > 0 {
		minutes = *exp
	}

	tok, err := pkgjwt.Generate(cfg.JWT.Secret, p.String(), cfg.JWT.Issuer, minutes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
