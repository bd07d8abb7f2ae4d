// import registra en el ledger un catálogo de productos desde CSV.
//
// Uso: go run ./cmd/import -file catalogo.csv -token <jwt> [-api http://localhost:8080] [-latin1] [-dry-run]
// Cada fila se compromete con SHA-256 sobre sus columnas; el documento original queda fuera del ledger.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	file := flag.String("file", "", "ruta del CSV (cabecera con code,name,...)")
	api := flag.String("api", "http://localhost:8080", "URL base de la API")
	token := flag.String("token", os.Getenv("LEDGER_TOKEN"), "JWT del llamador (o LEDGER_TOKEN)")
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	sep := flag.String("sep", ",", "separador de columnas")
	dryRun := flag.Bool("dry-run", false, "solo calcula e imprime los hashes")
	flag.Parse()

	log := logger.New(logger.Config{Env: "development", Level: "info"}).Component("import")

	if *file == "" || len(*sep) != 1 {
		flag.Usage()
		os.Exit(2)
	}
	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	rows, err := readCatalog(f, *latin1, rune((*sep)[0]))
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}
	log.Info().Int("rows", len(rows)).Msg("catálogo leído")

	if *dryRun {
		for _, r := range rows {
			fmt.Printf("%s\t%s\t%s\n", r.Code, r.Hash, r.Name)
		}
		return
	}
	if *token == "" {
		log.Fatal().Msg("falta -token o LEDGER_TOKEN")
	}

	var registered, failed int
	for _, r := range rows {
		id, err := register(*api, *token, r)
		if err != nil {
			failed++
			log.Error().Err(err).Int("line", r.Line).Str("code", r.Code).Msg("registro rechazado")
			continue
		}
		registered++
		log.Debug().Uint64("product_id", id).Str("code", r.Code).Msg("producto registrado")
	}
	log.Info().Int("registered", registered).Int("failed", failed).Msg("importación terminada")
	if failed > 0 {
		os.Exit(1)
	}
}

func register(api, token string, r row) (uint64, error) {
	agent := fiber.Post(api+"/api/v1/ledger/products").
		Set(fiber.HeaderAuthorization, "Bearer "+token).
		Timeout(10 * time.Second).
		JSON(dto.RegisterProductRequest{Code: r.Code, Name: r.Name, DataHash: r.Hash.String()})

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, errs[0]
	}
	if code != fiber.StatusCreated {
		var e dto.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Code != "" {
			return 0, fmt.Errorf("HTTP %d %s: %s", code, e.Code, e.Message)
		}
		return 0, fmt.Errorf("HTTP %d", code)
	}
	var out dto.RegisterProductResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("respuesta: %w", err)
	}
	return out.ProductID, nil
}
