package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// Tipos de transacción habituales. El ledger acepta cualquier etiqueta.
const (
	TransactionTypeCompra     = "Compra"     // entrada por compra
	TransactionTypeVenta      = "Venta"      // salida por venta
	TransactionTypeAjuste     = "Ajuste"     // ajuste de conteo
	TransactionTypeTraslado   = "Traslado"   // traslado entre ubicaciones
	TransactionTypeDevolucion = "Devolucion" // devolución de cliente
)

// Transaction movimiento de inventario registrado contra un producto existente.
// Quantity positiva es entrada, negativa es salida; nunca cero.
type Transaction struct {
	ID              uint64
	ProductID       uint64
	LocationID      int64
	Quantity        int64
	UnitPrice       decimal.Decimal // monto de punto fijo (ej. centavos o wei)
	TransactionType string
	ReferenceNumber string
	DataHash        commitment.Digest
	Executor        Principal
	CreatedAt       time.Time
}
