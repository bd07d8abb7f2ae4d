package ledger

import (
	"encoding/binary"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/commitment"
)

// VerifyDataIntegrity compara el hash suministrado con el compromiso guardado del producto
// (isProduct) o de la transacción. Lectura pura; id desconocido devuelve ErrNotFound.
func (s *State) VerifyDataIntegrity(id uint64, supplied commitment.Digest, isProduct bool) (bool, error) {
	if isProduct {
		p, ok := s.product(id)
		if !ok {
			return false, domain.ErrProductNotFound
		}
		return p.DataHash.Equal(supplied), nil
	}
	t, ok := s.transaction(id)
	if !ok {
		return false, domain.ErrTransactionNotFound
	}
	return t.DataHash.Equal(supplied), nil
}

// Stats contadores agregados y raíz de estado.
type Stats struct {
	TotalProducts     uint64
	TotalTransactions uint64
	NextProductID     uint64
	NextTransactionID uint64
	AuthorizedUsers   int
	StateRoot         commitment.Digest
}

// Stats lectura de contadores.
func (s *State) Stats() Stats {
	return Stats{
		TotalProducts:     s.totalProducts,
		TotalTransactions: s.totalTransactions,
		NextProductID:     s.nextProductID,
		NextTransactionID: s.nextTransactionID,
		AuthorizedUsers:   len(s.AuthorizedUsers()),
		StateRoot:         s.StateRoot(),
	}
}

// StateRoot Keccak-256 de las dos cadenas de compromisos (productos y transacciones).
// Cada cadena se extiende en orden de id, así que el valor es el mismo tras un Restore.
func (s *State) StateRoot() commitment.Digest {
	return commitment.Keccak256(s.productsRoot[:], s.transactionsRoot[:])
}

// chain extiende una cadena: keccak(prev || id big-endian || dataHash).
func chain(prev commitment.Digest, id uint64, dataHash commitment.Digest) commitment.Digest {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)
	return commitment.Keccak256(prev[:], idBuf[:], dataHash[:])
}
