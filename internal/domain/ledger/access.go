package ledger

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PrepareAuthorizeUser valida authorizeUser. Solo el propietario; idempotente.
func (s *State) PrepareAuthorizeUser(caller, user entity.Principal, at time.Time) (Change, error) {
	if caller != s.owner {
		return Change{}, domain.ErrOnlyOwner
	}
	if user.IsZero() {
		return Change{}, domain.ErrInvalidInput
	}
	return Change{
		Kind: ChangeAuthorization,
		Authorization: &entity.Authorization{
			User:       user,
			Authorized: true,
			ChangedBy:  caller,
			ChangedAt:  at,
		},
	}, nil
}

// PrepareRevokeUser valida revokeUser. Solo el propietario, que a su vez no es revocable.
func (s *State) PrepareRevokeUser(caller, user entity.Principal, at time.Time) (Change, error) {
	if caller != s.owner {
		return Change{}, domain.ErrOnlyOwner
	}
	if user.IsZero() {
		return Change{}, domain.ErrInvalidInput
	}
	if user == s.owner {
		return Change{}, domain.ErrOwnerImmutable
	}
	return Change{
		Kind: ChangeAuthorization,
		Authorization: &entity.Authorization{
			User:       user,
			Authorized: false,
			ChangedBy:  caller,
			ChangedAt:  at,
		},
	}, nil
}
