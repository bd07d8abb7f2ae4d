package entity

import "time"

// Authorization cambio en el conjunto de usuarios autorizados.
type Authorization struct {
	User       Principal
	Authorized bool
	ChangedBy  Principal
	ChangedAt  time.Time
}
