// Package models contains the core records handled by the dedup engine
package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// OwnerStatus classifies an owner record. The yearly extracts encode this as
// signed rank sentinels; the engine only ever handles the closed enumeration.
type OwnerStatus string

const (
	OwnerStatusValid     OwnerStatus = "valid"
	OwnerStatusIncorrect OwnerStatus = "incorrect"
	OwnerStatusAwaiting  OwnerStatus = "awaiting"
	OwnerStatusDeceased  OwnerStatus = "deceased"
	OwnerStatusPrevious  OwnerStatus = "previous"
)

// OwnerStatusFromRank converts a legacy extract rank sentinel to a status.
// Unknown ranks map to valid, matching how the importer treats them.
func OwnerStatusFromRank(rank int) OwnerStatus {
	switch rank {
	case -1:
		return OwnerStatusIncorrect
	case -2:
		return OwnerStatusAwaiting
	case -3:
		return OwnerStatusDeceased
	case -4:
		return OwnerStatusPrevious
	default:
		return OwnerStatusValid
	}
}

// Owner is one owner record from the owners table. ID is stable and never
// recomputed; FullName is the blocking key for duplicate search.
type Owner struct {
	ID            string         `db:"id" json:"id"`
	FullName      string         `db:"full_name" json:"fullName"`
	RawAddress    pq.StringArray `db:"raw_address" json:"rawAddress"`
	BirthDate     *time.Time     `db:"birth_date" json:"birthDate,omitempty"`
	Administrator *string        `db:"administrator" json:"administrator,omitempty"`
	Email         *string        `db:"email" json:"email,omitempty"`
	Phone         *string        `db:"phone" json:"phone,omitempty"`
	Kind          *string        `db:"kind" json:"kind,omitempty"`
	Status        OwnerStatus    `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// NormalizedName returns the blocking key: uppercased with whitespace collapsed.
func (o Owner) NormalizedName() string {
	return NormalizeName(o.FullName)
}

// NormalizeName normalizes a full name for exact-name blocking.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
