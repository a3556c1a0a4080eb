// Package models defines the donor profile aggregate and its request types.
package models

import (
	"time"

	id "donorhub/pkg/domain"
)

// Address is a free-form mapping of address field name to value. The billing
// provider and CRM both accept the same shape, so no per-system mapping is
// needed here.
type Address map[string]string

// Clone returns a copy so callers can mutate without aliasing the original.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	out := make(Address, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Profile is the persisted donor record.
//
// Invariants:
//   - ID equals the JWT subject of the owning user; no caller may mutate
//     another subject's record (enforced by the ownership guard).
//   - BillingAccountID and CRMAccountID are assigned once by the
//     account-creation authority and never changed through the update path.
//   - Created only via the lifecycle orchestrator, mutated only via the
//     update pipeline, never deleted.
type Profile struct {
	ID            id.UserID `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         string    `json:"phone,omitempty"`
	Address       Address   `json:"address,omitempty"`

	// Linkage IDs into the external systems of record. Empty means the
	// profile is not linked to that system and it is skipped during fan-out.
	BillingAccountID string `json:"billingAccountId,omitempty"`
	CRMAccountID     string `json:"crmAccountId,omitempty"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	out := *p
	out.Address = p.Address.Clone()
	if p.LastLogin != nil {
		t := *p.LastLogin
		out.LastLogin = &t
	}
	return &out
}

// UpdateProfileRequest is the inbound mutation payload. Pointer fields
// distinguish "omitted" from "set to empty". Linkage IDs are deliberately
// absent: they are not client-mutable.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   Address `json:"address,omitempty"`
}

// ApplyTo writes the requested changes onto p. This is the single explicit
// field mapping between the wire payload and the stored entity; omitted
// fields are left untouched.
func (r UpdateProfileRequest) ApplyTo(p *Profile) {
	if r.FirstName != nil {
		p.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		p.LastName = *r.LastName
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if len(r.Address) > 0 {
		p.Address = r.Address.Clone()
	}
}
