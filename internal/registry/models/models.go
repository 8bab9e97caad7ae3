// Package models defines the identity registry's data model and its HTTP
// request/response shapes.
package models

import (
	id "attestry/pkg/domain"
)

// IdentityRecord is the single record a principal may register under its own
// key. The name is fixed at registration; the attestation fields are only ever
// rewritten as one unit by an attest operation.
type IdentityRecord struct {
	Principal id.PrincipalID
	// Name is arbitrary text chosen by the registrant. It carries no
	// uniqueness constraint and may be empty.
	Name     string
	Verified bool
	// AttestedAt is the attestation timestamp in unix seconds, 0 until the
	// record is first attested.
	AttestedAt int64
	// AttestedBy is the most recent attester, the zero sentinel until the
	// record is first attested.
	AttestedBy id.PrincipalID
}

// Attested reports whether the record has been attested at least once.
func (r *IdentityRecord) Attested() bool {
	return r.Verified
}

// Attestation is the unit applied atomically by an attest operation. The
// store sets Verified together with these two fields; no partial update is
// ever observable.
type Attestation struct {
	AttestedAt int64
	AttestedBy id.PrincipalID
}

// RegisterRequest is the register operation's request body.
type RegisterRequest struct {
	Name string `json:"name"`
}

// IdentityResponse is the wire shape of an IdentityRecord.
type IdentityResponse struct {
	Principal  string  `json:"principal"`
	Name       string  `json:"name"`
	Verified   bool    `json:"verified"`
	AttestedAt int64   `json:"attested_at"`
	AttestedBy *string `json:"attested_by"`
}

// ToResponse converts a record into its wire shape. The sentinel attester is
// rendered as null so callers never see a fake principal.
func ToResponse(record *IdentityRecord) IdentityResponse {
	resp := IdentityResponse{
		Principal:  record.Principal.String(),
		Name:       record.Name,
		Verified:   record.Verified,
		AttestedAt: record.AttestedAt,
	}
	if !record.AttestedBy.IsZero() {
		attester := record.AttestedBy.String()
		resp.AttestedBy = &attester
	}
	return resp
}
