package service

import (
	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
)

// Identity is the authenticated principal for one request, carrying the raw
// token subject as verified by the auth middleware. It is never persisted.
type Identity struct {
	Subject string
}

// AuthorizeSelfAccess allows an operation on the target profile only when the
// identity's subject is the target's own ID.
//
// A missing identity or a subject/target mismatch is an ordinary denial
// (CodeForbidden). A subject that cannot be parsed at all means the verified
// token carried a malformed payload; that is an internal fault
// (CodeInternal), not a denial, and maps to a server error upstream.
func AuthorizeSelfAccess(identity *Identity, target id.UserID) error {
	if identity == nil || identity.Subject == "" {
		return dErrors.New(dErrors.CodeForbidden, "no authenticated identity")
	}
	subject, err := id.ParseUserID(identity.Subject)
	if err != nil {
		return dErrors.New(dErrors.CodeInternal, "malformed identity")
	}
	if subject != target {
		return dErrors.New(dErrors.CodeForbidden, "cannot access another user's profile")
	}
	return nil
}
