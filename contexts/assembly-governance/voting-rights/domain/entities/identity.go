package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// syntheticHandleDomain is reserved (RFC 2606) so generated handles can
// never collide with a deliverable address.
const syntheticHandleDomain = "delegates.invalid"

var identityNamespace = uuid.MustParse("6f1c2a53-6a0e-4f59-9d43-3e4a8a7d2b10")

type Role string

const (
	RoleOwner    Role = "owner"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Elevated reports whether the role may act on behalf of other identities.
func (r Role) Elevated() bool {
	return r == RoleOperator || r == RoleAdmin
}

// Account is the authentication record. Its ID is shared with the Identity
// profile; either half may exist alone until repaired.
type Account struct {
	AccountID string
	Handle    string
	CreatedAt time.Time
}

// Identity is the profile of an owner, delegate, operator, or admin.
type Identity struct {
	IdentityID string
	DocumentID DocumentID
	FullName   string
	Email      string
	Phone      string
	Role       Role
	CreatedAt  time.Time
}

func (i Identity) HasContact() bool {
	return i.Email != "" || i.Phone != ""
}

// SyntheticIdentityID derives the identity id for a document with no
// registered profile. The same document always yields the same id, so the
// roll import and lazy delegate creation agree on it.
func SyntheticIdentityID(document DocumentID) string {
	return uuid.NewSHA1(identityNamespace, []byte(document.String())).String()
}

func SyntheticHandle(document DocumentID) string {
	return strings.ToLower(document.String()) + "@" + syntheticHandleDomain
}
