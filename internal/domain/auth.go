package domain

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role identifies what an authenticated admin may do.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleDomainAdmin Role = "domain_admin"
)

// Principal is the result of a successful authentication.
// It is passed along with each request and never stored between requests.
type Principal struct {
	Role       Role   `json:"role"`
	DomainName string `json:"domainName,omitempty"`
}

// CanManageDomain reports whether p may change the meet link of name.
func (p Principal) CanManageDomain(name string) bool {
	switch p.Role {
	case RoleSuperAdmin:
		return true
	case RoleDomainAdmin:
		return p.DomainName == name
	default:
		return false
	}
}

// IsSuperAdmin reports whether p holds the super admin role.
func (p Principal) IsSuperAdmin() bool { return p.Role == RoleSuperAdmin }

// Authenticate checks password against the super admin secret first, then
// against each domain password in order. The first match wins.
//
// NOTE: this is a shared-secret scheme with no hashing requirement and no
// lockout. It is not suitable for a real trust boundary.
func Authenticate(password, superAdminSecret string, domains []Domain) (Principal, error) {
	if password == "" {
		return Principal{}, ErrRejected
	}
	if superAdminSecret != "" && secretEqual(password, superAdminSecret) {
		return Principal{Role: RoleSuperAdmin}, nil
	}
	for _, d := range domains {
		if d.Password == "" {
			continue
		}
		if passwordMatches(password, d.Password) {
			return Principal{Role: RoleDomainAdmin, DomainName: d.Name}, nil
		}
	}
	return Principal{}, ErrRejected
}

func passwordMatches(given, stored string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return secretEqual(given, stored)
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func secretEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
