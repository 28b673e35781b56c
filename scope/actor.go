package scope

import (
	"errors"

	"github.com/VortexDevX/E-Commerce-sub001/accounts"
)

// Kind defines a public type used by the authcore APIs.
//
// Kind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Kind string

const (
	// KindAdministrator is an exported constant or variable used by the access-control engine.
	KindAdministrator Kind = "administrator"
	// KindSubAdministrator is an exported constant or variable used by the access-control engine.
	KindSubAdministrator Kind = "sub_administrator"
	// KindSeller is an exported constant or variable used by the access-control engine.
	KindSeller Kind = "seller"
	// KindSellerAssistant is an exported constant or variable used by the access-control engine.
	KindSellerAssistant Kind = "seller_assistant"
	// KindShopper is an exported constant or variable used by the access-control engine.
	KindShopper Kind = "shopper"
)

// Actor defines a public type used by the authcore APIs.
//
// Exactly one variant is built per request. Authorize answers capability
// checks, Scope answers which seller's data the actor operates on; the two
// questions stay independent.
type Actor interface {
	Kind() Kind
	Authorize(required []string) bool
	Scope() (sellerID string, ok bool)
}

// ErrUnknownRole is an exported constant or variable used by the access-control engine.
var ErrUnknownRole = errors.New("account role has no actor variant")

// New describes the new operation and its observable behavior.
//
// attachedSeller is only consulted for seller assistants: it is the seller
// account the assistant hangs off, or nil when the link is broken.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New(reg *Registry, acct *accounts.Account, attachedSeller *accounts.Account) (Actor, error) {
	switch acct.Role {
	case accounts.RoleAdministrator:
		return administrator{}, nil
	case accounts.RoleSubAdministrator:
		return subAdministrator{registry: reg, grants: grantSet(acct.Permissions)}, nil
	case accounts.RoleSeller:
		return seller{registry: reg, id: acct.ID}, nil
	case accounts.RoleSellerAssistant:
		return sellerAssistant{
			registry: reg,
			grants:   grantSet(acct.Permissions),
			seller:   attachedSeller,
		}, nil
	case accounts.RoleShopper:
		return shopper{}, nil
	default:
		return nil, ErrUnknownRole
	}
}

func grantSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

type administrator struct{}

func (administrator) Kind() Kind { return KindAdministrator }

// Administrators hold every capability; targeting a seller still requires an
// explicit, validated seller id at resolve time.
func (administrator) Authorize(required []string) bool { return true }

func (administrator) Scope() (string, bool) { return "", false }

type subAdministrator struct {
	registry *Registry
	grants   map[string]struct{}
}

func (subAdministrator) Kind() Kind { return KindSubAdministrator }

func (a subAdministrator) Authorize(required []string) bool {
	for _, name := range required {
		if !a.registry.Known(VocabularySubAdministrator, name) {
			return false
		}
		if _, ok := a.grants[name]; !ok {
			return false
		}
	}
	return true
}

func (subAdministrator) Scope() (string, bool) { return "", false }

type seller struct {
	registry *Registry
	id       string
}

func (seller) Kind() Kind { return KindSeller }

// A seller implicitly holds the full assistant vocabulary for their own shop.
func (s seller) Authorize(required []string) bool {
	for _, name := range required {
		if !s.registry.Known(VocabularySellerAssistant, name) {
			return false
		}
	}
	return true
}

func (s seller) Scope() (string, bool) { return s.id, true }

type sellerAssistant struct {
	registry *Registry
	grants   map[string]struct{}
	seller   *accounts.Account
}

func (sellerAssistant) Kind() Kind { return KindSellerAssistant }

func (a sellerAssistant) Authorize(required []string) bool {
	for _, name := range required {
		if !a.registry.Known(VocabularySellerAssistant, name) {
			return false
		}
		if _, ok := a.grants[name]; !ok {
			return false
		}
	}
	return true
}

// Scope reports no seller when the attachment is broken: the seller account
// is missing, not a seller anymore, unapproved, or blocked.
func (a sellerAssistant) Scope() (string, bool) {
	if a.seller == nil || a.seller.Role != accounts.RoleSeller {
		return "", false
	}
	if !a.seller.Approved || !a.seller.Active() {
		return "", false
	}
	return a.seller.ID, true
}

type shopper struct{}

func (shopper) Kind() Kind { return KindShopper }

func (shopper) Authorize(required []string) bool { return len(required) == 0 }

func (shopper) Scope() (string, bool) { return "", false }
