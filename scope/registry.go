package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Vocabulary defines a public type used by the authcore APIs.
//
// Vocabulary instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Vocabulary string

const (
	// VocabularySubAdministrator is an exported constant or variable used by the access-control engine.
	VocabularySubAdministrator Vocabulary = "sub_administrator"
	// VocabularySellerAssistant is an exported constant or variable used by the access-control engine.
	VocabularySellerAssistant Vocabulary = "seller_assistant"
)

// Registry defines a public type used by the authcore APIs.
//
// The two vocabularies are deliberately disjoint namespaces: a capability
// string granted to a sub-administrator never authorizes a seller assistant
// and vice versa.
//
// Registry instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Registry struct {
	vocabularies map[Vocabulary]map[string]struct{}
}

// NewRegistry describes the newregistry operation and its observable behavior.
//
// NewRegistry may return an error when input validation, dependency calls, or security checks fail.
// NewRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRegistry(subAdmin, sellerAssistant []string) (*Registry, error) {
	r := &Registry{vocabularies: map[Vocabulary]map[string]struct{}{
		VocabularySubAdministrator: {},
		VocabularySellerAssistant:  {},
	}}
	if err := r.register(VocabularySubAdministrator, subAdmin); err != nil {
		return nil, err
	}
	if err := r.register(VocabularySellerAssistant, sellerAssistant); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) register(vocab Vocabulary, names []string) error {
	seen := r.vocabularies[vocab]
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("empty permission name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate permission %q in %s vocabulary", name, vocab)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Known describes the known operation and its observable behavior.
//
// Known does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Known(vocab Vocabulary, name string) bool {
	set, ok := r.vocabularies[vocab]
	if !ok {
		return false
	}
	_, ok = set[name]
	return ok
}

// Names describes the names operation and its observable behavior.
//
// Names does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Registry) Names(vocab Vocabulary) []string {
	set := r.vocabularies[vocab]
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
