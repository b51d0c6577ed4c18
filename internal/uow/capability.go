// Package uow opens the transaction of one user-visible operation and hands
// out repositories limited to the operations the caller declared.
package uow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// ErrCapabilityDenied is returned when a repository operation was not
// declared by the unit of work.
var ErrCapabilityDenied = errors.New("capability not declared")

// Action is a class of repository operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Capability allows one action on one kind.
type Capability struct {
	Kind   model.Kind
	Action Action
}

func (c Capability) String() string {
	return fmt.Sprintf("%s:%s", c.Kind, c.Action)
}

func (c Capability) writes() bool {
	return c.Action != ActionRead
}

// Capabilities is the set declared by a unit of work.
type Capabilities = mapset.Set[Capability]

// Allow returns a set granting actions on every kind listed.
func Allow(kinds []model.Kind, actions ...Action) Capabilities {
	set := mapset.NewThreadUnsafeSet[Capability]()
	for _, k := range kinds {
		for _, a := range actions {
			set.Add(Capability{Kind: k, Action: a})
		}
	}
	return set
}

// Read grants reads on kinds.
func Read(kinds ...model.Kind) Capabilities {
	return Allow(kinds, ActionRead)
}

// ReadWrite grants every action on kinds.
func ReadWrite(kinds ...model.Kind) Capabilities {
	return Allow(kinds, ActionCreate, ActionRead, ActionUpdate, ActionDelete)
}

// Everything grants every action on every kind.
func Everything() Capabilities {
	return ReadWrite(model.Kinds()...)
}

// Describe renders caps in a stable order, for logs and errors.
func Describe(caps Capabilities) string {
	parts := make([]string, 0, caps.Cardinality())
	for c := range caps.Iter() {
		parts = append(parts, c.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
