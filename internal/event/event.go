package event

import (
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// Domain groups the origins of events.
type Domain string

const (
	DomainDirectAccess     Domain = "direct_access"
	DomainHandlingManifest Domain = "handling_manifest"
	DomainUndoRedo         Domain = "undo_redo"
	DomainLongOperation    Domain = "long_operation"
)

// Action is what happened.
type Action string

const (
	Created  Action = "created"
	Updated  Action = "updated"
	Removed  Action = "removed"
	Reset    Action = "reset"
	Loaded   Action = "loaded"
	Saved    Action = "saved"
	Closed   Action = "closed"
	Undone   Action = "undone"
	Redone   Action = "redone"
	Cleared  Action = "cleared"
	Progress Action = "progress"
	Finished Action = "finished"
)

// All stands for every kind in a DirectAccess origin.
const All model.Kind = "all"

// Origin identifies the source of an event. Kind is only set for
// DirectAccess origins.
type Origin struct {
	Domain Domain
	Kind   model.Kind
	Action Action
}

// DirectAccess is the origin of a repository mutation.
func DirectAccess(kind model.Kind, action Action) Origin {
	return Origin{Domain: DomainDirectAccess, Kind: kind, Action: action}
}

// AllReset is published when a savepoint restore invalidates every view.
func AllReset() Origin {
	return DirectAccess(All, Reset)
}

// HandlingManifest is the origin of manifest load, save and close.
func HandlingManifest(action Action) Origin {
	return Origin{Domain: DomainHandlingManifest, Action: action}
}

// UndoRedo is the origin of undo stack changes.
func UndoRedo(action Action) Origin {
	return Origin{Domain: DomainUndoRedo, Action: action}
}

// LongOperation is the origin of long-operation progress and completion.
func LongOperation(action Action) Origin {
	return Origin{Domain: DomainLongOperation, Action: action}
}

func (o Origin) String() string {
	if o.Kind != "" {
		return fmt.Sprintf("%s/%s/%s", o.Domain, o.Kind, o.Action)
	}
	return fmt.Sprintf("%s/%s", o.Domain, o.Action)
}

// Event is one published notification.
type Event struct {
	Origin Origin
	IDs    []model.EntityID
	// Data carries extra payload, e.g. "fields:1,2,3" for relationship updates.
	Data string
}

// RelationshipData formats the payload of a relationship update.
func RelationshipData(field string, ids []model.EntityID) string {
	return field + ":" + model.FormatIDs(ids)
}
