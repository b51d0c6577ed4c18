package tables

import (
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/store"
)

// ScanLimit bounds the rows returned by a GetMulti with no ids.
const ScanLimit = 1000

// Counter holds the next id to allocate for each kind.
var Counter = store.NewTableDefinition("__counter", store.StringKey[model.Kind](), store.Msgpack[model.EntityID]())

// Records returns the definition of the table holding kind's records.
func Records(kind model.Kind) store.TableDefinition[model.EntityID, model.Record] {
	return store.NewTableDefinition(string(kind), store.Uint64Key[model.EntityID](),
		store.MsgpackFunc(func() model.Record {
			r, _ := model.NewRecord(kind)
			return r
		}))
}

// Forward returns the junction keyed by owner id.
func Forward(rel model.Relation) store.TableDefinition[model.EntityID, []model.EntityID] {
	return store.NewTableDefinition(rel.ForwardTable(), store.Uint64Key[model.EntityID](), store.Msgpack[[]model.EntityID]())
}

// Backward returns the junction keyed by target id.
func Backward(rel model.Relation) store.TableDefinition[model.EntityID, []model.EntityID] {
	return store.NewTableDefinition(rel.BackwardTable(), store.Uint64Key[model.EntityID](), store.Msgpack[[]model.EntityID]())
}
