package repository

import (
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/txn"
)

func Roots(tx *txn.Transaction) Repository[*model.Root] { return New[*model.Root](tx) }

func Workspaces(tx *txn.Transaction) Repository[*model.Workspace] { return New[*model.Workspace](tx) }

func Systems(tx *txn.Transaction) Repository[*model.System] { return New[*model.System](tx) }

func Globals(tx *txn.Transaction) Repository[*model.Global] { return New[*model.Global](tx) }

func Entities(tx *txn.Transaction) Repository[*model.Entity] { return New[*model.Entity](tx) }

func Fields(tx *txn.Transaction) Repository[*model.Field] { return New[*model.Field](tx) }

func Relationships(tx *txn.Transaction) Repository[*model.Relationship] {
	return New[*model.Relationship](tx)
}

func Features(tx *txn.Transaction) Repository[*model.Feature] { return New[*model.Feature](tx) }

func UseCases(tx *txn.Transaction) Repository[*model.UseCase] { return New[*model.UseCase](tx) }

func Dtos(tx *txn.Transaction) Repository[*model.Dto] { return New[*model.Dto](tx) }

func DtoFields(tx *txn.Transaction) Repository[*model.DtoField] { return New[*model.DtoField](tx) }

func Files(tx *txn.Transaction) Repository[*model.File] { return New[*model.File](tx) }

func UserInterfaces(tx *txn.Transaction) Repository[*model.UserInterface] {
	return New[*model.UserInterface](tx)
}
