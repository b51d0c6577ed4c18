package generator

import (
	"strings"

	"github.com/jacquetc/qleany-sub001/internal/model"
)

// Scope tells which workspace objects a rule expands over.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeEntity  Scope = "entity"
	ScopeFeature Scope = "feature"
	ScopeUseCase Scope = "use_case"
)

// Rule maps one template onto the objects of its scope.
//
// Path and Group may contain the placeholders {app}, {entity}, {feature}
// and {use_case}, replaced by the snake_case name of the object.
type Rule struct {
	Template string
	Scope    Scope
	Path     string
	Group    string
	// When restricts the rule; nil means always.
	When func(ui *model.UserInterface) bool
}

func withRustCLI(ui *model.UserInterface) bool {
	return ui != nil && ui.RustCLI
}

func withRustSlint(ui *model.UserInterface) bool {
	return ui != nil && ui.RustSlint
}

func withQtWidgets(ui *model.UserInterface) bool {
	return ui != nil && ui.CppQtQtWidgets
}

func withQtQuick(ui *model.UserInterface) bool {
	return ui != nil && ui.CppQtQtQuick
}

func withKirigami(ui *model.UserInterface) bool {
	return ui != nil && ui.CppQtKirigami
}

func withAnyQtQuickLike(ui *model.UserInterface) bool {
	return withQtQuick(ui) || withKirigami(ui)
}

var rustRules = []Rule{
	{Template: "rust/workspace_cargo.toml", Scope: ScopeProject, Path: "Cargo.toml", Group: "common"},
	{Template: "rust/crate_cargo.toml", Scope: ScopeProject, Path: "common/Cargo.toml", Group: "common"},
	{Template: "rust/common_lib.rs", Scope: ScopeProject, Path: "common/src/lib.rs", Group: "common"},
	{Template: "rust/entities.rs", Scope: ScopeProject, Path: "common/src/entities.rs", Group: "common"},
	{Template: "rust/database.rs", Scope: ScopeProject, Path: "common/src/database.rs", Group: "common"},
	{Template: "rust/event.rs", Scope: ScopeProject, Path: "common/src/event.rs", Group: "common"},
	{Template: "rust/undo_redo.rs", Scope: ScopeProject, Path: "common/src/undo_redo.rs", Group: "common"},
	{Template: "rust/repository.rs", Scope: ScopeEntity, Path: "common/src/direct_access/{entity}_repository.rs", Group: "common"},

	{Template: "rust/crate_cargo.toml", Scope: ScopeProject, Path: "direct_access/Cargo.toml", Group: "direct_access"},
	{Template: "rust/direct_access_lib.rs", Scope: ScopeProject, Path: "direct_access/src/lib.rs", Group: "direct_access"},
	{Template: "rust/entity_mod.rs", Scope: ScopeEntity, Path: "direct_access/src/{entity}/mod.rs", Group: "direct_access"},
	{Template: "rust/entity_controller.rs", Scope: ScopeEntity, Path: "direct_access/src/{entity}/controller.rs", Group: "direct_access"},
	{Template: "rust/entity_dtos.rs", Scope: ScopeEntity, Path: "direct_access/src/{entity}/dtos.rs", Group: "direct_access"},

	{Template: "rust/crate_cargo.toml", Scope: ScopeFeature, Path: "{feature}/Cargo.toml", Group: "{feature}"},
	{Template: "rust/feature_lib.rs", Scope: ScopeFeature, Path: "{feature}/src/lib.rs", Group: "{feature}"},
	{Template: "rust/feature_controller.rs", Scope: ScopeFeature, Path: "{feature}/src/controller.rs", Group: "{feature}"},
	{Template: "rust/feature_dtos.rs", Scope: ScopeFeature, Path: "{feature}/src/dtos.rs", Group: "{feature}"},
	{Template: "rust/use_case.rs", Scope: ScopeUseCase, Path: "{feature}/src/use_cases/{use_case}_uc.rs", Group: "{feature}"},

	{Template: "rust/crate_cargo.toml", Scope: ScopeProject, Path: "cli/Cargo.toml", Group: "ui", When: withRustCLI},
	{Template: "rust/cli_main.rs", Scope: ScopeProject, Path: "cli/src/main.rs", Group: "ui", When: withRustCLI},
	{Template: "rust/crate_cargo.toml", Scope: ScopeProject, Path: "slint_ui/Cargo.toml", Group: "ui", When: withRustSlint},
	{Template: "rust/slint_build.rs", Scope: ScopeProject, Path: "slint_ui/build.rs", Group: "ui", When: withRustSlint},
	{Template: "rust/slint_main.rs", Scope: ScopeProject, Path: "slint_ui/src/main.rs", Group: "ui", When: withRustSlint},
	{Template: "rust/app.slint", Scope: ScopeProject, Path: "slint_ui/ui/app.slint", Group: "ui", When: withRustSlint},
}

var cppQtRules = []Rule{
	{Template: "cpp-qt/root_cmakelists.txt", Scope: ScopeProject, Path: "CMakeLists.txt", Group: "common"},
	{Template: "cpp-qt/common_cmakelists.txt", Scope: ScopeProject, Path: "common/CMakeLists.txt", Group: "common"},
	{Template: "cpp-qt/event_registry.h", Scope: ScopeProject, Path: "common/event_registry.h", Group: "common"},
	{Template: "cpp-qt/undo_redo.h", Scope: ScopeProject, Path: "common/undo_redo.h", Group: "common"},
	{Template: "cpp-qt/entity.h", Scope: ScopeEntity, Path: "common/entities/{entity}.h", Group: "common"},
	{Template: "cpp-qt/repository.h", Scope: ScopeEntity, Path: "common/direct_access/{entity}/{entity}_repository.h", Group: "common"},
	{Template: "cpp-qt/repository.cpp", Scope: ScopeEntity, Path: "common/direct_access/{entity}/{entity}_repository.cpp", Group: "common"},

	{Template: "cpp-qt/direct_access_cmakelists.txt", Scope: ScopeProject, Path: "direct_access/CMakeLists.txt", Group: "direct_access"},
	{Template: "cpp-qt/entity_controller.h", Scope: ScopeEntity, Path: "direct_access/{entity}/{entity}_controller.h", Group: "direct_access"},
	{Template: "cpp-qt/entity_controller.cpp", Scope: ScopeEntity, Path: "direct_access/{entity}/{entity}_controller.cpp", Group: "direct_access"},
	{Template: "cpp-qt/entity_dtos.h", Scope: ScopeEntity, Path: "direct_access/{entity}/{entity}_dto.h", Group: "direct_access"},

	{Template: "cpp-qt/feature_cmakelists.txt", Scope: ScopeFeature, Path: "{feature}/CMakeLists.txt", Group: "{feature}"},
	{Template: "cpp-qt/feature_controller.h", Scope: ScopeFeature, Path: "{feature}/{feature}_controller.h", Group: "{feature}"},
	{Template: "cpp-qt/feature_controller.cpp", Scope: ScopeFeature, Path: "{feature}/{feature}_controller.cpp", Group: "{feature}"},
	{Template: "cpp-qt/feature_dtos.h", Scope: ScopeFeature, Path: "{feature}/{feature}_dtos.h", Group: "{feature}"},
	{Template: "cpp-qt/use_case.h", Scope: ScopeUseCase, Path: "{feature}/use_cases/{use_case}_uc.h", Group: "{feature}"},
	{Template: "cpp-qt/use_case.cpp", Scope: ScopeUseCase, Path: "{feature}/use_cases/{use_case}_uc.cpp", Group: "{feature}"},

	{Template: "cpp-qt/ui_cmakelists.txt", Scope: ScopeProject, Path: "ui/qtwidgets/CMakeLists.txt", Group: "ui", When: withQtWidgets},
	{Template: "cpp-qt/qtwidgets_main.cpp", Scope: ScopeProject, Path: "ui/qtwidgets/main.cpp", Group: "ui", When: withQtWidgets},
	{Template: "cpp-qt/main_window.h", Scope: ScopeProject, Path: "ui/qtwidgets/main_window.h", Group: "ui", When: withQtWidgets},
	{Template: "cpp-qt/main_window.cpp", Scope: ScopeProject, Path: "ui/qtwidgets/main_window.cpp", Group: "ui", When: withQtWidgets},
	{Template: "cpp-qt/ui_cmakelists.txt", Scope: ScopeProject, Path: "ui/qtquick/CMakeLists.txt", Group: "ui", When: withQtQuick},
	{Template: "cpp-qt/qtquick_main.cpp", Scope: ScopeProject, Path: "ui/qtquick/main.cpp", Group: "ui", When: withQtQuick},
	{Template: "cpp-qt/main.qml", Scope: ScopeProject, Path: "ui/qtquick/qml/Main.qml", Group: "ui", When: withQtQuick},
	{Template: "cpp-qt/ui_cmakelists.txt", Scope: ScopeProject, Path: "ui/kirigami/CMakeLists.txt", Group: "ui", When: withKirigami},
	{Template: "cpp-qt/kirigami_main.cpp", Scope: ScopeProject, Path: "ui/kirigami/main.cpp", Group: "ui", When: withKirigami},
	{Template: "cpp-qt/kirigami_main.qml", Scope: ScopeProject, Path: "ui/kirigami/contents/ui/Main.qml", Group: "ui", When: withKirigami},
	{Template: "cpp-qt/list_models.h", Scope: ScopeProject, Path: "ui/models/list_models.h", Group: "ui", When: withAnyQtQuickLike},
}

// Rules returns the fill rules of lang in emission order.
func Rules(lang model.Language) []Rule {
	switch lang {
	case model.LanguageCppQt:
		return cppQtRules
	default:
		return rustRules
	}
}

// Placeholders binds the names substituted into rule paths.
type Placeholders struct {
	App     string
	Entity  string
	Feature string
	UseCase string
}

// Expand substitutes p into s.
func (p Placeholders) Expand(s string) string {
	return strings.NewReplacer(
		"{app}", p.App,
		"{entity}", p.Entity,
		"{feature}", p.Feature,
		"{use_case}", p.UseCase,
	).Replace(s)
}
