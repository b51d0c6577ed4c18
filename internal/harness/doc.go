// Package harness runs qleany scenarios: a manifest, a flow of steps
// against the application services and assertions over the published
// events and the final workspace.
//
// Each scenario runs against a fresh store in a temporary directory with
// a deterministic clock. Steps record every event they publish, in order,
// so assertions can check what an operation announced as well as what it
// changed.
//
// Scenario format:
//
//	name: undo_create
//	description: creating an entity can be undone and redone
//	manifest: ../manifests/library.yaml
//	flow:
//	  - do: load
//	  - do: create_entity
//	    name: Shelf
//	  - do: undo
//	  - do: rename_entity
//	    name: Missing
//	    to: Other
//	    expect:
//	      error: not_found
//	assertions:
//	  - type: trace_order
//	    origins: [handling_manifest/loaded, undo_redo/undone]
//	  - type: final_state
//	    entities: [EntityBase, Root, Book, Author]
//
// RunWithGolden compares the final state with testdata/golden/<name>.golden.
package harness
