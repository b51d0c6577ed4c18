// Package generator turns a loaded workspace into source files.
//
// Generation runs in four phases:
//
//  1. FillFiles replaces the File rows of the System with the artefacts the
//     fill rules derive from the workspace and its UI flags.
//  2. For every selected File a Snapshot view-model is built from one read
//     unit of work; snapshots are shared between files whose dependencies
//     are covered by an earlier one.
//  3. The file's template, embedded under templates/, is executed with the
//     snapshot bound as .s.
//  4. Rendered content is written below <root>/<prefix_path>, then handed
//     to clang-format or rustfmt in batches.
package generator
