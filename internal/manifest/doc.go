// Package manifest reads, checks and writes qleany manifests and moves them
// in and out of the entity store.
//
// # Reading
//
// Parse runs four passes over the YAML document:
//
//  1. decode into a generic tree (yaml.v3)
//  2. migrate the tree to CurrentVersion
//  3. check the tree's shape against the embedded CUE schema
//  4. decode into Manifest and run the semantic checks
//
// # Storing
//
// Load creates the whole object graph in one write unit of work, deriving
// one forward and one backward Relationship per entity-typed field. Export
// walks the graph back into a Manifest, in declaration order.
package manifest
