// Package usecase holds the user-visible operations of qleany.
//
// Each operation opens its own unit of work with the capabilities it needs,
// commits, and only then records an undo command. Pushing to the undo
// manager after the commit keeps command release (which opens a new unit of
// work) from waiting on the write lock held by the caller.
package usecase
