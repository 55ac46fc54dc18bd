// Package store persists the miqa document tree in SQLite.
//
// The tree mirrors the generic hierarchy the session operations are written
// against: named collections at the top, folders nested under a collection or
// another folder, items inside folders, and files attached to items that
// reference bytes held by an assetstore. Folders carry a free-form metadata
// document that callers merge keys into; a nil value removes a key.
//
// Sibling names are unique. Creating a folder or item with reuseExisting
// returns the existing node of the same name; without it the new node is given
// a "name (n)" suffix, and renaming onto a taken name fails with
// ErrNameConflict.
//
// Schema changes bump the version in schema.go; additive changes (indexes,
// new tables) go into migrations/ and apply on open.
package store
