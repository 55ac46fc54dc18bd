// Package session imports imaging-study manifests into the document tree,
// lists the resulting experiment/scan hierarchy, and exports review
// decisions.
//
// The live tree is a single root folder (by default "sessions") in the miqa
// collection. An import archives the previous root by renaming it with a
// timestamp, builds a fresh root, and copies each scan's rating and note
// across from the archived tree so annotations survive re-imports. The raw
// manifest is kept on the root as an item named "json"; exports re-read it
// and resolve every row back to its scan folder.
package session
