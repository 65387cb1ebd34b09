// Package doctable provides a small reference document table built around
// the full-text index.
//
// It demonstrates the collaborator contract: the table owns its documents,
// decides what text to index, and persists the posting keys the index last
// wrote (core.StoredKeys) inside its own records so updates and deletes
// remove exactly those keys. Content tables in a real application play this
// role; the ftsearch command uses this one.
package doctable
