// Package mount implements the read-only archive mount: construction of the
// entry tree from the archive listing, the query operations of the Mount
// contract, the cached read path, and reclamation of archive handles
// belonging to mounts that were dropped without being closed.
package mount
