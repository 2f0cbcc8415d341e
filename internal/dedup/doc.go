// Package dedup detects and resolves duplicate influencer records. Records
// that collide on the swap-invariant identity key form a group; the
// highest-scoring member survives and the rest are staged for deletion with
// a durable audit trail written before any destructive call.
package dedup
