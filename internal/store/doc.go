// Package store implements the gateway to the hosted record store. The store
// speaks the PostgREST dialect (Supabase): paginated selects, id=in.(...)
// deletes, id=eq.N patches. The gateway reports success or failure per call;
// callers own batching and partial-failure policy.
package store
