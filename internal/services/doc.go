// Package services defines the shared error taxonomy for pipeline
// components. Sentinel markers let commands classify failures for exit codes
// and summaries without string matching.
package services
