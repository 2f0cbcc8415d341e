// Package record defines the influencer record model shared by the pipeline
// commands, the swap-invariant identity key used for duplicate detection, and
// the data-quality scorer that ranks members of a duplicate group.
package record
