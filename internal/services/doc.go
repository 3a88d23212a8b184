// Package services defines the shared error taxonomy used at collaborator
// boundaries. Sentinel markers let callers classify a failure (missing
// input, malformed entry, collaborator outage, persistence problem)
// without string matching.
package services
