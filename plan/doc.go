// Package plan defines the versioned multi-day plan document that agents
// collaboratively edit.
//
// A Document owns ordered Days, each owning ordered Nodes (the smallest
// addressable plan items). All mutation happens through ChangeSets: ordered
// batches of tagged operations (insert, replace, delete, move) that apply
// atomically. The package also computes structural diffs between document
// versions so callers can see exactly which nodes changed per day.
//
// The plan package holds no locks and performs no persistence. The engine
// package owns versioning, serialization of commits, and revision records.
package plan
