// Package store provides durable storage for survey definitions, respondents
// and captured responses. Two backends ship with the repository:
//
//   - InMemoryStore: process local, used by tests and the default dev wiring
//   - PostgresStore: pgx-backed, for real deployments
//
// Both implement core.SurveyStore, core.ResponseStore and
// core.CompletionNotifier, so the wiring layer alone decides which backend a
// deployment runs on.
package store
