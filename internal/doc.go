// Package internal holds the implementation of the inkwatch service.
//
// # Architecture
//
// The service is structured into several key packages:
//   - api: TRMNL cloud API client and battery sample recorder
//   - config: YAML + environment configuration
//   - database: Postgres storage for samples and the mirrored feed
//   - feed: RSS mirroring with read/unread state
//   - models: shared data structures
//   - scheduler: background recording, refresh and pruning jobs
//   - server: JSON HTTP API with request ID, rate limit, logging,
//     metrics and response-cache middleware
//   - trend: battery history analysis (clear-history recommendation,
//     least-squares depletion prediction, retention policy)
//
// The trend package is deliberately pure: it consumes an immutable snapshot
// of samples supplied by the database package and produces plain values.
// Deleting history is always an explicit caller action, never automatic.
package internal
