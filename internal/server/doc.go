// Package server exposes the respect service over HTTP: the award/penalty
// write endpoints, read endpoints for balances and the leaderboard, the
// manual decay trigger, and the health/metrics/version surface. All /api and
// /admin routes sit behind the shared-secret bearer token.
package server
