// Package redis wraps the go-redis client and implements the optional
// respect read cache. Every operation here is best-effort: Redis being down
// degrades reads to the database, it never fails a request.
package redis
