// Package redis provides the go-redis client, its lifecycle component and
// a JSON TypedStore used to persist sealed voiceprints across restarts.
package redis
