// Package idgen provides the identifier generators used by the diagnostic
// service: opaque session tokens handed to browsers and time-sortable ids for
// stored events.
//
// Constructors accept a Generator so the strategy is chosen at startup and
// tests can substitute deterministic sequences.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Alphanumeric returns a Generator of lowercase base-36 strings of the given
// length drawn from crypto/rand. Bytes above the largest multiple of 36 are
// rejected so every symbol is equally likely.
func Alphanumeric(length int) Generator {
	const limit = 256 - 256%len(base36)
	return func() string {
		out := make([]byte, 0, length)
		buf := make([]byte, length)
		for len(out) < length {
			if _, err := rand.Read(buf); err != nil {
				panic("idgen: crypto/rand failed: " + err.Error())
			}
			for _, b := range buf {
				if int(b) >= limit {
					continue
				}
				out = append(out, base36[int(b)%len(base36)])
				if len(out) == length {
					break
				}
			}
		}
		return string(out)
	}
}

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends a fixed type prefix ("sess_", "evt_") to every id.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// SessionToken is the generator for browser session tokens: 32 base-36
// symbols (~165 bits) behind a "sess_" prefix.
func SessionToken() Generator {
	return Prefixed("sess_", Alphanumeric(32))
}

// Default is used for stored entity ids.
var Default Generator = UUIDv7()

// New produces an id with the Default generator.
func New() string {
	return Default()
}
