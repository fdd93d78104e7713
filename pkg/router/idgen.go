package router

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// IDGenerator produces route ids.
type IDGenerator interface {
	NewID() string
}

type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string {
	return f()
}

// UUIDGenerator returns random version 4 UUIDs.
func UUIDGenerator() IDGenerator {
	return IDGeneratorFunc(uuid.NewString)
}

// KSUIDGenerator returns K-sortable ids, so ids sort in creation order.
func KSUIDGenerator() IDGenerator {
	return IDGeneratorFunc(func() string {
		return ksuid.New().String()
	})
}

// IDGeneratorByName maps a config value to a generator. Unknown names fall
// back to UUIDs.
func IDGeneratorByName(name string) IDGenerator {
	switch name {
	case "ksuid":
		return KSUIDGenerator()
	default:
		return UUIDGenerator()
	}
}
