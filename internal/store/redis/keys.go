package redis

import "fmt"

const (
	// DefaultKeyPrefix namespaces every key written by the store.
	DefaultKeyPrefix = "mysa:"

	entrySegment = "entry:"
	orderSegment = "entries:order"
)

// Keys builds Redis keys under a prefix.
type Keys struct {
	prefix string
}

// NewKeys returns a key builder. An empty prefix uses DefaultKeyPrefix.
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{prefix: prefix}
}

// Entry returns the key holding one entry record.
func (k Keys) Entry(id string) string {
	return k.prefix + entrySegment + id
}

// Order returns the key of the list holding entry IDs in display order.
func (k Keys) Order() string {
	return k.prefix + orderSegment
}

// EntryID extracts the entry ID from a key built by Entry.
func (k Keys) EntryID(key string) (string, error) {
	p := k.prefix + entrySegment
	if len(key) <= len(p) || key[:len(p)] != p {
		return "", fmt.Errorf("invalid entry key: %s", key)
	}
	return key[len(p):], nil
}
