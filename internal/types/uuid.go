package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex subs_01J9Z6Q0M3B1N7T2KX4V8D5WQH
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_TENANT               = "tenant"
	UUID_PREFIX_USER                 = "user"
	UUID_PREFIX_LOCATION             = "loc"
	UUID_PREFIX_SUBSCRIPTION         = "subs"
	UUID_PREFIX_SUBSCRIPTION_PAYMENT = "subpay"
	UUID_PREFIX_INVOICE              = "inv"
	UUID_PREFIX_INVENTORY_ITEM       = "item"
	UUID_PREFIX_INVENTORY_TRANSFER   = "xfer"
	UUID_PREFIX_INTEGRATION          = "intg"
)
