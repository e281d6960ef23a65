package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Scope names the processor call a key protects
type Scope string

const (
	ScopeSubscriptionCreate Scope = "subscription_create"
	ScopeSubscriptionCard   Scope = "subscription_card"
	ScopeCustomerCreate     Scope = "customer_create"
	ScopeInvoicePayment     Scope = "invoice_payment"
	ScopeRefund             Scope = "refund"
	ScopeTerminalCheckout   Scope = "terminal_checkout"
)

// maxKeyLength is the shortest idempotency key limit among the processors (Square)
const maxKeyLength = 45

// Generator derives processor idempotency keys from the facts identifying an
// operation, so a retried request reuses the key of the first attempt.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey returns <scope>-<16 hex chars>. The same scope and params
// always give the same key, independent of map order.
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := lo.Keys(params)
	sort.Strings(keys)

	fields := lo.Map(keys, func(k string, _ int) string {
		return fmt.Sprintf("%s=%v", k, params[k])
	})

	sum := sha256.Sum256([]byte(string(scope) + "|" + strings.Join(fields, "|")))
	key := string(scope) + "-" + hex.EncodeToString(sum[:8])
	if len(key) > maxKeyLength {
		key = key[len(key)-maxKeyLength:]
	}
	return key
}
