// Package quota enforces the per-user daily generation limit. Counters are keyed
// by user and UTC day; a check either consumes one unit or denies without
// touching the counter.
package quota

import (
	"context"
	"fmt"
	"time"
)

const (
	msgAuthRequired = "Authentification requise."
	msgLimitReached = "Limite quotidienne atteinte (%d). Réessaie demain."
)

// Decision is the outcome of one quota check.
type Decision struct {
	Allowed bool
	// Message explains a denial; empty when allowed
	Message string
	// Used is the count for the day after this check
	Used int
}

// Limiter atomically checks and consumes a user's daily allowance.
type Limiter interface {
	CheckAndIncrement(ctx context.Context, user string) (Decision, error)
}

// DayKey formats t as the UTC day bucket YYYYMMDD.
func DayKey(t time.Time) string {
	return t.UTC().Format("20060102")
}

func denyUnauthenticated() Decision {
	return Decision{Allowed: false, Message: msgAuthRequired}
}

func denyLimit(limit, used int) Decision {
	return Decision{Allowed: false, Message: fmt.Sprintf(msgLimitReached, limit), Used: used}
}
