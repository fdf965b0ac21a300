// Package checkout drives the inventory check-out/adjustment flow: a short
// state machine that walks an operator through project, person, PIN and
// quantity selection and then commits one stock mutation plus one ledger row.
package checkout

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// Modes.
const (
	ModeWithdrawal = "withdrawal"
	ModeAdjustment = "adjustment"
)

// States. Withdrawal starts at StateProjectSelect, adjustment at
// StateQuantityEntry (the target quantity is entered first, authentication
// is deferred to commit time). StateDone and StateAborted are terminal.
const (
	StateProjectSelect = "project_select"
	StatePersonSelect  = "person_select"
	StatePinAuth       = "pin_auth"
	StateQuantityEntry = "quantity_entry"
	StateCommitting    = "committing"
	StateDone          = "done"
	StateAborted       = "aborted"
)

var (
	ErrFlowNotFound      = errors.New("checkout flow not found")
	ErrBadState          = errors.New("step not allowed in current flow state")
	ErrUnknownProject    = errors.New("unknown project")
	ErrUnknownPerson     = errors.New("unknown person")
	ErrNotAdmin          = errors.New("adjustment requires an administrator")
	ErrPinLength         = errors.New("pin must be exactly 3 digits")
	ErrPinMismatch       = errors.New("pin entries do not match")
	ErrWrongPin          = errors.New("wrong pin")
	ErrQuantityInvalid   = errors.New("quantity must be a finite non-negative number")
	ErrInsufficientStock = errors.New("requested amount exceeds current stock")
)

// Flow is one operator's run through the state machine. It lives in the flow
// store (Redis in production) until it reaches a terminal state or expires.
type Flow struct {
	ID    string `json:"id"`
	Mode  string `json:"mode"`
	State string `json:"state"`

	Category string `json:"category"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName"`

	Project string `json:"project,omitempty"`

	PersonID     string `json:"personId,omitempty"`
	PersonName   string `json:"personName,omitempty"`
	PersonHasPin bool   `json:"personHasPin"`

	// Quantity is the withdrawal amount or the adjustment target, depending
	// on Mode. Zero means "not entered yet" for withdrawals.
	Quantity float64 `json:"quantity"`

	StartedBy string    `json:"startedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *Flow) Terminal() bool {
	return f.State == StateDone || f.State == StateAborted
}

// ParseQuantity parses operator-entered decimal text. NaN, infinities and
// negative values are rejected.
func ParseQuantity(raw string) (float64, error) {
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrQuantityInvalid
	}
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0, ErrQuantityInvalid
	}
	return q, nil
}

// validPin checks the 3-digit shape shared by PIN creation and verification.
func validPin(pin string) bool {
	if len(pin) != 3 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
