// model/history.go
package model

import "time"

type HistoryAction string

const (
	ActionBorrow HistoryAction = "borrow"
	ActionRenew  HistoryAction = "renew"
	ActionReturn HistoryAction = "return"
)

// Description renders the audit label shown to clients.
func (a HistoryAction) Description() string {
	switch a {
	case ActionBorrow:
		return "borrowed for 90 days"
	case ActionRenew:
		return "renewed for 90 days"
	case ActionReturn:
		return "returned"
	}
	return string(a)
}

// HistoryEntry is an append-only audit record of one borrow-lifecycle
// transition. Entries are never updated or deleted.
type HistoryEntry struct {
	ID     int64         `json:"id"`
	BookID int64         `json:"book_id"`
	UserID int64         `json:"user_id"`
	Date   time.Time     `json:"date"`
	Action HistoryAction `json:"action"`
}
