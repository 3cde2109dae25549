package borrow

import "time"

// LoanPeriodDays is the fixed lending period. There is no per-book or
// per-user variation.
const LoanPeriodDays = 90

// DueDate computes the due date for a loan taken out on borrowDate.
func DueDate(borrowDate time.Time) time.Time {
	return borrowDate.AddDate(0, 0, LoanPeriodDays)
}

// Renewed extends a loan from its current due date, not from today, so
// repeated renewals compound additively.
func Renewed(currentDueDate time.Time) time.Time {
	return currentDueDate.AddDate(0, 0, LoanPeriodDays)
}

// Overdue reports whether a loan due on dueDate is overdue as of asOf.
// A loan due exactly on asOf is not overdue.
func Overdue(dueDate, asOf time.Time) bool {
	return dueDate.Before(asOf)
}
