// model/loan.go
package model

import "time"

// Loan is the single active borrow record for a book. Its existence is
// the "currently borrowed" flag: no row means the book is available.
type Loan struct {
	ID         int64     `json:"id"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	BorrowDate time.Time `json:"borrow_date"`
	ReturnDate time.Time `json:"return_date"` // due date
}
