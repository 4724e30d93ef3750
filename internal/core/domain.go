package core

import "errors"

// Kind selects one of the two independent ledgers. The ledgers share a
// contract but not an identity space: record ids are unique per kind only.
type Kind string

const (
	Expense Kind = "expense"
	Credit  Kind = "credit"
)

// Valid reports whether k names a known ledger.
func (k Kind) Valid() bool {
	return k == Expense || k == Credit
}

// Table returns the SQLite table backing the ledger, or "" for an
// unknown kind.
func (k Kind) Table() string {
	switch k {
	case Expense:
		return "expenses"
	case Credit:
		return "credits"
	}
	return ""
}

// Noun returns the singular record noun used in operation messages.
func (k Kind) Noun() string {
	return string(k)
}

// Label returns the capitalized noun for message prefixes.
func (k Kind) Label() string {
	switch k {
	case Expense:
		return "Expense"
	case Credit:
		return "Credit"
	}
	return "Record"
}

// Record is one monetary event. Date is an opaque YYYY-MM-DD string and is
// compared lexicographically in range queries; the store does not validate it
// as a calendar date. Category is freeform and not checked against the
// catalog. An omitted subcategory or note is stored as "" and is
// indistinguishable from an explicit empty string.
type Record struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Note        string  `json:"note"`
}

// CategoryTotal is one row of a category aggregation.
type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"total_amount"`
}

// FieldUpdates carries the mutable fields of a partial update. A nil field is
// left untouched; a non-nil field is written, including explicit empty
// strings. The id is never updatable.
type FieldUpdates struct {
	Date        *string
	Amount      *float64
	Category    *string
	Subcategory *string
	Note        *string
}

// Empty reports whether no field was provided.
func (u FieldUpdates) Empty() bool {
	return u.Date == nil && u.Amount == nil && u.Category == nil &&
		u.Subcategory == nil && u.Note == nil
}

var (
	// ErrNotFound signals that a well-formed request matched zero rows.
	// It is a normal business outcome, not a storage fault.
	ErrNotFound = errors.New("no matching record")

	// ErrNoFields signals a partial update that provided no fields.
	ErrNoFields = errors.New("no fields provided to update")
)
