// Package domain defines the core entities of the statement ETL: transactions,
// billing periods, and the enums that describe how a record entered the system.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryOther is the sentinel category for transactions no rule could place.
const CategoryOther = "Outros"

// PaymentMethod distinguishes card charges from instant-payment debits.
// Debit items are excluded from card-balance reconciliation totals.
type PaymentMethod string

const (
	MethodCredit PaymentMethod = "credit"
	MethodDebit  PaymentMethod = "debit"
)

// SourceKind records how a transaction entered the system. Manual records
// survive period-level replacement during re-import; imported records are
// replaceable.
type SourceKind string

const (
	SourceImported SourceKind = "imported"
	SourceManual   SourceKind = "manual"
)

// ValidateMethod checks if the payment method is a known value.
func ValidateMethod(m PaymentMethod) bool {
	return m == MethodCredit || m == MethodDebit
}

// ValidateSource checks if the source kind is a known value.
func ValidateSource(s SourceKind) bool {
	return s == SourceImported || s == SourceManual
}

// Transaction is the central entity of the tracker. Amount is signed:
// positive = expense, negative = refund/credit.
type Transaction struct {
	ID               string
	PurchaseDate     time.Time
	InvoiceDate      time.Time
	BillingPeriod    Period
	Description      string
	Amount           float64
	Category         string
	Method           PaymentMethod
	FutureProjection bool
	Source           SourceKind
}

// NewTransaction creates a validated transaction. The billing period is
// derived from the invoice date, never passed in, so the two can't diverge.
func NewTransaction(id string, purchaseDate, invoiceDate time.Time, description string, amount float64, category string) (Transaction, error) {
	if id == "" {
		return Transaction{}, fmt.Errorf("transaction ID cannot be empty")
	}
	if purchaseDate.IsZero() {
		return Transaction{}, fmt.Errorf("purchase date cannot be zero")
	}
	if invoiceDate.IsZero() {
		invoiceDate = purchaseDate
	}
	description = strings.Join(strings.Fields(description), " ")
	if description == "" {
		return Transaction{}, fmt.Errorf("description cannot be empty")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Transaction{}, fmt.Errorf("amount must be a finite number, got %f", amount)
	}
	if category == "" {
		category = CategoryOther
	}

	return Transaction{
		ID:            id,
		PurchaseDate:  purchaseDate,
		InvoiceDate:   invoiceDate,
		BillingPeriod: PeriodOf(invoiceDate),
		Description:   description,
		Amount:        amount,
		Category:      category,
		Method:        MethodCredit,
		Source:        SourceImported,
	}, nil
}

// IsManual reports whether the record was entered by hand.
func (t Transaction) IsManual() bool {
	return t.Source == SourceManual
}

// IsRefund reports whether the record credits the card balance.
func (t Transaction) IsRefund() bool {
	return t.Amount < 0
}

// NewID generates an opaque unique transaction identifier.
func NewID() string {
	return uuid.NewString()
}

// NewManualID generates an identifier for manually entered records. The
// prefix lets stored data distinguish hand-entered rows at a glance.
func NewManualID() string {
	return "MAN_" + uuid.NewString()
}
