package model

import "time"

// Transaction status values.  The server owns every transition; clients
// only request them and re-read the resulting state.
//
//  RESERVED  – buyer requested the item, seller has not yet confirmed.
//  CONFIRMED – seller accepted; buyer must pay unless the item is free.
//  PENDING   – payment satisfied (or free item handed to the QR step);
//              awaiting the QR pickup handoff.
//  COMPLETED – pickup finalized via QR verification.  Terminal.
//  CANCELLED – withdrawn by either side before completion.  Terminal;
//              the product becomes reservable again.
//  FAILED    – payment provider reported failure.  Terminal.
//  REFUNDED  – amount returned after completion.  Terminal.
const (
    TxReserved  = "RESERVED"
    TxConfirmed = "CONFIRMED"
    TxPending   = "PENDING"
    TxCompleted = "COMPLETED"
    TxCancelled = "CANCELLED"
    TxFailed    = "FAILED"
    TxRefunded  = "REFUNDED"
)

// Transaction records one reservation-to-completion cycle between a
// buyer and a seller for a product.  A product has at most one
// non-terminal transaction at a time; the most recently created row is
// the authoritative current one for display purposes.
//
// Fields:
//  ID              – primary key identifier.
//  ProductID       – product being transacted.
//  BuyerID         – user who reserved the item.
//  SellerID        – product owner at reservation time.
//  Status          – lifecycle state (see constants above).
//  AmountCents     – item price captured at reservation time.
//  ServiceFeeCents – marketplace fee added on top of the amount.
//  PaymentRef      – external payment provider reference, if any.
//  PaidAt          – when payment was satisfied (nullable).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Transaction struct {
    ID              uint64     // transactions.id
    ProductID       uint64     // transactions.product_id
    BuyerID         uint64     // transactions.buyer_id
    SellerID        uint64     // transactions.seller_id
    Status          string     // transactions.status
    AmountCents     uint32     // transactions.amount_cents
    ServiceFeeCents uint32     // transactions.service_fee_cents
    PaymentRef      *string    // transactions.payment_ref (nullable)
    PaidAt          *time.Time // transactions.paid_at (nullable)
    CreatedAt       time.Time  // transactions.created_at
    UpdatedAt       time.Time  // transactions.updated_at
}

// Terminal reports whether the transaction can no longer transition.
func (t *Transaction) Terminal() bool {
    switch t.Status {
    case TxCompleted, TxCancelled, TxFailed, TxRefunded:
        return true
    }
    return false
}
