// Package queue defines message payloads exchanged over the message broker.
package queue

// Lifecycle event kinds published on the marketplace.lifecycle queue.
const (
    KindReserved  = "reserved"
    KindConfirmed = "confirmed"
    KindCancelled = "cancelled"
    KindCompleted = "completed"
)

// LifecycleEvent is published whenever a transaction changes state.  It
// carries enough information for downstream consumers to write inbox
// notifications and award gamification rewards without querying the
// primary database for display data.
type LifecycleEvent struct {
    Kind          string `json:"kind"`
    TransactionID uint64 `json:"transaction_id"`
    ProductID     uint64 `json:"product_id"`
    ProductTitle  string `json:"product_title"`
    BuyerID       uint64 `json:"buyer_id"`
    BuyerName     string `json:"buyer_name"`
    SellerID      uint64 `json:"seller_id"`
    SellerName    string `json:"seller_name"`
    AmountCents   uint32 `json:"amount_cents"`
    CancelledBy   uint64 `json:"cancelled_by,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
