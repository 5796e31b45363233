package model

import "time"

// Badge codes awarded by the queue consumer.  Award rules live next to
// the consumer; the codes here are the stable identifiers exposed to
// clients.
const (
    BadgeFirstSale   = "FIRST_SALE"
    BadgeFirstPickup = "FIRST_PICKUP"
    BadgeTenDeals    = "TEN_DEALS"
    BadgeFoodSaver   = "FOOD_SAVER"
)

// Badge is a gamification achievement attached to a user.  Badges are
// computed entirely server-side when completed-transaction events are
// consumed; the client only displays them.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – badge owner.
//  Code      – badge code constant.
//  AwardedAt – when the badge was earned.
type Badge struct {
    ID        uint64    // badges.id
    UserID    uint64    // badges.user_id
    Code      string    // badges.code
    AwardedAt time.Time // badges.awarded_at
}

// CreditEntry is one line of a user's credit ledger.  Positive amounts
// are earned (completed deals), negative ones spent.  The current
// balance is the sum of all entries.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – ledger owner.
//  Amount    – signed credit delta.
//  Reason    – human-readable cause (e.g. "completed pickup").
//  CreatedAt – creation timestamp.
type CreditEntry struct {
    ID        uint64    // credit_entries.id
    UserID    uint64    // credit_entries.user_id
    Amount    int32     // credit_entries.amount
    Reason    string    // credit_entries.reason
    CreatedAt time.Time // credit_entries.created_at
}
