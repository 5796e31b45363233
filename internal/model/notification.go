package model

import "time"

// Notification types emitted by the background consumer when lifecycle
// events arrive from the broker.
const (
    NotifReservationRequested = "RESERVATION_REQUESTED"
    NotifReservationConfirmed = "RESERVATION_CONFIRMED"
    NotifReservationCancelled = "RESERVATION_CANCELLED"
    NotifTransactionCompleted = "TRANSACTION_COMPLETED"
    NotifBadgeAwarded         = "BADGE_AWARDED"
)

// Notification is a per-user inbox entry.  Rows are written exclusively
// by the queue consumer; handlers only list them and flip the read flag.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – recipient.
//  Type        – notification type constant.
//  Title       – short headline.
//  Body        – longer human-readable text.
//  ProductID   – related product, if any (nullable).
//  ReadAt      – when the user marked it read (nullable).
//  CreatedAt   – creation timestamp.
type Notification struct {
    ID        uint64     // notifications.id
    UserID    uint64     // notifications.user_id
    Type      string     // notifications.type
    Title     string     // notifications.title
    Body      string     // notifications.body
    ProductID *uint64    // notifications.product_id (nullable)
    ReadAt    *time.Time // notifications.read_at (nullable)
    CreatedAt time.Time  // notifications.created_at
}
