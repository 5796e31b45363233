package model

import "time"

// Review status values.  New reviews start APPROVED and become REPORTED
// when the reviewed party flags them; an admin then either restores them
// to APPROVED or moves them to REJECTED.  Only non-REJECTED reviews
// count when deciding whether a user has already reviewed a transaction.
const (
    ReviewApproved = "APPROVED"
    ReviewReported = "REPORTED"
    ReviewRejected = "REJECTED"
)

// Review is feedback left after a completed transaction.  Each party may
// leave at most one review per transaction, and reviews can only exist
// once the transaction has reached COMPLETED.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – completed transaction being reviewed.
//  AuthorID      – user writing the review.
//  SubjectID     – user being reviewed (the other party).
//  Rating        – 1..5 stars.
//  Comment       – optional free-form text.
//  Status        – moderation state (APPROVED, REPORTED, REJECTED).
//  CreatedAt     – creation timestamp.
type Review struct {
    ID            uint64    // reviews.id
    TransactionID uint64    // reviews.transaction_id
    AuthorID      uint64    // reviews.author_id
    SubjectID     uint64    // reviews.subject_id
    Rating        uint8     // reviews.rating
    Comment       string    // reviews.comment
    Status        string    // reviews.status
    CreatedAt     time.Time // reviews.created_at
}
