// Package lifecycle models the reservation/payment/pickup lifecycle of a
// transaction as an explicit table: (status × role × flags) → stage and
// allowed actions.  Handlers use it to validate requested transitions
// and the API client uses it to derive which affordance to present for
// a fetched product.  Because the stage is re-derived from the current
// server state on every call, callers self-correct on any refetch and
// never hold a transition of their own.
package lifecycle

import "github.com/saveplate/marketplace/internal/model"

// Role is the viewer's relationship to a product.
type Role int

const (
    RoleVisitor Role = iota // neither buyer nor seller
    RoleBuyer               // viewer is the buyer of the current transaction (or a prospective one)
    RoleSeller              // viewer owns the product
)

// Action is a transition a viewer may request in the current stage.
type Action string

const (
    ActionReserve      Action = "reserve"
    ActionConfirm      Action = "confirm"
    ActionCancel       Action = "cancel"
    ActionPay          Action = "pay"
    ActionGenerateQR   Action = "generate_qr"
    ActionCompleteByQR Action = "complete_by_qr"
    ActionReview       Action = "review"
)

// Stage identifies the single UI affordance for a (status, role, flags)
// combination.  Exactly one stage applies to any combination.
type Stage string

const (
    StageOpen            Stage = "open"              // no active transaction, item reservable
    StageOwnListing      Stage = "own_listing"       // seller viewing their unreserved item
    StageReservedByOther Stage = "reserved_by_other" // visitor viewing an in-flight item
    StageAwaitingSeller  Stage = "awaiting_seller"   // RESERVED, buyer waiting for confirmation
    StageConfirmRequest  Stage = "confirm_request"   // RESERVED, seller decides
    StagePaymentDue      Stage = "payment_due"       // CONFIRMED paid item, buyer owes payment
    StageAwaitingPayment Stage = "awaiting_payment"  // CONFIRMED paid item, seller informational
    StagePickupReady     Stage = "pickup_ready"      // CONFIRMED free item, seller informational
    StageShowQR          Stage = "show_qr"           // buyer presents the pickup code
    StageScanQR          Stage = "scan_qr"           // seller scans the pickup code
    StageReviewPrompt    Stage = "review_prompt"     // COMPLETED, viewer has not reviewed yet
    StageThankYou        Stage = "thank_you"         // COMPLETED, viewer already reviewed
    StageClosed          Stage = "closed"            // CANCELLED/FAILED/REFUNDED, display only
)

// View is the input of the table: everything the stage depends on.
// HasBuyer is false when the product has no current (non-terminal)
// transaction; Status is ignored in that case.
type View struct {
    Role        Role
    HasBuyer    bool
    Status      string
    IsFree      bool
    HasReviewed bool
}

// Step is the output of the table: the stage to present and the actions
// the viewer may request while in it.
type Step struct {
    Stage   Stage
    Actions []Action
}

// Evaluate resolves a View to exactly one Step.  The switch is total
// over the status enumeration; unknown statuses fall through to the
// closed stage so that a newer server vocabulary degrades to a
// display-only card instead of a wrong affordance.
func Evaluate(v View) Step {
    if !v.HasBuyer {
        if v.Role == RoleSeller {
            return Step{Stage: StageOwnListing}
        }
        return Step{Stage: StageOpen, Actions: []Action{ActionReserve}}
    }
    // A visitor never gets actions on someone else's in-flight lifecycle.
    if v.Role == RoleVisitor {
        return Step{Stage: StageReservedByOther}
    }
    switch v.Status {
    case model.TxReserved:
        if v.Role == RoleSeller {
            return Step{Stage: StageConfirmRequest, Actions: []Action{ActionConfirm, ActionCancel}}
        }
        return Step{Stage: StageAwaitingSeller, Actions: []Action{ActionCancel}}
    case model.TxConfirmed:
        switch {
        case v.Role == RoleSeller && !v.IsFree:
            return Step{Stage: StageAwaitingPayment, Actions: []Action{ActionCancel}}
        case v.Role == RoleSeller:
            return Step{Stage: StagePickupReady}
        case v.IsFree:
            // Nothing is owed, so the buyer goes straight to the QR step.
            return Step{Stage: StageShowQR, Actions: []Action{ActionGenerateQR}}
        default:
            return Step{Stage: StagePaymentDue, Actions: []Action{ActionPay, ActionCancel}}
        }
    case model.TxPending:
        if v.Role == RoleSeller {
            return Step{Stage: StageScanQR, Actions: []Action{ActionCompleteByQR}}
        }
        return Step{Stage: StageShowQR, Actions: []Action{ActionGenerateQR}}
    case model.TxCompleted:
        if v.HasReviewed {
            return Step{Stage: StageThankYou}
        }
        return Step{Stage: StageReviewPrompt, Actions: []Action{ActionReview}}
    default:
        // CANCELLED, FAILED, REFUNDED and anything unknown.
        return Step{Stage: StageClosed}
    }
}

// Allows reports whether the given action is available in the step.  It
// is the server-side transition guard: handlers build the requester's
// View, evaluate it, and reject requests whose action is absent.
func (s Step) Allows(a Action) bool {
    for _, have := range s.Actions {
        if have == a {
            return true
        }
    }
    return false
}

// RoleFor derives the viewer's role relative to a product and its
// current transaction.  A viewer matching neither side is a visitor.
func RoleFor(viewerID, sellerID uint64, tx *model.Transaction) Role {
    if viewerID == sellerID {
        return RoleSeller
    }
    if tx != nil && viewerID == tx.BuyerID {
        return RoleBuyer
    }
    return RoleVisitor
}

// ViewFor builds the table input for a viewer looking at a product.
// tx is the latest transaction of the product, nil when none exists or
// the latest one is terminal in a way that frees the product
// (cancellation).  hasReviewed must reflect the viewer, not either
// party in general.
func ViewFor(viewerID uint64, p *model.Product, tx *model.Transaction, hasReviewed bool) View {
    v := View{
        Role:        RoleFor(viewerID, p.SellerID, tx),
        IsFree:      p.IsFree(),
        HasReviewed: hasReviewed,
    }
    if tx != nil && tx.Status != model.TxCancelled {
        v.HasBuyer = true
        v.Status = tx.Status
    }
    return v
}
