package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveplate/marketplace/internal/model"
)

var allStatuses = []string{
	model.TxReserved, model.TxConfirmed, model.TxPending,
	model.TxCompleted, model.TxCancelled, model.TxFailed, model.TxRefunded,
}

var allRoles = []Role{RoleVisitor, RoleBuyer, RoleSeller}

// Every combination of inputs must resolve to exactly one stage with a
// well-formed action set: actions only appear once, and display-only
// stages carry none.
func TestEvaluateTotal(t *testing.T) {
	for _, role := range allRoles {
		for _, hasBuyer := range []bool{false, true} {
			for _, status := range allStatuses {
				for _, free := range []bool{false, true} {
					for _, reviewed := range []bool{false, true} {
						v := View{Role: role, HasBuyer: hasBuyer, Status: status, IsFree: free, HasReviewed: reviewed}
						step := Evaluate(v)
						require.NotEmpty(t, step.Stage, "no stage for %+v", v)
						seen := map[Action]bool{}
						for _, a := range step.Actions {
							assert.False(t, seen[a], "duplicate action %s for %+v", a, v)
							seen[a] = true
						}
					}
				}
			}
		}
	}
}

func TestEvaluateStages(t *testing.T) {
	tests := []struct {
		name    string
		view    View
		stage   Stage
		actions []Action
	}{
		{
			name:    "no buyer, prospective buyer may reserve",
			view:    View{Role: RoleBuyer},
			stage:   StageOpen,
			actions: []Action{ActionReserve},
		},
		{
			name:  "no buyer, seller sees own listing without actions",
			view:  View{Role: RoleSeller},
			stage: StageOwnListing,
		},
		{
			name:    "reserved, buyer may cancel",
			view:    View{Role: RoleBuyer, HasBuyer: true, Status: model.TxReserved},
			stage:   StageAwaitingSeller,
			actions: []Action{ActionCancel},
		},
		{
			name:    "reserved, seller may confirm or cancel",
			view:    View{Role: RoleSeller, HasBuyer: true, Status: model.TxReserved},
			stage:   StageConfirmRequest,
			actions: []Action{ActionConfirm, ActionCancel},
		},
		{
			name:    "confirmed paid item, seller informational with cancel",
			view:    View{Role: RoleSeller, HasBuyer: true, Status: model.TxConfirmed},
			stage:   StageAwaitingPayment,
			actions: []Action{ActionCancel},
		},
		{
			name:  "confirmed free item, seller has no actions",
			view:  View{Role: RoleSeller, HasBuyer: true, Status: model.TxConfirmed, IsFree: true},
			stage: StagePickupReady,
		},
		{
			name:    "confirmed paid item, buyer may pay or cancel",
			view:    View{Role: RoleBuyer, HasBuyer: true, Status: model.TxConfirmed},
			stage:   StagePaymentDue,
			actions: []Action{ActionPay, ActionCancel},
		},
		{
			name:    "confirmed free item, buyer goes straight to the QR step",
			view:    View{Role: RoleBuyer, HasBuyer: true, Status: model.TxConfirmed, IsFree: true},
			stage:   StageShowQR,
			actions: []Action{ActionGenerateQR},
		},
		{
			name:    "pending, buyer presents the code",
			view:    View{Role: RoleBuyer, HasBuyer: true, Status: model.TxPending},
			stage:   StageShowQR,
			actions: []Action{ActionGenerateQR},
		},
		{
			name:    "pending, seller scans the code",
			view:    View{Role: RoleSeller, HasBuyer: true, Status: model.TxPending},
			stage:   StageScanQR,
			actions: []Action{ActionCompleteByQR},
		},
		{
			name:    "completed, not yet reviewed",
			view:    View{Role: RoleBuyer, HasBuyer: true, Status: model.TxCompleted},
			stage:   StageReviewPrompt,
			actions: []Action{ActionReview},
		},
		{
			name:  "completed and reviewed, thank-you only",
			view:  View{Role: RoleSeller, HasBuyer: true, Status: model.TxCompleted, HasReviewed: true},
			stage: StageThankYou,
		},
		{
			name:  "refunded is display only",
			view:  View{Role: RoleBuyer, HasBuyer: true, Status: model.TxRefunded},
			stage: StageClosed,
		},
		{
			name:  "visitor never gets actions on an in-flight item",
			view:  View{Role: RoleVisitor, HasBuyer: true, Status: model.TxConfirmed},
			stage: StageReservedByOther,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := Evaluate(tt.view)
			assert.Equal(t, tt.stage, step.Stage)
			assert.Equal(t, tt.actions, step.Actions)
		})
	}
}

// Confirm must never be offered to buyers, and Reserve must never be
// offered once a buyer exists.
func TestActionRoleBoundaries(t *testing.T) {
	for _, hasBuyer := range []bool{false, true} {
		for _, status := range allStatuses {
			for _, free := range []bool{false, true} {
				buyer := Evaluate(View{Role: RoleBuyer, HasBuyer: hasBuyer, Status: status, IsFree: free})
				assert.False(t, buyer.Allows(ActionConfirm), "buyer offered confirm at %s", status)
				if hasBuyer {
					for _, role := range allRoles {
						step := Evaluate(View{Role: role, HasBuyer: true, Status: status, IsFree: free})
						assert.False(t, step.Allows(ActionReserve), "reserve offered at %s for role %d", status, role)
					}
				}
			}
		}
	}
}

func TestViewFor(t *testing.T) {
	p := &model.Product{ID: 7, SellerID: 1, PriceCents: 300}
	tx := &model.Transaction{ID: 9, ProductID: 7, BuyerID: 2, SellerID: 1, Status: model.TxReserved}

	t.Run("buyer", func(t *testing.T) {
		v := ViewFor(2, p, tx, false)
		assert.Equal(t, RoleBuyer, v.Role)
		assert.True(t, v.HasBuyer)
		assert.Equal(t, model.TxReserved, v.Status)
	})
	t.Run("seller", func(t *testing.T) {
		v := ViewFor(1, p, tx, false)
		assert.Equal(t, RoleSeller, v.Role)
	})
	t.Run("visitor", func(t *testing.T) {
		v := ViewFor(3, p, tx, false)
		assert.Equal(t, RoleVisitor, v.Role)
		assert.Equal(t, StageReservedByOther, Evaluate(v).Stage)
	})
	t.Run("cancelled lineage frees the product", func(t *testing.T) {
		cancelled := *tx
		cancelled.Status = model.TxCancelled
		v := ViewFor(3, p, &cancelled, false)
		assert.False(t, v.HasBuyer)
		assert.Equal(t, StageOpen, Evaluate(v).Stage)
	})
	t.Run("nil transaction", func(t *testing.T) {
		v := ViewFor(2, p, nil, false)
		assert.False(t, v.HasBuyer)
		assert.Equal(t, RoleVisitor, v.Role)
	})
}
