package client

import "time"

// The types below mirror the server's JSON responses.  Timestamps are
// RFC 3339 and decode straight into time.Time.

type User struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type TokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Session is the payload of register, login and refresh responses.
type Session struct {
	User    User      `json:"user"`
	Access  TokenPart `json:"access"`
	Refresh TokenPart `json:"refresh"`
}

type Product struct {
	ID            uint64    `json:"id"`
	SellerID      uint64    `json:"seller_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PriceCents    uint32    `json:"price_cents"`
	Price         float64   `json:"price"`
	Quantity      uint32    `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
	PickupAddress string    `json:"pickup_address"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// BrowseItem is one row of the public browse listing; DistanceKm is
// present only for geo-filtered searches.
type BrowseItem struct {
	ID            uint64    `json:"id"`
	SellerID      uint64    `json:"seller_id"`
	SellerName    string    `json:"seller_name"`
	Title         string    `json:"title"`
	PriceCents    uint32    `json:"price_cents"`
	Price         float64   `json:"price"`
	Quantity      uint32    `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
	PickupAddress string    `json:"pickup_address"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
}

type Transaction struct {
	ID              uint64     `json:"id"`
	ProductID       uint64     `json:"product_id"`
	BuyerID         uint64     `json:"buyer_id"`
	SellerID        uint64     `json:"seller_id"`
	Status          string     `json:"status"`
	AmountCents     uint32     `json:"amount_cents"`
	ServiceFeeCents uint32     `json:"service_fee_cents"`
	PaymentRef      string     `json:"payment_ref,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Step is the lifecycle affordance the server computed for the viewer:
// the stage to render and the actions to offer.
type Step struct {
	Stage   string   `json:"stage"`
	Actions []string `json:"actions"`
}

// ProductDetail is the full listing page payload.  Transactions is the
// lineage in creation order; the last entry is the current transaction.
type ProductDetail struct {
	Product      Product       `json:"product"`
	Transactions []Transaction `json:"transactions"`
	Reviews      []Review      `json:"reviews"`
	Step         Step          `json:"step"`
	HasReviewed  bool          `json:"has_reviewed"`
}

type Conversation struct {
	ID        uint64    `json:"id"`
	ProductID uint64    `json:"product_id"`
	BuyerID   uint64    `json:"buyer_id"`
	SellerID  uint64    `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is one row of the inbox listing.
type ConversationSummary struct {
	ID            uint64  `json:"id"`
	ProductID     uint64  `json:"product_id"`
	ProductTitle  string  `json:"product_title"`
	OtherUserID   uint64  `json:"other_user_id"`
	OtherUserName string  `json:"other_user_name"`
	LastMessage   *string `json:"last_message"`
	UpdatedAt     string  `json:"updated_at"`
	UnreadCount   int64   `json:"unread_count"`
}

type Message struct {
	ID             uint64     `json:"id"`
	ConversationID uint64     `json:"conversation_id"`
	SenderID       uint64     `json:"sender_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Notification struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ProductID uint64    `json:"product_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID            uint64    `json:"id"`
	TransactionID uint64    `json:"transaction_id"`
	AuthorID      uint64    `json:"author_id"`
	SubjectID     uint64    `json:"subject_id"`
	Rating        uint8     `json:"rating"`
	Comment       string    `json:"comment"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type Badge struct {
	ID        uint64    `json:"id"`
	Code      string    `json:"code"`
	AwardedAt time.Time `json:"awarded_at"`
}

// Progress is the one-request profile summary.
type Progress struct {
	CompletedDeals int64    `json:"completed_deals"`
	Badges         []string `json:"badges"`
	CreditBalance  int64    `json:"credit_balance"`
	AverageRating  float64  `json:"average_rating"`
	ReviewCount    int64    `json:"review_count"`
}

type CreditEntry struct {
	ID        uint64    `json:"id"`
	Amount    int32     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
