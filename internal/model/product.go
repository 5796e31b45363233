package model

import "time"

// Product status values.  A product is reservable only while ACTIVE.
// Reserving it moves it to RESERVED; completing the pickup moves it to
// SOLD; a cancelled reservation returns it to ACTIVE.  EXPIRED products
// stay visible to their seller but are excluded from browse results.
const (
    ProductActive   = "ACTIVE"
    ProductReserved = "RESERVED"
    ProductSold     = "SOLD"
    ProductExpired  = "EXPIRED"
)

// Product is a surplus-food listing offered by a seller.  Price is in
// cents; zero means the item is given away for free, which skips the
// payment step of the transaction lifecycle entirely.
//
// Fields:
//  ID            – primary key identifier.
//  SellerID      – user offering the item.
//  Title         – short listing title.
//  Description   – free-form description.
//  PriceCents    – price in cents (0 = free).
//  Quantity      – number of portions/units offered.
//  ExpiresAt     – when the food itself expires.
//  PickupAddress – human-readable pickup location.
//  Latitude      – pickup latitude for nearby search.
//  Longitude     – pickup longitude for nearby search.
//  Status        – listing state (ACTIVE, RESERVED, SOLD, EXPIRED).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Product struct {
    ID            uint64    // products.id
    SellerID      uint64    // products.seller_id
    Title         string    // products.title
    Description   string    // products.description
    PriceCents    uint32    // products.price_cents
    Quantity      uint32    // products.quantity
    ExpiresAt     time.Time // products.expires_at
    PickupAddress string    // products.pickup_address
    Latitude      float64   // products.latitude
    Longitude     float64   // products.longitude
    Status        string    // products.status
    CreatedAt     time.Time // products.created_at
    UpdatedAt     time.Time // products.updated_at
}

// IsFree reports whether no payment is owed for this product.
func (p *Product) IsFree() bool { return p.PriceCents == 0 }
