package model

import "time"

// Conversation is a private message thread between the buyer and the
// seller of one product.  At most one conversation exists per
// (product, buyer) pair; reopening the thread returns the existing row.
//
// Fields:
//  ID        – primary key identifier.
//  ProductID – product the thread is about.
//  BuyerID   – interested user who opened the thread.
//  SellerID  – product owner.
//  CreatedAt – creation timestamp.
//  UpdatedAt – bumped whenever a message is appended, used for ordering
//              the conversation list by recency.
type Conversation struct {
    ID        uint64    // conversations.id
    ProductID uint64    // conversations.product_id
    BuyerID   uint64    // conversations.buyer_id
    SellerID  uint64    // conversations.seller_id
    CreatedAt time.Time // conversations.created_at
    UpdatedAt time.Time // conversations.updated_at
}

// Message is a single chat entry inside a conversation.  Messages are
// immutable once written; read state is tracked per message via ReadAt.
//
// Fields:
//  ID             – primary key identifier.
//  ConversationID – thread the message belongs to.
//  SenderID       – author of the message.
//  Body           – message text.
//  ReadAt         – when the recipient read it (nullable).
//  CreatedAt      – creation timestamp; messages sort by this field.
type Message struct {
    ID             uint64     // messages.id
    ConversationID uint64     // messages.conversation_id
    SenderID       uint64     // messages.sender_id
    Body           string     // messages.body
    ReadAt         *time.Time // messages.read_at (nullable)
    CreatedAt      time.Time  // messages.created_at
}
