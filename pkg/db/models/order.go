package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/troupekit/troupe-backend/pkg/enums"
)

// Order is a completed ticket purchase. Money columns are legacy decimal
// dollars; the order engine prices in cents and converts on write. Orders
// are immutable once created.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID            uuid.UUID         `gorm:"column:event_id;type:uuid;not null"`
	PerformanceID      uuid.UUID         `gorm:"column:performance_id;type:uuid;not null"`
	StudentSaleLinkID  *uuid.UUID        `gorm:"column:student_sale_link_id;type:uuid"`
	BuyerEmail         string            `gorm:"column:buyer_email;not null"`
	BuyerName          string            `gorm:"column:buyer_name;not null"`
	BuyerPhone         *string           `gorm:"column:buyer_phone"`
	Subtotal           decimal.Decimal   `gorm:"column:subtotal;type:decimal(10,2);not null"`
	Fees               decimal.Decimal   `gorm:"column:fees;type:decimal(10,2);not null"`
	Donation           decimal.Decimal   `gorm:"column:donation;type:decimal(10,2);not null"`
	Total              decimal.Decimal   `gorm:"column:total;type:decimal(10,2);not null"`
	ExternalPaymentRef *string           `gorm:"column:external_payment_ref"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	Items              []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// OrderItem is exactly one physical ticket. An order of quantity N for a
// ticket type produces N rows, each with its own redemption code, so
// check-in is trackable per ticket.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	TicketTypeID   uuid.UUID       `gorm:"column:ticket_type_id;type:uuid;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2);not null"`
	RedemptionCode string          `gorm:"column:redemption_code;not null;uniqueIndex:uq_order_items_redemption_code"`
	CheckedInAt    *time.Time      `gorm:"column:checked_in_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
