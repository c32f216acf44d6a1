package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Order statuses eligible for settlement.
const (
	StatusDelivered = "delivered"
	StatusCompleted = "completed"
)

// Attribute keys that link an order line to a referral partner.
const (
	AttrPartnerID         = "partnerId"
	AttrReferralPartnerID = "referralPartnerId"
)

type Order struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	OrderNumber string     `json:"order_number" gorm:"type:varchar(64)"`
	Status      string     `json:"status" gorm:"type:varchar(32);not null;index"`
	Currency    string     `json:"currency" gorm:"type:varchar(8)"`
	OrderDate   time.Time  `json:"order_date" gorm:"not null;index"`
	Items       []LineItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// LineItem is an immutable order line as recorded at checkout.
type LineItem struct {
	ID                string              `json:"id" gorm:"primaryKey;type:varchar(64)"`
	OrderID           string              `json:"order_id" gorm:"type:varchar(64);not null;index"`
	ProductID         string              `json:"product_id" gorm:"type:varchar(64);not null"`
	ProductName       string              `json:"product_name"`
	Quantity          int64               `json:"quantity" gorm:"not null"`
	UnitPrice         decimal.Decimal     `json:"unit_price" gorm:"type:numeric(20,4);not null"`
	TotalPrice        decimal.Decimal     `json:"total_price" gorm:"type:numeric(20,4);not null"`
	BasePriceSnapshot decimal.NullDecimal `json:"base_price_snapshot" gorm:"type:numeric(20,4)"`
	SalePriceSnapshot decimal.NullDecimal `json:"sale_price_snapshot" gorm:"type:numeric(20,4)"`
	SellerID          string              `json:"seller_id" gorm:"type:varchar(64);index"`
	SupplierID        string              `json:"supplier_id" gorm:"type:varchar(64);index"`
	Attributes        datatypes.JSONMap   `json:"attributes" gorm:"type:jsonb"`
}

func (LineItem) TableName() string { return "order_items" }

// Attribute returns a string attribute, or "" when missing or not a string.
func (i LineItem) Attribute(key string) string {
	if i.Attributes == nil {
		return ""
	}
	v, ok := i.Attributes[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// SalePrice prefers the snapshot taken at sale time over the list unit price.
func (i LineItem) SalePrice() decimal.Decimal {
	if i.SalePriceSnapshot.Valid {
		return i.SalePriceSnapshot.Decimal
	}
	return i.UnitPrice
}
