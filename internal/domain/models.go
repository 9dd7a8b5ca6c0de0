// Package domain defines the persistence models for contacts, customer
// threads and customer messages, plus the read-only shop entities (customers,
// orders, products) referenced by the contact form. These types are mapped
// with GORM and form the core data layer of the contact form service.
package domain

import (
	"time"
)

// Thread statuses. Only "open" is written by the contact form; the other
// values are set by support staff elsewhere and are listed for completeness.
const (
	ThreadStatusOpen     = "open"
	ThreadStatusClosed   = "closed"
	ThreadStatusPending1 = "pending1"
	ThreadStatusPending2 = "pending2"
)

// Contact is a support subject/category a visitor can address a message to.
//
// Fields:
//   - ID: numeric primary key.
//   - Email: routing address; empty means the message is handled by the shop's
//     own support inbox instead of being forwarded.
//   - CustomerService: when true, messages are threaded into CustomerThreads.
//   - Position: display order in the subject list.
//   - Translations: localized names and descriptions.
type Contact struct {
	ID              uint          `json:"id_contact"       gorm:"primaryKey"`
	Email           string        `json:"email"            gorm:"type:varchar(255);not null;default:''"`
	CustomerService bool          `json:"customer_service" gorm:"not null;default:false"`
	Position        int           `json:"position"         gorm:"not null;default:0"`
	Translations    []ContactLang `json:"-"                gorm:"foreignKey:ContactID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Contact.
func (Contact) TableName() string { return "contacts" }

// ContactLang holds the localized name/description of a Contact.
type ContactLang struct {
	ContactID   uint   `gorm:"primaryKey"`
	Lang        string `gorm:"type:varchar(8);primaryKey"`
	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
}

// TableName returns the database table name for ContactLang.
func (ContactLang) TableName() string { return "contact_lang" }

// LocalizedContact is a Contact flattened with its name in one language.
// It is the shape exposed to templates and the JSON API.
type LocalizedContact struct {
	ID              uint   `json:"id_contact"`
	Email           string `json:"email"`
	CustomerService bool   `json:"customer_service"`
	Name            string `json:"name"`
	Description     string `json:"description"`
}

// CustomerThread is a support conversation between one sender and staff,
// optionally scoped to one order. At most one thread is active per
// (email, order) pair.
//
// Fields:
//   - CustomerID / OrderID / ProductID: 0 means "none".
//   - Token: secret that lets an anonymous visitor resume the thread from a
//     mailed link.
//   - Status: "open" whenever the visitor writes.
type CustomerThread struct {
	ID         uint      `json:"id_customer_thread" gorm:"primaryKey"`
	CustomerID uint      `json:"id_customer"        gorm:"not null;default:0;index"`
	ShopID     uint      `json:"id_shop"            gorm:"not null;default:1"`
	OrderID    uint      `json:"id_order"           gorm:"not null;default:0;index:idx_thread_email_order,priority:2"`
	ProductID  uint      `json:"id_product"         gorm:"not null;default:0"`
	ContactID  uint      `json:"id_contact"         gorm:"not null;index"`
	Lang       string    `json:"lang"               gorm:"type:varchar(8);not null"`
	Email      string    `json:"email"              gorm:"type:varchar(255);not null;index:idx_thread_email_order,priority:1"`
	Status     string    `json:"status"             gorm:"type:varchar(16);not null;default:'open';check:status IN ('open','closed','pending1','pending2')"`
	Token      string    `json:"-"                  gorm:"type:varchar(12);not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for CustomerThread.
func (CustomerThread) TableName() string { return "customer_threads" }

// CustomerMessage is one message within a thread. Messages are append-only.
//
// Fields:
//   - FileName: stored attachment name inside the upload directory, if any.
//   - IPAddress: sender IPv4 packed as an unsigned integer (0 if unknown).
type CustomerMessage struct {
	ID               uint      `json:"id_customer_message" gorm:"primaryKey"`
	CustomerThreadID uint      `json:"id_customer_thread"  gorm:"not null;index:idx_thread_msgs,priority:1"`
	Message          string    `json:"message"             gorm:"type:text;not null"`
	FileName         string    `json:"file_name"           gorm:"type:varchar(64);not null;default:''"`
	IPAddress        uint32    `json:"ip_address"          gorm:"not null;default:0"`
	UserAgent        string    `json:"user_agent"          gorm:"type:varchar(128);not null;default:''"`
	CreatedAt        time.Time `json:"created_at"          gorm:"index:idx_thread_msgs,priority:2"`

	// Thread is the owning conversation; messages go with it.
	Thread CustomerThread `json:"-" gorm:"foreignKey:CustomerThreadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CustomerMessage.
func (CustomerMessage) TableName() string { return "customer_messages" }

// Customer is a registered shop customer (read-only here).
type Customer struct {
	ID        uint   `json:"id_customer" gorm:"primaryKey"`
	Email     string `json:"email"       gorm:"type:varchar(255);not null;index"`
	FirstName string `json:"firstname"   gorm:"type:varchar(255)"`
	LastName  string `json:"lastname"    gorm:"type:varchar(255)"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Order is a placed order (read-only here). It belongs to the customer whose
// ID is stored in CustomerID.
type Order struct {
	ID         uint          `json:"id_order"    gorm:"primaryKey"`
	CustomerID uint          `json:"id_customer" gorm:"not null;index"`
	Reference  string        `json:"reference"   gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time     `json:"created_at"`
	Lines      []OrderDetail `json:"products"    gorm:"foreignKey:OrderID"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderDetail is one product line of an order.
type OrderDetail struct {
	ID          uint   `json:"id_order_detail" gorm:"primaryKey"`
	OrderID     uint   `json:"id_order"        gorm:"not null;index"`
	ProductID   uint   `json:"id_product"      gorm:"not null"`
	ProductName string `json:"name"            gorm:"type:varchar(255);not null"`
	Quantity    int    `json:"quantity"        gorm:"not null;default:1"`
}

// TableName returns the database table name for OrderDetail.
func (OrderDetail) TableName() string { return "order_detail" }

// Product is a catalog product (read-only here).
type Product struct {
	ID           uint          `json:"id_product" gorm:"primaryKey"`
	Reference    string        `json:"reference"  gorm:"type:varchar(64)"`
	Translations []ProductLang `json:"-"          gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductLang holds the localized name of a Product.
type ProductLang struct {
	ProductID uint   `gorm:"primaryKey"`
	Lang      string `gorm:"type:varchar(8);primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
}

// TableName returns the database table name for ProductLang.
func (ProductLang) TableName() string { return "product_lang" }

// Setting is one entry of the global key/value configuration storage.
type Setting struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null;default:''"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }

// HasOrder reports whether the thread is scoped to an order.
func (t *CustomerThread) HasOrder() bool { return t != nil && t.OrderID > 0 }

// Name returns the localized name for lang, or "" when the product has no
// translation in that language.
func (p *Product) Name(lang string) string {
	if p == nil {
		return ""
	}
	for _, tr := range p.Translations {
		if tr.Lang == lang {
			return tr.Name
		}
	}
	return ""
}
