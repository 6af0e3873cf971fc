package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// Price is kept in minor units (cents) so price*quantity stays exact.
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string `gorm:"not null"                  json:"name"`
	Description string `gorm:"not null"                  json:"description"`
	Price       int64  `gorm:"not null"                  json:"price"`
	Stock       int64  `gorm:"not null;check:stock >= 0" json:"stock"`
}

// Order rows are append-only. ProductID is a weak reference: the product
// may be deleted later without touching its historical orders.
type Order struct {
	ID         uint  `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID     uint  `gorm:"index;not null"              json:"user_id"`
	ProductID  uint  `gorm:"not null"                    json:"product_id"`
	Quantity   int64 `gorm:"not null;check:quantity > 0" json:"quantity"`
	TotalPrice int64 `gorm:"not null"                    json:"total_price"`
	CreatedAt  int64 `gorm:"autoCreateTime;not null"     json:"created_at"`
}
