package models

import "time"

// User owns zero or more Audits, keyed by wallet address. Users are created
// implicitly on first audit submission (or by an explicit upsert) and are
// never deleted by this service. The wallet address is treated as an opaque,
// case-sensitive identifier.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	WalletAddress string    `json:"walletAddress" gorm:"column:wallet_address;uniqueIndex;not null"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"column:updated_at"`

	Audits []Audit `json:"audits,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
