package model

// MerchantSite binds a storefront host to the portal template it is served with
type MerchantSite struct {
	BaseModel
	MerchantID int    `gorm:"not null;index" json:"merchant_id"`
	Host       string `gorm:"type:varchar(255);uniqueIndex;not null" json:"host"` // exact host or *.suffix wildcard
	Template   string `gorm:"type:varchar(64);not null" json:"template"`
	Enabled    bool   `gorm:"type:tinyint;default:1" json:"enabled"`
}

// TableName 指定表名
func (MerchantSite) TableName() string {
	return "merchant_sites"
}
