package models

import "time"

type Supplier struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:150;not null"`
	CompanyName *string `gorm:"size:150"`
	Phone       string  `gorm:"size:20;not null;uniqueIndex"`
	Address     *string `gorm:"type:text"`
	CreatedAt   time.Time
}

type Customer struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"size:150;not null"`
	Phone     string  `gorm:"size:20;not null;uniqueIndex"`
	Address   *string `gorm:"type:text"`
	CreatedAt time.Time
}
