package entity

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"categoryId"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}
