package models

// Category groups products (e.g. "Men", "Women", "Accessories")
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}
