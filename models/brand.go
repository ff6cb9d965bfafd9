package models

// Brand is a watch manufacturer (e.g. "Casio", "Seiko")
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// TableName specifies the table name for the Brand model
func (Brand) TableName() string {
	return "brands"
}
