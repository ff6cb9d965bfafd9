package models

import (
	"time"
)

// WatchType is the kind of watch movement/display
type WatchType string

const (
	WatchTypeAnalog  WatchType = "analog"
	WatchTypeDigital WatchType = "digital"
	WatchTypeSmart   WatchType = "smart"
	WatchTypeHybrid  WatchType = "hybrid"
)

// Valid reports whether the watch type is one of the known values
func (w WatchType) Valid() bool {
	switch w {
	case WatchTypeAnalog, WatchTypeDigital, WatchTypeSmart, WatchTypeHybrid:
		return true
	}
	return false
}

// Material is the case/strap material
type Material string

const (
	MaterialLeather Material = "leather"
	MaterialMetal   Material = "metal"
	MaterialPlastic Material = "plastic"
	MaterialRubber  Material = "rubber"
	MaterialOther   Material = "other"
)

// Valid reports whether the material is one of the known values
func (m Material) Valid() bool {
	switch m {
	case MaterialLeather, MaterialMetal, MaterialPlastic, MaterialRubber, MaterialOther:
		return true
	}
	return false
}

// Product represents a watch in the catalog. Its Price is the source of
// truth for order line-item pricing: order items snapshot it at creation
// time and are not affected by later price changes.
type Product struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"size:200;not null" json:"name"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Price       float64  `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID  uint     `gorm:"not null;index" json:"category_id"`
	Category    Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category"`
	BrandID     uint     `gorm:"not null;index" json:"brand_id"`
	Brand       Brand    `gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE" json:"brand"`

	ImageS3Key *string `json:"image_s3_key,omitempty"` // nullable, S3 key for the product photo
	ImageURL   *string `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for the photo

	// Watch-specific attributes
	WatchType       WatchType `gorm:"size:50;not null;default:'analog'" json:"watch_type"`
	Material        Material  `gorm:"size:100;not null" json:"material"`
	WaterResistance int       `gorm:"not null;check:water_resistance >= 0 AND water_resistance <= 300" json:"water_resistance"` // meters
	BatteryLife     *int      `json:"battery_life,omitempty"`  // days, digital and smart watches only
	StrapLength     *float64  `gorm:"type:decimal(5,2)" json:"strap_length,omitempty"` // centimeters
	DialSize        *float64  `gorm:"type:decimal(5,2)" json:"dial_size,omitempty"`    // millimeters
	Weight          *float64  `gorm:"type:decimal(5,2)" json:"weight,omitempty"`       // grams

	IsInStock bool      `gorm:"not null;default:true" json:"is_in_stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
