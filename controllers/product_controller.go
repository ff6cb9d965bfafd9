package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/humoyun-dev/akmaljanvc-watch/config"
	"github.com/humoyun-dev/akmaljanvc-watch/models"
	"github.com/humoyun-dev/akmaljanvc-watch/services"
	"github.com/humoyun-dev/akmaljanvc-watch/utils"
	"gorm.io/gorm"
)

// ProductRequest represents the request body for creating or updating a product
type ProductRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description" binding:"required"`
	Price           float64  `json:"price" binding:"required,gt=0"`
	CategoryID      uint     `json:"category_id" binding:"required"`
	BrandID         uint     `json:"brand_id" binding:"required"`
	WatchType       string   `json:"watch_type" binding:"omitempty,oneof=analog digital smart hybrid"`
	Material        string   `json:"material" binding:"required,oneof=leather metal plastic rubber other"`
	WaterResistance int      `json:"water_resistance" binding:"gte=0,lte=300"`
	BatteryLife     *int     `json:"battery_life"`
	StrapLength     *float64 `json:"strap_length"`
	DialSize        *float64 `json:"dial_size"`
	Weight          *float64 `json:"weight"`
	IsInStock       *bool    `json:"is_in_stock"`
}

// orderingColumns whitelists the ?ordering= values, DRF style: a leading
// "-" means descending.
var orderingColumns = map[string]string{
	"price":       "price ASC",
	"-price":      "price DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

// ListProducts handles GET /api/v1/products with optional filtering,
// search and ordering: ?category=, ?brand=, ?is_in_stock=, ?search=,
// ?ordering=price|-price|created_at|-created_at
func ListProducts(c *gin.Context) {
	db := config.GetDB()

	query := db.Model(&models.Product{}).Preload("Category").Preload("Brand")

	if v := c.Query("category"); v != "" {
		query = query.Where("category_id = ?", v)
	}
	if v := c.Query("brand"); v != "" {
		query = query.Where("brand_id = ?", v)
	}
	if v := c.Query("is_in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "is_in_stock must be a boolean",
				},
			})
			return
		}
		query = query.Where("is_in_stock = ?", inStock)
	}
	if v := c.Query("search"); v != "" {
		// LOWER+LIKE works on both postgres and sqlite
		pattern := "%" + v + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if v := c.Query("ordering"); v != "" {
		orderBy, ok := orderingColumns[v]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "ordering must be one of price, -price, created_at, -created_at",
				},
			})
			return
		}
		query = query.Order(orderBy)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load products",
			},
		})
		return
	}

	for i := range products {
		attachImageURL(&products[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// GetProduct handles GET /api/v1/products/:id. Reads go through the redis
// cache when one is configured.
func GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	cache := services.GetProductCache()
	if product, hit := cache.Get(c.Request.Context(), id); hit {
		attachImageURL(product)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    product,
		})
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.Preload("Category").Preload("Brand").First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	cache.Set(c.Request.Context(), &product)
	attachImageURL(&product)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// CreateProduct handles POST /api/v1/products (admin only)
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	db := config.GetDB()
	if !referencedCatalogExists(c, db, req) {
		return
	}

	product := productFromRequest(req)
	if err := db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create product",
			},
		})
		return
	}

	if err := db.Preload("Category").Preload("Brand").First(&product, product.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load product details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct handles PUT /api/v1/products/:id (admin only)
func UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	if !referencedCatalogExists(c, db, req) {
		return
	}

	updated := productFromRequest(req)
	updated.ID = product.ID
	updated.ImageS3Key = product.ImageS3Key
	updated.CreatedAt = product.CreatedAt

	if err := db.Save(&updated).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update product",
			},
		})
		return
	}

	services.GetProductCache().Invalidate(c.Request.Context(), product.ID)

	if err := db.Preload("Category").Preload("Brand").First(&updated, updated.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load product details",
			},
		})
		return
	}
	attachImageURL(&updated)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// DeleteProduct handles DELETE /api/v1/products/:id (admin only).
// Existing order items keep their snapshotted price; their product
// reference becomes NULL.
func DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Detach order items first; sqlite only enforces ON DELETE SET NULL
		// with foreign_keys=on.
		if err := tx.Model(&models.OrderItem{}).
			Where("product_id = ?", product.ID).
			Update("product_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete product",
			},
		})
		return
	}

	services.GetProductCache().Invalidate(c.Request.Context(), product.ID)

	if product.ImageS3Key != nil {
		if s3 := services.GetS3Service(); s3 != nil {
			if err := s3.DeleteFile(*product.ImageS3Key); err != nil {
				log.Printf("Failed to delete image of product %d: %v", product.ID, err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product deleted",
	})
}

// UploadProductImage handles POST /api/v1/products/:id/image (admin only)
func UploadProductImage(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "An image file is required",
			},
		})
		return
	}

	if err := utils.ValidateImageFile(fileHeader); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	s3 := services.GetS3Service()
	if s3 == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Image storage is not configured",
			},
		})
		return
	}

	s3Key, err := s3.UploadFile(fileHeader)
	if err != nil {
		log.Printf("Failed to upload image for product %d: %v", product.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the image",
			},
		})
		return
	}

	oldKey := product.ImageS3Key
	product.ImageS3Key = &s3Key
	if err := db.Model(&product).Update("image_s3_key", s3Key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to save the image reference",
			},
		})
		return
	}

	if oldKey != nil && *oldKey != s3Key {
		if err := s3.DeleteFile(*oldKey); err != nil {
			log.Printf("Failed to delete replaced image %s: %v", *oldKey, err)
		}
	}

	services.GetProductCache().Invalidate(c.Request.Context(), product.ID)
	attachImageURL(&product)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

func productFromRequest(req ProductRequest) models.Product {
	product := models.Product{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		CategoryID:      req.CategoryID,
		BrandID:         req.BrandID,
		WatchType:       models.WatchType(req.WatchType),
		Material:        models.Material(req.Material),
		WaterResistance: req.WaterResistance,
		BatteryLife:     req.BatteryLife,
		StrapLength:     req.StrapLength,
		DialSize:        req.DialSize,
		Weight:          req.Weight,
		IsInStock:       true,
	}
	if product.WatchType == "" {
		product.WatchType = models.WatchTypeAnalog
	}
	if req.IsInStock != nil {
		product.IsInStock = *req.IsInStock
	}
	return product
}

// referencedCatalogExists verifies the category and brand references; it
// writes the error response and returns false when either is missing.
func referencedCatalogExists(c *gin.Context, db *gorm.DB, req ProductRequest) bool {
	var category models.Category
	if err := db.First(&category, req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Category does not exist",
			},
		})
		return false
	}
	var brand models.Brand
	if err := db.First(&brand, req.BrandID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Brand does not exist",
			},
		})
		return false
	}
	return true
}

// attachImageURL fills the computed presigned URL when the product has an
// image and storage is configured
func attachImageURL(product *models.Product) {
	if product.ImageS3Key == nil {
		return
	}
	s3 := services.GetS3Service()
	if s3 == nil {
		return
	}
	url, err := s3.GetPresignedURL(*product.ImageS3Key)
	if err != nil {
		log.Printf("Failed to presign image URL for product %d: %v", product.ID, err)
		return
	}
	if url != "" {
		product.ImageURL = &url
	}
}
