package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humoyun-dev/akmaljanvc-watch/config"
	"github.com/humoyun-dev/akmaljanvc-watch/models"
)

// BrandRequest represents the request body for creating or updating a brand
type BrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListBrands handles GET /api/v1/brands
func ListBrands(c *gin.Context) {
	db := config.GetDB()

	var brands []models.Brand
	if err := db.Find(&brands).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load brands",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    brands,
	})
}

// GetBrand handles GET /api/v1/brands/:id
func GetBrand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var brand models.Brand
	if err := db.First(&brand, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Brand not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    brand,
	})
}

// CreateBrand handles POST /api/v1/brands (admin only)
func CreateBrand(c *gin.Context) {
	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	db := config.GetDB()
	brand := models.Brand{Name: req.Name}
	if err := db.Create(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create brand",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    brand,
	})
}

// UpdateBrand handles PUT /api/v1/brands/:id (admin only)
func UpdateBrand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	db := config.GetDB()
	var brand models.Brand
	if err := db.First(&brand, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Brand not found",
			},
		})
		return
	}

	brand.Name = req.Name
	if err := db.Save(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update brand",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    brand,
	})
}

// DeleteBrand handles DELETE /api/v1/brands/:id (admin only)
func DeleteBrand(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	result := db.Delete(&models.Brand{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete brand",
			},
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Brand not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Brand deleted",
	})
}
