package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/humoyun-dev/akmaljanvc-watch/config"
	"github.com/humoyun-dev/akmaljanvc-watch/models"
)

func setupControllerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	return db
}

// setupOrderRouter registers the order routes without auth middleware so
// the handlers can be exercised directly
func setupOrderRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	v1 := router.Group("/api/v1")
	v1.POST("/orders", CreateOrder)
	v1.GET("/orders", ListOrders)
	v1.GET("/orders/:id", GetOrder)
	v1.PUT("/orders/:id", UpdateOrder)
	v1.DELETE("/orders/:id", DeleteOrder)
	v1.POST("/orders/:id/items", AddOrderItem)

	return router
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()

	category := models.Category{Name: "Men"}
	if err := db.FirstOrCreate(&category, models.Category{Name: "Men"}).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	brand := models.Brand{Name: "Casio"}
	if err := db.FirstOrCreate(&brand, models.Brand{Name: "Casio"}).Error; err != nil {
		t.Fatalf("Failed to create brand: %v", err)
	}

	product := models.Product{
		Name:            name,
		Description:     "A test watch",
		Price:           price,
		CategoryID:      category.ID,
		BrandID:         brand.ID,
		WatchType:       models.WatchTypeAnalog,
		Material:        models.MaterialLeather,
		WaterResistance: 50,
		IsInStock:       true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return &product
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()

	p1 := seedProduct(t, db, "G-Shock", 50)
	p2 := seedProduct(t, db, "Edifice", 30)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successfully create order with items",
			requestBody: map[string]interface{}{
				"first_name":       "Akmal",
				"last_name":        "Jon",
				"phone_number":     "998901234567",
				"shipping_address": "Tashkent, Chilonzor 5",
				"order_items": []map[string]interface{}{
					{"product_id": p1.ID, "quantity": 2},
					{"product_id": p2.ID, "quantity": 1},
				},
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "pending", data["status"])
				assert.Equal(t, "cash_on_delivery", data["payment_method"])
				assert.Equal(t, float64(130), data["total_price"])

				items := data["order_items"].([]interface{})
				assert.Len(t, items, 2)
				first := items[0].(map[string]interface{})
				assert.Equal(t, float64(50), first["price"])
				assert.Equal(t, float64(100), first["total_price"])
				assert.Equal(t, "G-Shock", first["product_name"])
			},
		},
		{
			name: "Create order without items",
			requestBody: map[string]interface{}{
				"first_name":       "Akmal",
				"last_name":        "Jon",
				"phone_number":     "998901234567",
				"shipping_address": "Tashkent, Chilonzor 5",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, float64(0), data["total_price"], "Empty order has total 0, not null")
			},
		},
		{
			name: "Fail with missing shipping address",
			requestBody: map[string]interface{}{
				"first_name":   "Akmal",
				"last_name":    "Jon",
				"phone_number": "998901234567",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with zero quantity",
			requestBody: map[string]interface{}{
				"first_name":       "Akmal",
				"last_name":        "Jon",
				"phone_number":     "998901234567",
				"shipping_address": "Tashkent, Chilonzor 5",
				"order_items": []map[string]interface{}{
					{"product_id": p1.ID, "quantity": 0},
				},
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with unknown product",
			requestBody: map[string]interface{}{
				"first_name":       "Akmal",
				"last_name":        "Jon",
				"phone_number":     "998901234567",
				"shipping_address": "Tashkent, Chilonzor 5",
				"order_items": []map[string]interface{}{
					{"product_id": 9999, "quantity": 1},
				},
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "NOT_FOUND",
		},
		{
			name: "Fail with invalid payment method",
			requestBody: map[string]interface{}{
				"first_name":       "Akmal",
				"last_name":        "Jon",
				"phone_number":     "998901234567",
				"payment_method":   "barter",
				"shipping_address": "Tashkent, Chilonzor 5",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/orders", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()
	p1 := seedProduct(t, db, "G-Shock", 50)

	w := doJSON(router, "POST", "/api/v1/orders", map[string]interface{}{
		"first_name":       "Akmal",
		"last_name":        "Jon",
		"phone_number":     "998901234567",
		"shipping_address": "Tashkent, Chilonzor 5",
		"order_items": []map[string]interface{}{
			{"product_id": p1.ID, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	orderID := created["data"].(map[string]interface{})["id"].(float64)

	w = doJSON(router, "GET", fmt.Sprintf("/api/v1/orders/%.0f", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(100), data["total_price"])
	assert.Len(t, data["order_items"].([]interface{}), 1)

	// Unknown order
	w = doJSON(router, "GET", "/api/v1/orders/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad id
	w = doJSON(router, "GET", "/api/v1/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddOrderItemEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()
	p1 := seedProduct(t, db, "G-Shock", 50)

	w := doJSON(router, "POST", "/api/v1/orders", map[string]interface{}{
		"first_name":       "Akmal",
		"last_name":        "Jon",
		"phone_number":     "998901234567",
		"shipping_address": "Tashkent, Chilonzor 5",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	orderID := created["data"].(map[string]interface{})["id"].(float64)
	path := fmt.Sprintf("/api/v1/orders/%.0f/items", orderID)

	// Quantity defaults to 1 when omitted
	w = doJSON(router, "POST", path, map[string]interface{}{"product_id": p1.ID})
	assert.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	item := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, float64(50), item["price"])
	assert.Equal(t, float64(50), item["total_price"])

	var order models.Order
	assert.NoError(t, db.First(&order, uint(orderID)).Error)
	assert.Equal(t, float64(50), order.TotalPrice)

	// Explicit zero quantity is rejected
	w = doJSON(router, "POST", path, map[string]interface{}{"product_id": p1.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown product
	w = doJSON(router, "POST", path, map[string]interface{}{"product_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unknown order
	w = doJSON(router, "POST", "/api/v1/orders/9999/items", map[string]interface{}{"product_id": p1.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()
	p1 := seedProduct(t, db, "G-Shock", 50)

	w := doJSON(router, "POST", "/api/v1/orders", map[string]interface{}{
		"first_name":       "Akmal",
		"last_name":        "Jon",
		"phone_number":     "998901234567",
		"shipping_address": "Tashkent, Chilonzor 5",
		"order_items": []map[string]interface{}{
			{"product_id": p1.ID, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	data := created["data"].(map[string]interface{})
	orderID := data["id"].(float64)
	itemID := data["order_items"].([]interface{})[0].(map[string]interface{})["id"].(float64)

	w = doJSON(router, "PUT", fmt.Sprintf("/api/v1/orders/%.0f", orderID), map[string]interface{}{
		"status": "processing",
		"order_items": []map[string]interface{}{
			{"id": itemID, "product_id": p1.ID, "quantity": 3},
		},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	updated := response["data"].(map[string]interface{})
	assert.Equal(t, "processing", updated["status"])
	assert.Equal(t, float64(150), updated["total_price"])

	// Invalid status value
	w = doJSON(router, "PUT", fmt.Sprintf("/api/v1/orders/%.0f", orderID), map[string]interface{}{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()
	p1 := seedProduct(t, db, "G-Shock", 50)

	w := doJSON(router, "POST", "/api/v1/orders", map[string]interface{}{
		"first_name":       "Akmal",
		"last_name":        "Jon",
		"phone_number":     "998901234567",
		"shipping_address": "Tashkent, Chilonzor 5",
		"order_items": []map[string]interface{}{
			{"product_id": p1.ID, "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &created)
	orderID := created["data"].(map[string]interface{})["id"].(float64)

	w = doJSON(router, "DELETE", fmt.Sprintf("/api/v1/orders/%.0f", orderID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var orderCount, itemCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), orderCount)
	assert.Equal(t, int64(0), itemCount)

	w = doJSON(router, "DELETE", "/api/v1/orders/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	router := setupOrderRouter()
	p1 := seedProduct(t, db, "G-Shock", 50)

	for i := 0; i < 2; i++ {
		w := doJSON(router, "POST", "/api/v1/orders", map[string]interface{}{
			"first_name":       "Akmal",
			"last_name":        "Jon",
			"phone_number":     "998901234567",
			"shipping_address": "Tashkent, Chilonzor 5",
			"order_items": []map[string]interface{}{
				{"product_id": p1.ID, "quantity": 1},
			},
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(router, "GET", "/api/v1/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	orders := response["data"].([]interface{})
	assert.Len(t, orders, 2)

	// Newest first
	first := orders[0].(map[string]interface{})
	second := orders[1].(map[string]interface{})
	assert.Greater(t, first["id"].(float64), second["id"].(float64))
}
