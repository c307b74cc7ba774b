package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreds struct {
	token   string
	expired atomic.Int32
}

func (s *stubCreds) Token() string              { return s.token }
func (s *stubCreds) Expire(ctx context.Context) { s.expired.Add(1) }

func newTestClient(t *testing.T, register func(r *gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/"})
}

func TestCartGateway_Fetch(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.GET("/cart", func(c *gin.Context) {
			if c.GetHeader("Authorization") != "Bearer tok" {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "no token"})
				return
			}
			c.Data(http.StatusOK, "application/json", []byte(`{"CartItems":[
				{"id":91,"productId":10,"variantId":"red","quantity":2,"price":"100","discount_price":0,"Product":{"name":"Phone","image":"p.png"}},
				{"id":92,"productId":11,"quantity":1,"price":80,"discount_price":50,"name":"Case"}
			]}`))
		})
	})

	lines, err := client.Cart(&stubCreds{token: "tok"}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, domain.ID("91"), lines[0].LineID)
	assert.Equal(t, domain.LineKey{ProductID: "10", VariantID: "red"}, lines[0].Key())
	assert.Equal(t, "Phone", lines[0].Name)
	assert.Equal(t, "p.png", lines[0].Image)
	assert.Nil(t, lines[0].DiscountedUnitPrice)

	require.NotNil(t, lines[1].DiscountedUnitPrice)
	assert.True(t, lines[1].DiscountedUnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, domain.Cart{Lines: lines}.Total().Equal(decimal.NewFromInt(250)))
}

func TestCartGateway_EmptyCart(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.GET("/cart", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	})
	lines, err := client.Cart(&stubCreds{token: "tok"}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartGateway_Mutations(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/cart/add", func(c *gin.Context) {
			var in AddItem
			assert.NoError(t, c.ShouldBindJSON(&in))
			assert.NotEmpty(t, c.GetHeader(requestIDHeader))
			calls = append(calls, "add "+in.ProductID.String()+"/"+in.VariantID.String())
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})
		r.PUT("/cart/items/:id", func(c *gin.Context) {
			var in struct {
				Quantity int `json:"quantity"`
			}
			assert.NoError(t, c.ShouldBindJSON(&in))
			assert.Equal(t, 4, in.Quantity)
			calls = append(calls, "put "+c.Param("id"))
			c.Status(http.StatusNoContent)
		})
		r.DELETE("/cart/items/:id", func(c *gin.Context) {
			calls = append(calls, "delete "+c.Param("id"))
			c.Status(http.StatusOK)
		})
		r.DELETE("/cart/clear", func(c *gin.Context) {
			calls = append(calls, "clear")
			c.Status(http.StatusOK)
		})
	})

	ctx := context.Background()
	g := client.Cart(&stubCreds{token: "tok"})
	require.NoError(t, g.Add(ctx, AddItem{ProductID: "10", VariantID: "red", Quantity: 1}))
	require.NoError(t, g.Update(ctx, "91", 4))
	require.NoError(t, g.Remove(ctx, "91"))
	require.NoError(t, g.Clear(ctx))

	assert.Equal(t, []string{"add 10/red", "put 91", "delete 91", "clear"}, calls)
}

func TestClient_UnauthorizedExpiresCredentials(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/cart/add", func(c *gin.Context) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "token expired"})
		})
	})

	creds := &stubCreds{token: "old"}
	err := client.Cart(creds).Add(context.Background(), AddItem{ProductID: "1", Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, "token expired", MessageOf(err))
	assert.Equal(t, int32(1), creds.expired.Load())
}

func TestClient_APIErrorMessage(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/cart/add", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"message": "out of stock"})
		})
	})

	err := client.Cart(&stubCreds{token: "tok"}).Add(context.Background(), AddItem{ProductID: "1", Quantity: 1})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "out of stock", apiErr.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_SearchProducts(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.GET("/products/search", func(c *gin.Context) {
			assert.Equal(t, "phone", c.Query("q"))
			assert.Equal(t, "Apple", c.Query("brand"))
			assert.Equal(t, "100", c.Query("minPrice"))
			assert.Empty(t, c.Query("maxPrice"))
			c.Data(http.StatusOK, "application/json", []byte(`{"products":[{"id":1,"name":"iPhone","brand":"Apple","price":999}]}`))
		})
	})

	minPrice := decimal.NewFromInt(100)
	products, err := client.SearchProducts(context.Background(), SearchQuery{Q: "phone", Brand: "Apple", MinPrice: &minPrice})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, domain.ID("1"), products[0].ID)
	assert.True(t, products[0].Price.Equal(decimal.NewFromInt(999)))
}

func TestDecodeProducts(t *testing.T) {
	for name, body := range map[string]string{
		"array":   `[{"id":1,"name":"a","price":1}]`,
		"data":    `{"data":[{"id":1,"name":"a","price":1}]}`,
		"wrapped": `{"products":[{"id":"1","name":"a","price":"1"}]}`,
	} {
		products, err := decodeProducts([]byte(body))
		require.NoError(t, err, name)
		require.Len(t, products, 1, name)
		assert.Equal(t, domain.ID("1"), products[0].ID, name)
	}
	products, err := decodeProducts([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_ProductNotFound(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.GET("/products/:id", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"message": "missing"})
		})
	})
	_, err := client.Product(context.Background(), "404")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClient_Login(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/auth/login", func(c *gin.Context) {
			var in struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			assert.NoError(t, c.ShouldBindJSON(&in))
			if in.Password != "secret" {
				c.JSON(http.StatusBadRequest, gin.H{"message": "wrong password"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": "jwt", "user": gin.H{"id": 7, "email": in.Email, "fullName": "Ann"}})
		})
	})

	res, err := client.Login(context.Background(), "ann@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, domain.ID("7"), res.User.ID)
	assert.Equal(t, "Ann", res.User.Name)

	_, err = client.Login(context.Background(), "ann@example.com", "nope")
	assert.Equal(t, "wrong password", MessageOf(err))
}

func TestClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/orders", func(c *gin.Context) {
			var in OrderRequest
			assert.NoError(t, c.ShouldBindJSON(&in))
			assert.Len(t, in.Items, 1)
			assert.True(t, in.TotalAmount.Equal(decimal.NewFromInt(200)))
			c.JSON(http.StatusCreated, gin.H{"order": gin.H{"id": 55, "status": "pending"}})
		})
	})

	order, err := client.CreateOrder(context.Background(), &stubCreds{token: "tok"}, OrderRequest{
		ShippingAddress: "1 Main St",
		PaymentMethod:   "cod",
		Items:           []OrderItem{{ProductID: "10", Quantity: 2, Price: decimal.NewFromInt(100)}},
		TotalAmount:     decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("55"), order.ID)
	assert.Equal(t, "pending", order.Status)
}

func TestClient_OrderHistory(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.GET("/orders", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", []byte(`[
				{"id":1,"status":"pending","paymentMethod":"cod","totalAmount":"200","createdAt":"2026-03-01T10:00:00Z",
				 "OrderItems":[{"productId":10,"quantity":2,"price":100,"product":{"name":"Phone","image":"p.png"},
				 "productVariant":{"id":3,"color":"red","storage":"128gb"}}]},
				{"id":2,"status":"delivered"}
			]`))
		})
		r.GET("/orders/:id", func(c *gin.Context) {
			if c.Param("id") != "1" {
				c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"order": gin.H{"id": 1, "status": "pending", "shippingAddress": "1 Main St"}})
		})
		r.PUT("/orders/:id/cancel", func(c *gin.Context) {
			if c.Param("id") != "1" {
				c.JSON(http.StatusBadRequest, gin.H{"message": "order cannot be cancelled"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
		})
	})
	creds := &stubCreds{token: "tok"}
	ctx := context.Background()

	orders, err := client.ListOrders(ctx, creds)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, domain.ID("1"), orders[0].ID)
	require.NotNil(t, orders[0].CreatedAt)
	require.Len(t, orders[0].Items, 1)
	item := orders[0].Items[0]
	assert.Equal(t, "Phone", item.Name)
	assert.Equal(t, domain.ID("3"), item.VariantID)
	assert.Equal(t, "128gb", item.Storage)
	assert.True(t, orders[0].TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, OrderDelivered, orders[1].Status)

	order, err := client.GetOrder(ctx, creds, "1")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", order.ShippingAddress)
	_, err = client.GetOrder(ctx, creds, "9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, client.CancelOrder(ctx, creds, "1"))
	err = client.CancelOrder(ctx, creds, "2")
	assert.Equal(t, "order cannot be cancelled", MessageOf(err))
}

func TestDecodeOrders(t *testing.T) {
	out, err := decodeOrders([]byte(`{"orders":[{"id":"a"}]}`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.ID("a"), out[0].ID)

	out, err = decodeOrders([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_Account(t *testing.T) {
	client := newTestClient(t, func(r *gin.Engine) {
		r.POST("/auth/register", func(c *gin.Context) {
			var in RegisterRequest
			assert.NoError(t, c.ShouldBindJSON(&in))
			if in.Email == "taken@example.com" {
				c.JSON(http.StatusBadRequest, gin.H{"message": "email already registered"})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"user": gin.H{"id": 8, "email": in.Email, "fullName": in.FullName}})
		})
		r.PUT("/auth/profile", func(c *gin.Context) {
			var in ProfileUpdate
			assert.NoError(t, c.ShouldBindJSON(&in))
			if in.Phone == "bad" {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "invalid phone"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{"id": 8, "fullName": in.FullName, "phone": in.Phone}})
		})
		r.PUT("/auth/change-password", func(c *gin.Context) {
			var in struct {
				OldPassword string `json:"oldPassword"`
				NewPassword string `json:"newPassword"`
			}
			assert.NoError(t, c.ShouldBindJSON(&in))
			if in.OldPassword != "old" {
				c.JSON(http.StatusBadRequest, gin.H{"message": "wrong password"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
	})
	ctx := context.Background()
	creds := &stubCreds{token: "tok"}

	user, err := client.Register(ctx, RegisterRequest{FullName: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("8"), user.ID)
	assert.Equal(t, "Ann", user.Name)
	_, err = client.Register(ctx, RegisterRequest{Email: "taken@example.com"})
	assert.Equal(t, "email already registered", MessageOf(err))

	user, err = client.UpdateProfile(ctx, creds, ProfileUpdate{FullName: "Ann B", Phone: "0123456789"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", user.Name)
	_, err = client.UpdateProfile(ctx, creds, ProfileUpdate{Phone: "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Equal(t, "invalid phone", MessageOf(err))

	require.NoError(t, client.ChangePassword(ctx, creds, "old", "new-secret"))
	assert.Equal(t, "wrong password", MessageOf(client.ChangePassword(ctx, creds, "nope", "x")))
}
