package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/artcorner/art-corner-server/service/events"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Handler struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewHandler(db *gorm.DB, bus *events.Bus) *Handler {
	return &Handler{db: db, bus: bus}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	auth := utils.AuthMiddleware(h.db)

	router.HandleFunc("/cart", auth(h.GetCart)).Methods("GET")
	router.HandleFunc("/cart", auth(h.AddToCart)).Methods("POST")
	router.HandleFunc("/cart/{id}", auth(h.UpdateCartItem)).Methods("PUT")
	router.HandleFunc("/cart/{id}", auth(h.RemoveFromCart)).Methods("DELETE")

	router.HandleFunc("/orders/checkout", auth(h.Checkout)).Methods("POST")
	router.HandleFunc("/orders/verify/{reference}", auth(h.VerifyPayment)).Methods("GET")
	router.HandleFunc("/orders", auth(h.GetOrders)).Methods("GET")
	router.HandleFunc("/orders/{id}", auth(h.GetOrder)).Methods("GET")
}

type cartLine struct {
	models.CartItem
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Available int     `json:"available"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var items []models.CartItem
	if err := h.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		http.Error(w, "Error retrieving cart", http.StatusInternalServerError)
		return
	}

	lines := make([]cartLine, 0, len(items))
	var total float64
	for _, item := range items {
		resolved, err := resolveItem(h.db, item.ItemType, item.ItemID)
		if err != nil {
			// Item deleted since it was added; show the line without
			// details rather than failing the whole cart.
			lines = append(lines, cartLine{CartItem: item})
			continue
		}
		lines = append(lines, cartLine{
			CartItem:  item,
			Title:     resolved.Title,
			Price:     resolved.Price,
			Available: resolved.Available,
		})
		total += resolved.Price * float64(item.Quantity)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": lines,
		"total": total,
	})
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ItemType models.ItemType `json:"item_type"`
		ItemID   uint            `json:"item_id"`
		Quantity int             `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	body.ItemType = models.NormalizeItemType(body.ItemType)
	if !models.ValidItemType(body.ItemType) {
		http.Error(w, "Invalid item type", http.StatusBadRequest)
		return
	}
	if body.Quantity <= 0 {
		body.Quantity = 1
	}

	resolved, err := resolveItem(h.db, body.ItemType, body.ItemID)
	if err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if !resolved.Purchasable {
		http.Error(w, "Item is not for sale", http.StatusBadRequest)
		return
	}

	var item models.CartItem
	err = h.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, body.ItemType, body.ItemID).
		First(&item).Error
	switch {
	case err == nil:
		item.Quantity += body.Quantity
		if err := h.db.Save(&item).Error; err != nil {
			http.Error(w, "Error updating cart", http.StatusInternalServerError)
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:   userID,
			ItemType: body.ItemType,
			ItemID:   body.ItemID,
			Quantity: body.Quantity,
		}
		if err := h.db.Create(&item).Error; err != nil {
			http.Error(w, "Error adding to cart", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Error adding to cart", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid cart item ID", http.StatusBadRequest)
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var item models.CartItem
	if err := h.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		http.Error(w, "Cart item not found", http.StatusNotFound)
		return
	}

	if body.Quantity <= 0 {
		if err := h.db.Delete(&item).Error; err != nil {
			http.Error(w, "Error removing cart item", http.StatusInternalServerError)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
		return
	}

	item.Quantity = body.Quantity
	if err := h.db.Save(&item).Error; err != nil {
		http.Error(w, "Error updating cart", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, item)
}

func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid cart item ID", http.StatusBadRequest)
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if result.Error != nil {
		http.Error(w, "Error removing cart item", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Cart item not found", http.StatusNotFound)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

type checkoutLine struct {
	cart     models.CartItem
	resolved *resolvedItem
}

// Checkout validates every cart line before touching anything, then
// runs the whole order in one transaction. Any shortfall fails the
// entire checkout with nothing mutated.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body struct {
		ShippingName    string `json:"shipping_name"`
		ShippingAddress string `json:"shipping_address"`
		ShippingCity    string `json:"shipping_city"`
		ShippingCountry string `json:"shipping_country"`
		ShippingPhone   string `json:"shipping_phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var buyer models.User
	if err := h.db.First(&buyer, userID).Error; err != nil {
		http.Error(w, "Error loading user", http.StatusInternalServerError)
		return
	}

	var cartItems []models.CartItem
	if err := h.db.Where("user_id = ?", userID).Find(&cartItems).Error; err != nil {
		http.Error(w, "Error retrieving cart", http.StatusInternalServerError)
		return
	}
	if len(cartItems) == 0 {
		http.Error(w, "Cart is empty", http.StatusBadRequest)
		return
	}

	var lines []checkoutLine
	for _, item := range cartItems {
		resolved, err := resolveItem(h.db, item.ItemType, item.ItemID)
		if err != nil {
			http.Error(w, fmt.Sprintf("Item %d is no longer available", item.ItemID), http.StatusConflict)
			return
		}
		// Sellers cannot buy their own products; those lines drop out
		// silently. Event organizers may still take a ticket.
		if resolved.Type == models.ItemTypeProduct && resolved.OwnerID == userID {
			continue
		}
		if !resolved.Purchasable {
			http.Error(w, fmt.Sprintf("%s is not for sale", resolved.Title), http.StatusConflict)
			return
		}
		if resolved.Available < item.Quantity {
			http.Error(w, fmt.Sprintf("Not enough stock for %s", resolved.Title), http.StatusConflict)
			return
		}
		lines = append(lines, checkoutLine{cart: item, resolved: resolved})
	}
	if len(lines) == 0 {
		http.Error(w, "No purchasable items in cart", http.StatusBadRequest)
		return
	}

	order := models.Order{
		UserID:          userID,
		Reference:       uuid.NewString(),
		Status:          models.OrderPending,
		ShippingName:    body.ShippingName,
		ShippingAddress: body.ShippingAddress,
		ShippingCity:    body.ShippingCity,
		ShippingCountry: body.ShippingCountry,
		ShippingPhone:   body.ShippingPhone,
	}

	tx := h.db.Begin()

	for _, line := range lines {
		if err := decrementStock(tx, line.resolved, line.cart.Quantity); err != nil {
			tx.Rollback()
			http.Error(w, fmt.Sprintf("Not enough stock for %s", line.resolved.Title), http.StatusConflict)
			return
		}
		order.Total += line.resolved.Price * float64(line.cart.Quantity)
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error creating order", http.StatusInternalServerError)
		return
	}

	for _, line := range lines {
		orderItem := models.OrderItem{
			OrderID:  order.ID,
			ItemType: line.resolved.Type,
			ItemID:   line.resolved.ID,
			Title:    line.resolved.Title,
			Price:    line.resolved.Price,
			Quantity: line.cart.Quantity,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			http.Error(w, "Error creating order", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		http.Error(w, "Error clearing cart", http.StatusInternalServerError)
		return
	}

	if err := h.bus.Publish(tx, events.OrderPlaced{
		OrderID:   order.ID,
		BuyerID:   userID,
		Reference: order.Reference,
		Total:     order.Total,
	}); err != nil {
		tx.Rollback()
		http.Error(w, "Error creating order", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit().Error; err != nil {
		http.Error(w, "Error creating order", http.StatusInternalServerError)
		return
	}

	h.db.Preload("Items").First(&order, order.ID)

	var authorizationURL string
	if order.Total > 0 {
		authorizationURL, err = initializePayment(buyer.Email, order.Reference, order.Total)
		if err != nil {
			log.Printf("initializing payment for order %s: %v", order.Reference, err)
		}
	}

	go func(email, reference string, total float64) {
		body := fmt.Sprintf(
			"Thank you for your order!\n\nReference: %s\nTotal: GHS %.2f\n\nWe will notify you when it ships.",
			reference, total,
		)
		if err := utils.SendMail(email, "Order confirmation", body); err != nil {
			log.Printf("sending order confirmation to %s: %v", email, err)
		}
	}(buyer.Email, order.Reference, order.Total)

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"order":             order,
		"authorization_url": authorizationURL,
	})
}

// VerifyPayment confirms a Paystack charge and marks the order paid.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reference := mux.Vars(r)["reference"]

	var order models.Order
	if err := h.db.Where("reference = ? AND user_id = ?", reference, userID).First(&order).Error; err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if order.Paid {
		utils.RespondWithJSON(w, http.StatusOK, order)
		return
	}

	ok, err := verifyPayment(reference)
	if err != nil {
		http.Error(w, "Error verifying payment", http.StatusBadGateway)
		return
	}
	if !ok {
		http.Error(w, "Payment not completed", http.StatusPaymentRequired)
		return
	}

	order.Paid = true
	order.PaymentReference = reference
	if err := h.db.Save(&order).Error; err != nil {
		http.Error(w, "Error updating order", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, perPage := utils.ParsePaginationParams(r)

	var total int64
	if err := h.db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		http.Error(w, "Error retrieving orders", http.StatusInternalServerError)
		return
	}

	var orders []models.Order
	if err := h.db.Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&orders).Error; err != nil {
		http.Error(w, "Error retrieving orders", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders":     orders,
		"pagination": utils.NewPaginationMeta(page, perPage, total),
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}

	var order models.Order
	if err := h.db.Preload("Items").First(&order, orderID).Error; err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	if order.UserID != userID && utils.GetUserRoleFromContext(r.Context()) != models.RoleAdmin {
		http.Error(w, "You do not own this order", http.StatusForbidden)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, order)
}
