package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/safar/go-commerce-store/internal/config"
	"github.com/safar/go-commerce-store/internal/store"
	"github.com/shopspring/decimal"
)

func handleCoupons(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Code          string     `json:"code"`
			DiscountType  string     `json:"discount_type"`
			DiscountValue string     `json:"discount_value"`
			UsageLimit    *int       `json:"usage_limit"`
			ExpiresAt     *time.Time `json:"expires_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		value, err := decimal.NewFromString(req.DiscountValue)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid discount value")
			return
		}

		coupon, err := store.CreateCoupon(r.Context(), db, store.CreateCouponRequest{
			Code:          req.Code,
			DiscountType:  req.DiscountType,
			DiscountValue: value,
			UsageLimit:    req.UsageLimit,
			ExpiresAt:     req.ExpiresAt,
		})
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, coupon)
	}
}

func handleCouponByCode(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/coupons/")
		if code == "" || strings.Contains(code, "/") {
			respondError(w, http.StatusBadRequest, "Invalid coupon code")
			return
		}

		coupon, err := store.GetCoupon(r.Context(), db, code)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, coupon)
	}
}

func handleCarts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			UserID       *int64 `json:"user_id"`
			SessionToken string `json:"session_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if (req.UserID == nil) == (req.SessionToken == "") {
			respondError(w, http.StatusBadRequest, "Provide exactly one of user_id or session_token")
			return
		}

		ctx := r.Context()
		if req.UserID != nil {
			cart, err := store.GetOrCreateUserCart(ctx, db, *req.UserID)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, cart)
			return
		}

		cart, err := store.GetOrCreateSessionCart(ctx, db, req.SessionToken)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, cart)
	}
}

func handleCartByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/carts/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid cart ID")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				cart, err := store.GetCart(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, cart)
			case http.MethodDelete:
				if err := store.ClearCart(ctx, db, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "items":
			var req struct {
				ProductID int64 `json:"product_id"`
				Quantity  int   `json:"quantity"`
			}
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
			}

			switch r.Method {
			case http.MethodPost:
				item, err := store.AddCartItem(ctx, db, id, req.ProductID, req.Quantity)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, item)
			case http.MethodPut:
				if err := store.UpdateCartItemQuantity(ctx, db, id, req.ProductID, req.Quantity); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			case http.MethodDelete:
				if err := store.RemoveCartItem(ctx, db, id, req.ProductID); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handleWishlists(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			UserID int64  `json:"user_id"`
			Name   string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		wishlist, err := store.CreateWishlist(r.Context(), db, req.UserID, req.Name)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, wishlist)
	}
}

func handleWishlistByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/wishlists/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid wishlist ID")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				wishlist, err := store.GetWishlist(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, wishlist)
			case http.MethodDelete:
				if err := store.DeleteWishlist(ctx, db, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "items":
			var req struct {
				ProductID int64 `json:"product_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			switch r.Method {
			case http.MethodPost:
				if err := store.AddWishlistItem(ctx, db, id, req.ProductID); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			case http.MethodDelete:
				if err := store.RemoveWishlistItem(ctx, db, id, req.ProductID); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handleOrders(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			UserID            *int64  `json:"user_id"`
			BillingAddressID  int64   `json:"billing_address_id"`
			ShippingAddressID int64   `json:"shipping_address_id"`
			CouponCode        *string `json:"coupon_code"`
			CartID            *int64  `json:"cart_id"`
			Items             []struct {
				ProductID int64 `json:"product_id"`
				Quantity  int   `json:"quantity"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var items []store.CheckoutItem
		for _, item := range req.Items {
			items = append(items, store.CheckoutItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := store.Checkout(r.Context(), db, store.CheckoutRequest{
			UserID:            req.UserID,
			BillingAddressID:  req.BillingAddressID,
			ShippingAddressID: req.ShippingAddressID,
			CouponCode:        req.CouponCode,
			Items:             items,
			CartID:            req.CartID,
			MaxRetries:        cfg.Checkout.MaxRetries,
			NumberRetries:     cfg.Checkout.OrderNumberMaxRetries,
		})
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, order)
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/orders/")
		if err != nil {
			// Non-numeric single segment is an order number lookup.
			rest := strings.TrimPrefix(r.URL.Path, "/orders/")
			if r.Method == http.MethodGet && rest != "" && !strings.Contains(rest, "/") {
				order, err := store.GetOrderByNumber(ctx, db, rest)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, order)
				return
			}
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		switch sub {
		case "":
			order, err := store.GetOrder(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, order)

		case "status":
			if r.Method != http.MethodPut {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			var req struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if err := store.UpdateOrderStatus(ctx, db, id, req.Status); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "payments":
			switch r.Method {
			case http.MethodPost:
				var req struct {
					PaymentMethod string `json:"payment_method"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				payment, err := store.CreatePayment(ctx, db, id, req.PaymentMethod)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, payment)
			case http.MethodGet:
				payments, err := store.ListPaymentsByOrder(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, payments)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handlePaymentByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/payments/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid payment ID")
			return
		}

		switch sub {
		case "":
			payment, err := store.GetPayment(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, payment)

		case "complete", "fail":
			if r.Method != http.MethodPost {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			var req struct {
				ProviderTxnID string `json:"provider_txn_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if sub == "complete" {
				err = store.CompletePayment(ctx, db, id, req.ProviderTxnID)
			} else {
				err = store.FailPayment(ctx, db, id, req.ProviderTxnID)
			}
			if err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "refund":
			if r.Method != http.MethodPost {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if err := store.RefundPayment(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handleUserOrderTotals(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := parsePage(r)
		result, err := store.ListUserOrderTotals(r.Context(), db, page, pageSize)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleUserOrderTotalsByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _, err := splitPath(r.URL.Path, "/reports/user-order-totals/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		totals, err := store.GetUserOrderTotals(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, totals)
	}
}
