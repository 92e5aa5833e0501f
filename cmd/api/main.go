package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/safar/go-commerce-store/internal/config"
	"github.com/safar/go-commerce-store/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	mux := http.NewServeMux()

	mux.HandleFunc("/users", handleUsers(db, cfg))
	mux.HandleFunc("/users/", handleUserByID(db))
	mux.HandleFunc("/login", handleLogin(db))
	mux.HandleFunc("/products", handleProducts(db))
	mux.HandleFunc("/products/", handleProductByID(db))
	mux.HandleFunc("/categories", handleCategories(db))
	mux.HandleFunc("/categories/", handleCategoryByID(db))
	mux.HandleFunc("/suppliers", handleSuppliers(db))
	mux.HandleFunc("/suppliers/", handleSupplierByID(db))
	mux.HandleFunc("/reviews/", handleReviewByID(db))
	mux.HandleFunc("/coupons", handleCoupons(db))
	mux.HandleFunc("/coupons/", handleCouponByCode(db))
	mux.HandleFunc("/carts", handleCarts(db))
	mux.HandleFunc("/carts/", handleCartByID(db))
	mux.HandleFunc("/wishlists", handleWishlists(db))
	mux.HandleFunc("/wishlists/", handleWishlistByID(db))
	mux.HandleFunc("/orders", handleOrders(db, cfg))
	mux.HandleFunc("/orders/", handleOrderByID(db))
	mux.HandleFunc("/payments/", handlePaymentByID(db))
	mux.HandleFunc("/reports/user-order-totals", handleUserOrderTotals(db))
	mux.HandleFunc("/reports/user-order-totals/", handleUserOrderTotalsByID(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store sentinels onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrAddressNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrSupplierNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrInventoryNotFound),
		errors.Is(err, database.ErrCouponNotFound),
		errors.Is(err, database.ErrCartNotFound),
		errors.Is(err, database.ErrWishlistNotFound),
		errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrPaymentNotFound),
		errors.Is(err, database.ErrReviewNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrDuplicateSKU),
		errors.Is(err, database.ErrDuplicateReview),
		errors.Is(err, database.ErrDuplicateWishlist),
		errors.Is(err, database.ErrProductReferenced),
		errors.Is(err, database.ErrInsufficientStock),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrCategoryCycle),
		errors.Is(err, database.ErrOptimisticLockFailed),
		errors.Is(err, database.ErrCouponExpired),
		errors.Is(err, database.ErrCouponExhausted),
		errors.Is(err, database.ErrCouponInactive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrEmptyOrder),
		errors.Is(err, database.ErrMixedOrderSource):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func parsePage(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// splitPath returns the id and trailing sub-resource from a path like
// /products/42/reviews under the given prefix.
func splitPath(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	idStr, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	return id, sub, err
}
