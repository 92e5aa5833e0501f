package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/safar/go-commerce-store/internal/config"
	"github.com/safar/go-commerce-store/internal/store"
	"github.com/shopspring/decimal"
)

func handleUsers(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
				Name     string `json:"name"`
				Role     string `json:"role"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			user, err := store.CreateUser(ctx, db, cfg.Auth.BcryptCost, store.CreateUserRequest{
				Email:    req.Email,
				Password: req.Password,
				Name:     req.Name,
				Role:     req.Role,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}

			respondJSON(w, http.StatusCreated, user)

		case http.MethodGet:
			if email := r.URL.Query().Get("email"); email != "" {
				user, err := store.GetUserByEmail(ctx, db, email)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, user)
				return
			}
			page, pageSize := parsePage(r)
			result, err := store.ListUsers(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleUserByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/users/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				user, err := store.GetUser(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, user)
			case http.MethodDelete:
				if err := store.DeleteUser(ctx, db, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "deactivate":
			if r.Method != http.MethodPost {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if err := store.DeactivateUser(ctx, db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "addresses":
			switch r.Method {
			case http.MethodPost:
				var req struct {
					Recipient  string `json:"recipient"`
					Line1      string `json:"line1"`
					Line2      string `json:"line2"`
					City       string `json:"city"`
					Region     string `json:"region"`
					PostalCode string `json:"postal_code"`
					Country    string `json:"country"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				address, err := store.CreateAddress(ctx, db, store.CreateAddressRequest{
					UserID:     &id,
					Recipient:  req.Recipient,
					Line1:      req.Line1,
					Line2:      req.Line2,
					City:       req.City,
					Region:     req.Region,
					PostalCode: req.PostalCode,
					Country:    req.Country,
				})
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, address)
			case http.MethodGet:
				addresses, err := store.ListAddressesByUser(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, addresses)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "orders":
			limit := 20
			result, err := store.ListOrdersCursor(ctx, db, id, r.URL.Query().Get("cursor"), limit)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, result)

		case "wishlists":
			wishlists, err := store.ListWishlistsByUser(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, wishlists)

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handleLogin(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		user, err := store.Authenticate(r.Context(), db, req.Email, req.Password)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				SKU         string `json:"sku"`
				Name        string `json:"name"`
				Description string `json:"description"`
				Price       string `json:"price"`
				Cost        string `json:"cost"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}

			price, err := decimal.NewFromString(req.Price)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid price")
				return
			}
			cost := decimal.Zero
			if req.Cost != "" {
				cost, err = decimal.NewFromString(req.Cost)
				if err != nil {
					respondError(w, http.StatusBadRequest, "Invalid cost")
					return
				}
			}

			product, err := store.CreateProduct(ctx, db, store.CreateProductRequest{
				SKU:         req.SKU,
				Name:        req.Name,
				Description: req.Description,
				Price:       price,
				Cost:        cost,
			})
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, product)

		case http.MethodGet:
			if sku := r.URL.Query().Get("sku"); sku != "" {
				product, err := store.GetProductBySKU(ctx, db, sku)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, product)
				return
			}
			page, pageSize := parsePage(r)
			result, err := store.ListProducts(ctx, db, page, pageSize)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, result)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/products/")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				product, err := store.GetProduct(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, product)
			case http.MethodDelete:
				if err := store.DeleteProduct(ctx, db, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "images":
			switch r.Method {
			case http.MethodPost:
				var req struct {
					URL      string `json:"url"`
					AltText  string `json:"alt_text"`
					Position int    `json:"position"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				image, err := store.AddProductImage(ctx, db, id, req.URL, req.AltText, req.Position)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, image)
			case http.MethodGet:
				images, err := store.ListProductImages(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, images)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "attributes":
			switch r.Method {
			case http.MethodPost:
				var req struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				attribute, err := store.SetProductAttribute(ctx, db, id, req.Name, req.Value)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, attribute)
			case http.MethodGet:
				attributes, err := store.ListProductAttributes(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, attributes)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "reviews":
			switch r.Method {
			case http.MethodPost:
				var req struct {
					UserID  int64  `json:"user_id"`
					Rating  int    `json:"rating"`
					Comment string `json:"comment"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				review, err := store.CreateReview(ctx, db, id, req.UserID, req.Rating, req.Comment)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusCreated, review)
			case http.MethodGet:
				page, pageSize := parsePage(r)
				result, err := store.ListReviewsByProduct(ctx, db, id, page, pageSize)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, result)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "inventory":
			records, err := store.GetInventory(ctx, db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, records)

		case "restock":
			if r.Method != http.MethodPost {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			var req struct {
				SupplierID *int64 `json:"supplier_id"`
				Quantity   int    `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if err := store.Restock(ctx, db, id, req.SupplierID, req.Quantity); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			respondError(w, http.StatusNotFound, "Not found")
		}
	}
}

func handleCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Slug     string `json:"slug"`
				Name     string `json:"name"`
				ParentID *int64 `json:"parent_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			category, err := store.CreateCategory(ctx, db, req.Slug, req.Name, req.ParentID)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, category)

		case http.MethodGet:
			categories, err := store.ListChildCategories(ctx, db, nil)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, categories)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCategoryByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, sub, err := splitPath(r.URL.Path, "/categories/")
		if err != nil {
			// Non-numeric single segment is treated as a slug lookup.
			rest := strings.TrimPrefix(r.URL.Path, "/categories/")
			if r.Method == http.MethodGet && rest != "" && !strings.Contains(rest, "/") {
				category, err := store.GetCategoryBySlug(ctx, db, rest)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, category)
				return
			}
			respondError(w, http.StatusBadRequest, "Invalid category ID")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				category, err := store.GetCategory(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, category)
			case http.MethodDelete:
				if err := store.DeleteCategory(ctx, db, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			default:
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}

		case "children":
			categories, err := store.ListChildCategories(ctx, db, &id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, categories)

		case "parent":
			if r.Method != http.MethodPut {
				respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			var req struct {
				ParentID *int64 `json:"parent_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if err := store.SetCategoryParent(ctx, db, id, req.ParentID); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "products":
			switch r.Method {
			case http.MethodGet:
				products, err := store.ListProductsByCategory(ctx, db, id)
				if err != nil {
					respondStoreError(w, err)
					return
				}
				respondJSON(w, http.StatusOK, products)
			case http.MethodPost:
				var req struct {
					ProductID int64 `json:"product_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				if err := store.AssignProductCategory(ctx, db, req.ProductID, id); err != nil {
					respondStoreError(w, err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			case http.MethodDelete:
				var req struct {
					ProductID int64 `json:"product_id"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					respondError(w, http.StatusBadRequest, "Invalid request body")
					return
				}
				if err := store.UnassignProductCategory(ctx, db, req.ProductID, id); err != nil {
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

func handleSuppliers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch r.Method {
		case http.MethodPost:
			var req struct {
				Name         string `json:"name"`
				ContactEmail string `json:"contact_email"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			supplier, err := store.CreateSupplier(ctx, db, req.Name, req.ContactEmail)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, supplier)

		case http.MethodGet:
			suppliers, err := store.ListSuppliers(ctx, db)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, suppliers)

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleSupplierByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sub, err := splitPath(r.URL.Path, "/suppliers/")
		if err != nil || sub != "" {
			respondError(w, http.StatusBadRequest, "Invalid supplier ID")
			return
		}
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		supplier, err := store.GetSupplier(r.Context(), db, id)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, supplier)
	}
}

func handleReviewByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sub, err := splitPath(r.URL.Path, "/reviews/")
		if err != nil || sub != "" {
			respondError(w, http.StatusBadRequest, "Invalid review ID")
			return
		}

		switch r.Method {
		case http.MethodGet:
			review, err := store.GetReview(r.Context(), db, id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, review)
		case http.MethodDelete:
			if err := store.DeleteReview(r.Context(), db, id); err != nil {
				respondStoreError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}
