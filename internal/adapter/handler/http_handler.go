package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/Law-son/Smart-Ecommerce-System/internal/core/domain"
	"github.com/Law-son/Smart-Ecommerce-System/internal/core/service"
)

// HTTPHandler is the thin consumer surface over the core services. It
// carries no business logic: it decodes, delegates, and maps typed
// errors to status codes.
type HTTPHandler struct {
	catalog   *service.CatalogService
	inventory *service.InventoryService
	orders    *service.OrderService
	reviews   *service.ReviewService

	mu    sync.Mutex
	carts map[string]*service.Cart

	newCart func() *service.Cart
}

func NewHTTPHandler(catalog *service.CatalogService, inventory *service.InventoryService, orders *service.OrderService, reviews *service.ReviewService) *HTTPHandler {
	h := &HTTPHandler{
		catalog:   catalog,
		inventory: inventory,
		orders:    orders,
		reviews:   reviews,
		carts:     make(map[string]*service.Cart),
	}
	h.newCart = func() *service.Cart { return service.NewCart(inventory, catalog) }
	return h
}

// Router builds the mux router with all routes and middleware attached.
func (h *HTTPHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware, MetricsMiddleware, TracingMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/products/{id:[0-9]+}/rating", h.GetRating).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/reviews", h.ListReviews).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/stock", h.GetStock).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}/stock", h.UpdateStock).Methods(http.MethodPut)
	api.HandleFunc("/reviews", h.SubmitReview).Methods(http.MethodPost)

	api.HandleFunc("/carts", h.CreateCart).Methods(http.MethodPost)
	api.HandleFunc("/carts/{cart}", h.GetCart).Methods(http.MethodGet)
	api.HandleFunc("/carts/{cart}/items", h.AddCartItem).Methods(http.MethodPost)
	api.HandleFunc("/carts/{cart}/items/{id:[0-9]+}", h.UpdateCartItem).Methods(http.MethodPut)
	api.HandleFunc("/carts/{cart}/items/{id:[0-9]+}", h.RemoveCartItem).Methods(http.MethodDelete)
	api.HandleFunc("/carts/{cart}/checkout", h.Checkout).Methods(http.MethodPost)

	api.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}/status", h.UpdateOrderStatus).Methods(http.MethodPatch)
	api.HandleFunc("/users/{id:[0-9]+}/orders", h.ListUserOrders).Methods(http.MethodGet)

	return r
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)

	switch {
	case r.URL.Query().Get("q") != "":
		products, err = h.catalog.SearchByName(r.Context(), r.URL.Query().Get("q"))
	case r.URL.Query().Get("sort") == "price":
		products, err = h.catalog.SortByPrice(r.Context(), r.URL.Query().Get("order") != "desc")
	case r.URL.Query().Get("sort") == "name":
		products, err = h.catalog.SortByName(r.Context())
	case r.URL.Query().Get("sort") == "rating":
		products, err = h.catalog.SortByRating(r.Context())
	default:
		products, err = h.catalog.GetAllProducts(r.Context())
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := h.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"product_id": id})
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.catalog.UpdateProduct(r.Context(), pathID(r, "id"), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), pathID(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	rating, err := h.reviews.AverageRating(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"average_rating": rating})
}

func (h *HTTPHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ReviewsByProduct(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *HTTPHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var in service.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := h.reviews.SubmitReview(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"review_id": id})
}

func (h *HTTPHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	quantity, err := h.inventory.AvailableStock(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"quantity": quantity})
}

func (h *HTTPHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.inventory.UpdateStock(r.Context(), pathID(r, "id"), in.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	token := uuid.NewString()

	h.mu.Lock()
	h.carts[token] = h.newCart()
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"cart_id": token})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cart not found"})
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{
		Items: cart.Items(),
		Total: cart.Total(),
	})
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cart not found"})
		return
	}

	var in struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := cart.AddItem(r.Context(), in.ProductID, in.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cart not found"})
		return
	}

	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := cart.UpdateItem(r.Context(), pathID(r, "id"), in.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cart not found"})
		return
	}

	if err := cart.RemoveItem(pathID(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "cart not found"})
		return
	}

	var in struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	orderID, err := h.orders.CreateOrder(r.Context(), in.UserID, cart.Items())
	if err != nil {
		writeError(w, err)
		return
	}
	cart.Clear()

	writeJSON(w, http.StatusCreated, map[string]int64{"order_id": orderID})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID int64              `json:"user_id"`
		Lines  []domain.OrderLine `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	orderID, err := h.orders.CreateOrder(r.Context(), in.UserID, in.Lines)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"order_id": orderID})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.AllOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.OrderByID(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := h.orders.UpdateOrderStatus(r.Context(), pathID(r, "id"), in.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.OrdersByUser(r.Context(), pathID(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) cart(r *http.Request) (*service.Cart, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cart, ok := h.carts[mux.Vars(r)["cart"]]
	return cart, ok
}

type errorResponse struct {
	Error string `json:"error"`
}

type cartResponse struct {
	Items []domain.OrderLine `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
		message = err.Error()
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
