package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type createCustomerRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	BankAccount *string `json:"bank_account,omitempty"`
}

type updateCustomerRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type createProductRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	UnitPrice     float64 `json:"unit_price"`
	StockQuantity int     `json:"stock_quantity"`
}

// createCustomerHandler registers a new customer
func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	customer, err := s.catalogService.CreateCustomer(r.Context(), req.Name, req.Email, req.Phone, req.Address, req.BankAccount)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: customer})
}

// getCustomerHandler returns a customer by ID
func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	customer, err := s.catalogService.GetCustomer(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: customer})
}

// updateCustomerHandler updates a customer's contact details
func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateCustomerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	customer, err := s.catalogService.UpdateCustomerContact(r.Context(), id, req.Email, req.Phone, req.Address)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: customer})
}

// createProductHandler adds a product to the catalog
func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	product, err := s.catalogService.CreateProduct(r.Context(), req.Name, req.Description, req.UnitPrice, req.StockQuantity)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: product})
}

// getProductsHandler returns a page of products
func (s *Server) getProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	products, err := s.catalogService.ListProducts(r.Context(), limit, offset)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: products})
}

// getProductHandler returns a product by ID
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, err := s.catalogService.GetProduct(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}
