package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swinilab/orderflow/internal/service"
)

type createOrderRequest struct {
	CustomerID string                   `json:"customer_id"`
	Items      []service.OrderItemInput `json:"items"`
}

// createOrderHandler creates a new order
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.CustomerID == "" {
		s.respondWithError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	order, err := s.orderService.CreateOrder(r.Context(), req.CustomerID, req.Items)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: order})
}

// getOrdersHandler returns a page of orders
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	orders, err := s.orderService.ListOrders(r.Context(), limit, offset)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: orders})
}

// getOrderHandler returns an order with its items
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.GetOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}

// acceptOrderHandler moves an order to accepted
func (s *Server) acceptOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.AcceptOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}

// shipOrderHandler moves a paid order to shipped
func (s *Server) shipOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.ShipOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}

// completeOrderHandler moves a shipped order to completed
func (s *Server) completeOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.CompleteOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}

// cancelOrderHandler cancels an order and restores its stock
func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	order, err := s.orderService.CancelOrder(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: order})
}
