package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type createPaymentRequest struct {
	InvoiceID string  `json:"invoice_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

// createPaymentHandler records a pending payment against an invoice
func (s *Server) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.InvoiceID == "" {
		s.respondWithError(w, http.StatusBadRequest, "invoice_id is required")
		return
	}

	payment, err := s.paymentService.CreatePayment(r.Context(), req.InvoiceID, req.Amount, req.Method)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: payment})
}

// getPaymentHandler returns a payment by ID
func (s *Server) getPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	payment, err := s.paymentService.GetPayment(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: payment})
}

// acceptPaymentHandler confirms a pending payment and settles the invoice and
// order when the invoice balance reaches zero.
func (s *Server) acceptPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := s.reconService.AcceptPayment(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result})
}

// cancelPaymentHandler cancels a payment that has not completed
func (s *Server) cancelPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	payment, err := s.paymentService.CancelPayment(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: payment})
}
