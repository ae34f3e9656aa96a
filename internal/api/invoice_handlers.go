package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/swinilab/orderflow/internal/models"
)

type createInvoiceRequest struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

// createInvoiceHandler derives an invoice from an accepted order
func (s *Server) createInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	var req createInvoiceRequest

	// The body is optional; an empty body means the default payment term.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	invoice, err := s.invoiceService.CreateFromOrder(r.Context(), orderID, req.DueDate)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: invoice})
}

// getInvoicesHandler returns a page of invoices
func (s *Server) getInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	invoices, err := s.invoiceService.ListInvoices(r.Context(), limit, offset)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: invoices})
}

// getInvoiceHandler returns an invoice by ID
func (s *Server) getInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	invoice, err := s.invoiceService.GetInvoice(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: invoice})
}

// sendInvoiceHandler issues a draft invoice
func (s *Server) sendInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	invoice, err := s.invoiceService.SendInvoice(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: invoice})
}

// cancelInvoiceHandler cancels a draft or issued invoice
func (s *Server) cancelInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	invoice, err := s.invoiceService.CancelInvoice(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: invoice})
}

// getInvoicePaymentsHandler returns every payment recorded against an invoice
func (s *Server) getInvoicePaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	// Surface a 404 for an unknown invoice rather than an empty list.
	if _, err := s.invoiceService.GetInvoice(r.Context(), id); err != nil {
		s.respondWithAppError(w, err)
		return
	}

	payments, err := s.paymentService.ListPaymentsByInvoice(r.Context(), id)

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: payments})
}

// sweepOverdueHandler runs the overdue sweep on demand
func (s *Server) sweepOverdueHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.invoiceService.SweepOverdue(r.Context(), models.GetCurrentTime())

	if err != nil {
		s.respondWithAppError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]int64{"marked_overdue": count},
	})
}
