package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/swinilab/orderflow/internal/models"
	"github.com/swinilab/orderflow/internal/repository"
)

type discardDeadLetterRequest struct {
	Reason string `json:"reason"`
}

// getDeadLettersHandler lists dead letter messages, optionally filtered by status
func (s *Server) getDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	status := r.URL.Query().Get("status")

	messages, err := s.dlqRepo.GetMessages(r.Context(), status, limit, offset)

	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve dead letter messages")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: messages})
}

// retryDeadLetterHandler requeues a dead letter message for the retry worker
func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	message, err := s.dlqRepo.GetMessage(r.Context(), id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found")
			return
		}
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve dead letter message")
		return
	}

	switch models.DeadLetterStatus(message.Status) {
	case models.DeadLetterStatusResolved, models.DeadLetterStatusDiscarded:
		s.respondWithError(w, http.StatusConflict, "Message has already been "+message.Status)
		return
	case models.DeadLetterStatusRetrying:
		if err := s.dlqRepo.ResetToPending(r.Context(), id); err != nil {
			s.respondWithError(w, http.StatusInternalServerError, "Failed to requeue message")
			return
		}
	}

	s.respondWithJSON(w, http.StatusAccepted, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": string(models.DeadLetterStatusPending)},
	})
}

// discardDeadLetterHandler permanently discards a dead letter message
func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid message ID")
		return
	}

	var req discardDeadLetterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if req.Reason == "" {
		req.Reason = "discarded by operator"
	}

	message, err := s.dlqRepo.GetMessage(r.Context(), id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found")
			return
		}
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve dead letter message")
		return
	}

	switch models.DeadLetterStatus(message.Status) {
	case models.DeadLetterStatusResolved, models.DeadLetterStatusDiscarded:
		s.respondWithError(w, http.StatusConflict, "Message has already been "+message.Status)
		return
	}

	if err := s.dlqRepo.MarkAsDiscarded(r.Context(), id, req.Reason); err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "Failed to discard message")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]interface{}{"id": id, "status": string(models.DeadLetterStatusDiscarded)},
	})
}
