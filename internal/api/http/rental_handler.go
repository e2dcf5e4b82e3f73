package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rentoo/internal/domain"
	"rentoo/internal/service"
)

type rentalRequest struct {
	ItemID    string `json:"item_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type confirmRequest struct {
	Confirm *bool `json:"confirm"`
}

func rentalOut(rental *domain.Rental) *domain.Rental {
	if rental != nil {
		itemOut(rental.Item)
	}
	return rental
}

func (h *Handler) ListRentals(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.URL.Query().Get("role"))
	rentals, err := h.services.Rentals.List(r.Context(), currentUserID(r.Context()), role)
	if err != nil {
		writeErrorIn(w, r, err, "query")
		return
	}
	for i := range rentals {
		rentalOut(&rentals[i])
	}
	writeJSON(w, http.StatusOK, orEmpty(rentals))
}

func (h *Handler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.services.Rentals.Get(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalOut(rental))
}

func (h *Handler) CreateRental(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rental, err := h.services.Rentals.Create(r.Context(), currentUserID(r.Context()), req.ItemID, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rentalOut(rental))
}

func (h *Handler) ConfirmRental(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Confirm == nil {
		writeValidation(w, "body", []service.FieldError{{Field: "confirm", Msg: "Field required"}})
		return
	}
	rental, err := h.services.Rentals.Confirm(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"], *req.Confirm)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalOut(rental))
}

func (h *Handler) CompleteRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.services.Rentals.Complete(r.Context(), currentUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rentalOut(rental))
}
