package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/go-playground/validator/v10"
)

const maxBodySize = 1 << 20 // 1MB

var validate = validator.New()

// LifecycleUseCases — все операции жизненного цикла одним интерфейсом
type LifecycleUseCases interface {
	in.AdmitUseCase
	in.ExpelUseCase
	in.DropOutUseCase
	in.DropOwnerUseCase
	in.ResetUseCase
	in.SpinOffUseCase
	in.CascadeUseCase
	in.ProposeChangeUseCase
}

// RideStateFinder читает снимок поездки вне транзакции
type RideStateFinder interface {
	FindState(ctx context.Context, rideID string) (*domain.RideState, error)
}

// HTTPHandler обрабатывает HTTP запросы Pool Service
type HTTPHandler struct {
	uc     LifecycleUseCases
	states RideStateFinder
	log    *logger.Logger
}

// NewHTTPHandler создает новый HTTP handler
func NewHTTPHandler(uc LifecycleUseCases, states RideStateFinder, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		uc:     uc,
		states: states,
		log:    log,
	}
}

// handleHealth обрабатывает health check
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleGetRide обрабатывает GET /rides/{ride_id}
func (h *HTTPHandler) handleGetRide(w http.ResponseWriter, r *http.Request) {
	st, err := h.states.FindState(r.Context(), r.PathValue("ride_id"))
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, st)
}

// AdmitHTTPRequest — HTTP DTO для принятия заявки
type AdmitHTTPRequest struct {
	ProposalID        *string `json:"proposal_id,omitempty" validate:"omitempty,uuid"`
	CounterProposalID *string `json:"counter_proposal_id,omitempty" validate:"omitempty,uuid"`
}

// handleAdmit обрабатывает POST /rides/{ride_id}/members/{membership_id}/admit
func (h *HTTPHandler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req AdmitHTTPRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	output, err := h.uc.Admit(r.Context(), in.AdmitInput{
		RideID:            r.PathValue("ride_id"),
		MembershipID:      r.PathValue("membership_id"),
		ProposalID:        req.ProposalID,
		CounterProposalID: req.CounterProposalID,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// ExpelHTTPRequest — HTTP DTO для исключения участника
type ExpelHTTPRequest struct {
	NewStatus          string `json:"new_status,omitempty" validate:"omitempty,oneof=left denied none saved"`
	SuppressReactivate bool   `json:"suppress_reactivate"`
}

// handleExpel обрабатывает POST /rides/{ride_id}/members/{membership_id}/expel
func (h *HTTPHandler) handleExpel(w http.ResponseWriter, r *http.Request) {
	var req ExpelHTTPRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	output, err := h.uc.Expel(r.Context(), in.ExpelInput{
		RideID:             r.PathValue("ride_id"),
		MembershipID:       r.PathValue("membership_id"),
		NewStatus:          req.NewStatus,
		SuppressReactivate: req.SuppressReactivate,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// DropOutHTTPRequest — HTTP DTO для добровольного выхода
type DropOutHTTPRequest struct {
	SuppressReactivate bool `json:"suppress_reactivate"`
	Reset              bool `json:"reset"`
}

// handleDropOut обрабатывает POST /riders/{rider_id}/drop-out
func (h *HTTPHandler) handleDropOut(w http.ResponseWriter, r *http.Request) {
	var req DropOutHTTPRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	output, err := h.uc.DropOut(r.Context(), in.DropOutInput{
		RiderID:            r.PathValue("rider_id"),
		SuppressReactivate: req.SuppressReactivate,
		Reset:              req.Reset,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// DropOwnerHTTPRequest — HTTP DTO для выхода владельца
type DropOwnerHTTPRequest struct {
	Suspend bool `json:"suspend"`
}

// handleDropOwner обрабатывает POST /rides/{ride_id}/owner/drop
func (h *HTTPHandler) handleDropOwner(w http.ResponseWriter, r *http.Request) {
	var req DropOwnerHTTPRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	output, err := h.uc.DropOwner(r.Context(), in.DropOwnerInput{
		RideID:  r.PathValue("ride_id"),
		Suspend: req.Suspend,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// ResetHTTPRequest — HTTP DTO для пересборки поездки
type ResetHTTPRequest struct {
	Suspend             bool    `json:"suspend"`
	UpdatedOwnerRiderID *string `json:"updated_owner_rider_id,omitempty" validate:"omitempty,uuid"`
}

// handleReset обрабатывает POST /rides/{ride_id}/reset
func (h *HTTPHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetHTTPRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	output, err := h.uc.Reset(r.Context(), in.ResetInput{
		RideID:              r.PathValue("ride_id"),
		Suspend:             req.Suspend,
		UpdatedOwnerRiderID: req.UpdatedOwnerRiderID,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// handleSpinOff обрабатывает POST /rides/{ride_id}/spin-off
func (h *HTTPHandler) handleSpinOff(w http.ResponseWriter, r *http.Request) {
	output, err := h.uc.SpinOff(r.Context(), in.SpinOffInput{
		RideID: r.PathValue("ride_id"),
	}, nil)
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// CascadeHTTPRequest — HTTP DTO для каскадного удаления
type CascadeHTTPRequest struct {
	RiderIDs []string `json:"rider_ids" validate:"required,min=1,dive,uuid"`
}

// handleCascade обрабатывает POST /riders/cascade
func (h *HTTPHandler) handleCascade(w http.ResponseWriter, r *http.Request) {
	var req CascadeHTTPRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	output, err := h.uc.Cascade(r.Context(), in.CascadeInput{
		RiderIDs: req.RiderIDs,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// ProposeChangeHTTPRequest — HTTP DTO подачи запроса на изменение условий
type ProposeChangeHTTPRequest struct {
	Counter  bool                  `json:"counter"`
	Proposal domain.ChangeProposal `json:"proposal"`
}

// handleProposeChange обрабатывает POST /rides/{ride_id}/members/{membership_id}/proposal
func (h *HTTPHandler) handleProposeChange(w http.ResponseWriter, r *http.Request) {
	var req ProposeChangeHTTPRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	output, err := h.uc.ProposeChange(r.Context(), in.ProposeChangeInput{
		RideID:       r.PathValue("ride_id"),
		MembershipID: r.PathValue("membership_id"),
		Counter:      req.Counter,
		Proposal:     req.Proposal,
	})
	if err != nil {
		h.handleUseCaseError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, output)
}

// decode читает и валидирует тело запроса; allowEmpty разрешает пустое тело
// для операций, у которых все поля необязательны.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return true
		}
		h.respondError(w, http.StatusBadRequest, "invalid request format")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleUseCaseError переводит доменные ошибки в HTTP статусы
func (h *HTTPHandler) handleUseCaseError(w http.ResponseWriter, err error) {
	var fieldErrs domain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": fieldErrs,
		})
	case errors.Is(err, domain.ErrRideNotFound),
		errors.Is(err, domain.ErrRiderNotFound),
		errors.Is(err, domain.ErrMembershipNotFound),
		errors.Is(err, domain.ErrProposalNotFound),
		errors.Is(err, domain.ErrPlaceNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotApplicant),
		errors.Is(err, domain.ErrRideUniqueMember),
		errors.Is(err, domain.ErrNotRideUnique),
		errors.Is(err, domain.ErrOtherRideActive),
		errors.Is(err, domain.ErrTravelerPresent),
		errors.Is(err, domain.ErrProposalMismatch),
		errors.Is(err, domain.ErrNoCoRiders),
		errors.Is(err, domain.ErrNoChange):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTimeWindow),
		errors.Is(err, domain.ErrAirportMismatch),
		errors.Is(err, domain.ErrAggloMismatch),
		errors.Is(err, domain.ErrTowardMismatch),
		errors.Is(err, domain.ErrLastCityStop):
		h.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error(logger.Entry{
			Action:  "usecase_error",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondJSON отправляет JSON ответ
func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error(logger.Entry{
			Action:  "encode_response_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

// respondError отправляет JSON с ошибкой
func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
