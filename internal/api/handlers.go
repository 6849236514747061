package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/api/middleware"
	"github.com/example/ems-custody/internal/custody"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/export"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/query"
)

type Handlers struct {
	engine   *custody.Engine
	queries  *query.Handler
	exporter *export.Service
	log      *logrus.Logger
}

func NewHandlers(engine *custody.Engine, queries *query.Handler, exporter *export.Service, log *logrus.Logger) *Handlers {
	return &Handlers{
		engine:   engine,
		queries:  queries,
		exporter: exporter,
		log:      log,
	}
}

// actorFromContext builds the acting user from validated token claims.
func actorFromContext(r *http.Request) (custody.Actor, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return custody.Actor{}, false
	}
	return custody.Actor{
		UserID:    claims.UserID,
		ServiceID: claims.ServiceID,
		Role:      entity.Role(claims.Role),
	}, true
}

// respondCustodyError maps the engine's error categories onto HTTP statuses:
// bad input 400, wrong entity state 422, lost race 409, anything else 500.
func (h *Handlers) respondCustodyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, custody.ErrInvalidInput):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, custody.ErrPrecondition):
		respondJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, custody.ErrConflict):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, custody.ErrPersistence):
		h.log.WithError(err).Error("write accepted but not fully persisted")
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	default:
		h.log.WithError(err).Error("operation failed")
		respondJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// Item workflows

func (h *Handlers) ScanItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	code := r.URL.Query().Get("code")
	item, found := h.queries.FindActiveItemByCode(actor.ServiceID, code)
	if !found {
		respondJSONError(w, "no active item with that code", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.CreateItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.engine.CreateItem(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handlers) Administer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.AdministerCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.engine.Administer(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) Waste(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.WasteCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.engine.Waste(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) Correct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.CorrectCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.engine.Correct(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handlers) Transfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.TransferCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	transfer, err := h.engine.Transfer(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, transfer)
}

func (h *Handlers) ExpiredExchange(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.ExpiredExchangeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	item, err := h.engine.ExpiredExchange(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Checks

func (h *Handlers) CheckSealed(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.SealedCheckCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.engine.CheckSealedLocation(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) CheckUnsealed(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.UnsealedCheckCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.engine.CheckUnsealedLocation(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// Orders

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.engine.CreateOrder(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) ReceiveOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	orderID := extractPathParam(r.URL.Path, "/api/orders/")
	orderID = strings.TrimSuffix(orderID, "/receive")

	var cmd custody.ReceiveOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.OrderID = orderID
	result, err := h.engine.ReceiveOrder(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Locations

func (h *Handlers) CreateLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.CreateLocationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	loc, err := h.engine.CreateLocation(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loc)
}

func (h *Handlers) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.UpdateLocationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.LocationID = extractPathParam(r.URL.Path, "/api/locations/")
	loc, err := h.engine.UpdateLocation(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loc)
}

func (h *Handlers) LocationTree(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, h.queries.LocationTree(actor.ServiceID))
}

func (h *Handlers) ReconcileLocation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	locationID := extractPathParam(r.URL.Path, "/api/locations/")
	locationID = strings.TrimSuffix(locationID, "/reconciliation")
	respondJSON(w, http.StatusOK, h.queries.ReconcileLocation(actor.ServiceID, locationID))
}

func (h *Handlers) LocationCompliance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	locationID := extractPathParam(r.URL.Path, "/api/locations/")
	locationID = strings.TrimSuffix(locationID, "/compliance")
	status := h.queries.LocationCompliance(actor.ServiceID, locationID, time.Now())
	respondJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handlers) OverdueLocations(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, h.queries.OverdueLocations(actor.ServiceID, time.Now()))
}

// Discrepancies and incidents

func (h *Handlers) OpenDiscrepancy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.OpenDiscrepancyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	dcase, err := h.engine.OpenDiscrepancy(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dcase)
}

func (h *Handlers) InvestigateDiscrepancy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	caseID := extractPathParam(r.URL.Path, "/api/discrepancies/")
	caseID = strings.TrimSuffix(caseID, "/investigate")
	dcase, err := h.engine.StartInvestigation(r.Context(), actor, caseID)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dcase)
}

func (h *Handlers) ResolveDiscrepancy(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	caseID := extractPathParam(r.URL.Path, "/api/discrepancies/")
	caseID = strings.TrimSuffix(caseID, "/resolve")

	var cmd custody.ResolveDiscrepancyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CaseID = caseID
	dcase, err := h.engine.ResolveDiscrepancy(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dcase)
}

func (h *Handlers) CreateIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var cmd custody.CreateIncidentCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	incident, err := h.engine.CreateIncident(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, incident)
}

func (h *Handlers) AddIncidentItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	incidentID := extractPathParam(r.URL.Path, "/api/incidents/")
	incidentID = strings.TrimSuffix(incidentID, "/items")

	var cmd custody.AddIncidentItemCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.IncidentID = incidentID
	item, err := h.engine.AddIncidentItem(r.Context(), actor, cmd)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handlers) CloseIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	incidentID := extractPathParam(r.URL.Path, "/api/incidents/")
	incidentID = strings.TrimSuffix(incidentID, "/close")
	incident, err := h.engine.CloseIncident(r.Context(), actor, incidentID)
	if err != nil {
		h.respondCustodyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, incident)
}

// Reporting

func (h *Handlers) AuditEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filter := store.AuditFilter{
		ServiceID:  actor.ServiceID,
		EventType:  r.URL.Query().Get("event_type"),
		EntityType: r.URL.Query().Get("entity_type"),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			respondJSONError(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			respondJSONError(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = parsed
	}

	events, err := h.queries.AuditEvents(r.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("audit query failed")
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

func (h *Handlers) ActivityFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	feed, found := h.queries.ActivityFeed(actor.ServiceID)
	if !found {
		respondJSONError(w, "no activity yet", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

func (h *Handlers) ComplianceSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	summary, found := h.queries.ComplianceSummary(actor.ServiceID)
	if !found {
		respondJSONError(w, "no activity yet", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Data administration

func (h *Handlers) ExportData(w http.ResponseWriter, r *http.Request) {
	document, err := h.exporter.Export(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.log.WithError(err).Error("export failed")
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="custody-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func (h *Handlers) ImportData(w http.ResponseWriter, r *http.Request) {
	var document json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&document); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.exporter.Import(r.Context(), middleware.GetUserID(r.Context()), document); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "import complete"})
}

func (h *Handlers) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.exporter.Reset(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.log.WithError(err).Error("reset audit record failed")
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "store reset"})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
