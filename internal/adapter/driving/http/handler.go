package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/clusterpanel/internal/application"
	"github.com/ericfisherdev/clusterpanel/internal/domain/model"
	"github.com/ericfisherdev/clusterpanel/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter through which the host expands the
// resource tree and dispatches tree commands.
type Handler struct {
	explorer *application.Explorer
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(explorer *application.Explorer, logger *slog.Logger) *Handler {
	return &Handler{explorer: explorer, logger: logger}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with session, logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/clusters", h.ListClusters)
	mux.HandleFunc("DELETE /api/v1/clusters/{cluster}", h.DeleteCluster)
	mux.HandleFunc("PUT /api/v1/clusters/{cluster}/credentials", h.SetCredentials)
	mux.HandleFunc("DELETE /api/v1/clusters/{cluster}/credentials", h.RemoveCredentials)
	mux.HandleFunc("GET /api/v1/clusters/{cluster}/databases", h.ListDatabases)
	mux.HandleFunc("POST /api/v1/clusters/{cluster}/databases", h.CreateDatabase)
	mux.HandleFunc("DELETE /api/v1/clusters/{cluster}/databases/{database}", h.DeleteDatabase)
	mux.HandleFunc("GET /api/v1/clusters/{cluster}/databases/{database}/children", h.DatabaseChildren)
	mux.HandleFunc("GET /api/v1/clusters/{cluster}/databases/{database}/tables", h.ListTables)
	mux.HandleFunc("POST /api/v1/clusters/{cluster}/databases/{database}/connect", h.ConnectDatabase)
	mux.HandleFunc("DELETE /api/v1/connection", h.Disconnect)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = sessionMiddleware(h.explorer, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListClusters expands the tree root.
func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.explorer.Clusters(r.Context(), forceRefresh(r))
	if err != nil {
		h.writeAppError(w, "list clusters", err)
		return
	}

	nodes := make([]application.Node, 0, len(clusters))
	for _, c := range clusters {
		nodes = append(nodes, c)
	}
	writeJSON(w, http.StatusOK, toNodeResponses(r.Context(), nodes))
}

// DeleteCluster deletes a cluster and its stored credentials.
func (h *Handler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := h.explorer.DeleteCluster(r.Context(), r.PathValue("cluster")); err != nil {
		h.writeAppError(w, "delete cluster", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCredentials stores the username and password for a cluster.
func (h *Handler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.explorer.SetCredentials(r.Context(), r.PathValue("cluster"), req.Username, req.Password); err != nil {
		h.writeAppError(w, "set credentials", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveCredentials forgets the stored credentials of a cluster.
func (h *Handler) RemoveCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.explorer.RemoveCredentials(r.Context(), r.PathValue("cluster")); err != nil {
		h.writeAppError(w, "remove credentials", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDatabases expands a cluster.
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.explorer.Databases(r.Context(), r.PathValue("cluster"), forceRefresh(r))
	if err != nil {
		h.writeAppError(w, "list databases", err)
		return
	}
	writeJSON(w, http.StatusOK, toNodeResponses(r.Context(), nodes))
}

// CreateDatabase creates a database on a cluster.
func (h *Handler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req CreateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	db, err := h.explorer.CreateDatabase(r.Context(), r.PathValue("cluster"), req.Name)
	if err != nil {
		h.writeAppError(w, "create database", err)
		return
	}
	writeJSON(w, http.StatusCreated, toNodeResponse(r.Context(), db))
}

// DeleteDatabase deletes a database.
func (h *Handler) DeleteDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.explorer.DeleteDatabase(r.Context(), r.PathValue("cluster"), r.PathValue("database")); err != nil {
		h.writeAppError(w, "delete database", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DatabaseChildren expands a database: the table container or one command node.
func (h *Handler) DatabaseChildren(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.explorer.DatabaseChildren(r.Context(), r.PathValue("cluster"), r.PathValue("database"), forceRefresh(r))
	if err != nil {
		h.writeAppError(w, "expand database", err)
		return
	}
	writeJSON(w, http.StatusOK, toNodeResponses(r.Context(), nodes))
}

// ListTables expands a database through to its tables.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.explorer.Tables(r.Context(), r.PathValue("cluster"), r.PathValue("database"), forceRefresh(r))
	if err != nil {
		h.writeAppError(w, "list tables", err)
		return
	}
	writeJSON(w, http.StatusOK, toNodeResponses(r.Context(), nodes))
}

// ConnectDatabase marks a database as the connected one.
func (h *Handler) ConnectDatabase(w http.ResponseWriter, r *http.Request) {
	db, err := h.explorer.ConnectDatabase(r.Context(), r.PathValue("cluster"), r.PathValue("database"))
	if err != nil {
		h.writeAppError(w, "connect database", err)
		return
	}

	// The request session predates the connect; describe against a fresh one.
	session := h.explorer.Session(w.Header().Get(requestIDHeader))
	writeJSON(w, http.StatusOK, toNodeResponse(application.WithSession(r.Context(), session), db))
}

// Disconnect clears the connected database.
func (h *Handler) Disconnect(w http.ResponseWriter, _ *http.Request) {
	h.explorer.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

// writeAppError maps an application error onto an HTTP status. Validation
// reasons and upstream failures are shown to the host verbatim.
func (h *Handler) writeAppError(w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, driven.ErrClusterNotFound), errors.Is(err, driven.ErrNodeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("tree operation failed", "op", op, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// forceRefresh reports whether the request asks to bypass cached children.
func forceRefresh(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && v
}
