package httphandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/clusterpanel/internal/application"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// NodeResponse is the JSON representation of a tree node.
type NodeResponse struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	FullID      string `json:"full_id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	HasChildren bool   `json:"has_children"`

	// Populated for affordance nodes only.
	Command *CommandResponse `json:"command,omitempty"`

	// Populated for table nodes only.
	Schema    string `json:"schema,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// CommandResponse is the host command an affordance node dispatches.
type CommandResponse struct {
	Label     string   `json:"label"`
	CommandID string   `json:"command_id"`
	Args      []string `json:"args"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// CreateDatabaseRequest is the JSON body for the create database endpoint.
type CreateDatabaseRequest struct {
	Name string `json:"name"`
}

// CredentialsRequest is the JSON body for the store credentials endpoint.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// toNodeResponse converts a tree node to its JSON representation.
func toNodeResponse(ctx context.Context, n application.Node) NodeResponse {
	resp := NodeResponse{
		Kind:        string(n.Kind()),
		ID:          n.ID(),
		FullID:      n.FullID(),
		Label:       n.Label(),
		Description: n.Description(ctx),
	}

	switch v := n.(type) {
	case *application.CommandNode:
		cmd := v.Command()
		args := cmd.Args
		if args == nil {
			args = []string{}
		}
		resp.Command = &CommandResponse{Label: cmd.Label, CommandID: cmd.CommandID, Args: args}
	case *application.TableNode:
		resp.Schema = v.Schema()
		resp.Duplicate = v.IsDuplicateAcrossSchemas()
	default:
		resp.HasChildren = true
	}
	return resp
}

func toNodeResponses(ctx context.Context, nodes []application.Node) []NodeResponse {
	resp := make([]NodeResponse, 0, len(nodes))
	for _, n := range nodes {
		resp = append(resp, toNodeResponse(ctx, n))
	}
	return resp
}
