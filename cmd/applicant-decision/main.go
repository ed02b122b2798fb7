package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/admissionsflow/internal/api"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/services"
)

var (
	decisionInstance *services.DecisionFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleDecision", handleHandleDecision)
}

func main() {}

// handleHandleDecision is the HTTP handler for the applicant-decision function.
func handleHandleDecision(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		decisionInstance, initErr = services.NewDecision(context.Background())
	})
	if initErr != nil {
		api.WriteInitError(w, initErr)
		return
	}

	var req models.DecisionRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	res, err := decisionInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}
