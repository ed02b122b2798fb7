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
	submissionInstance *services.SubmissionFunction
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleSubmitApplication", handleHandleSubmitApplication)
}

func main() {}

// handleHandleSubmitApplication is the HTTP handler for the application-submit function.
func handleHandleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		submissionInstance, initErr = services.NewSubmission(context.Background())
	})
	if initErr != nil {
		api.WriteInitError(w, initErr)
		return
	}

	var req models.SubmitApplicationRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	res, err := submissionInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}
