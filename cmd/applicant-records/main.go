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
	recordsInstance *services.RecordsFunction
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleRecordUpdate", handleHandleRecordUpdate)
}

func main() {}

// handleHandleRecordUpdate is the HTTP handler for the applicant-records function.
func handleHandleRecordUpdate(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		recordsInstance, initErr = services.NewRecords(context.Background())
	})
	if initErr != nil {
		api.WriteInitError(w, initErr)
		return
	}

	var req models.RecordUpdateRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	res, err := recordsInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}
