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
	signerInstance *services.SignerFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleSignAttachment", handleHandleSignAttachment)
}

func main() {}

// handleHandleSignAttachment is the HTTP handler for the attachment-signer function.
func handleHandleSignAttachment(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		signerInstance, initErr = services.NewSigner(context.Background())
	})
	if initErr != nil {
		api.WriteInitError(w, initErr)
		return
	}

	var req models.SignAttachmentRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	res, err := signerInstance.Process(r.Context(), &req)
	if err != nil {
		// Error is already logged with context in the Process method.
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}
