// Package cloudfunctions exposes the Clarify API as a Cloud Function.
package cloudfunctions

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/clarify/internal/application"
	"github.com/pep299/clarify/internal/config"
	"github.com/pep299/clarify/internal/handlers"
	"github.com/pep299/clarify/internal/transport/response"
)

// Version is reported by the health endpoint
const Version = "v1.0.0"

var (
	once    sync.Once
	handler http.Handler
	initErr error
)

func init() {
	functions.HTTP("Clarify", Clarify)
}

// Clarify serves every API route. Dependencies are built on the first call.
func Clarify(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		handler, initErr = newHandler(context.Background())
	})
	if initErr != nil {
		log.Printf("Failed to initialize: %v", initErr)
		response.WriteInternalError(w, "Service unavailable")
		return
	}
	handler.ServeHTTP(w, r)
}

func newHandler(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, err := application.New(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return handlers.NewServer(app, Version).Handler(), nil
}
