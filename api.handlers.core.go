package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index provides same details like `Health` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/health", http.StatusSeeOther)
}

// Health provides basics details about the application and its database
// connectivity to the public users.
func (api *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)

	database := "up"
	if err := api.pinger(r.Context()); err != nil {
		api.logger.Error("database ping failed", zap.String("request.id", requestID), zap.Error(err))
		database = "down"
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if database == "down" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    fmt.Sprintf("up & running since %.0f mins", time.Since(api.stats.started).Minutes()),
			Database:  database,
			Message:   "Hello. Students & library api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send health response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CollectionsStats is the payload of the stats endpoint.
type CollectionsStats struct {
	Students int64        `json:"students"`
	Library  LibraryStats `json:"library"`
}

// GetCollectionsStats returns the document counts of each collection.
func (api *APIHandler) GetCollectionsStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)

	students, err := api.studentService.Count(r.Context())
	if err != nil {
		api.logger.Error("failed to count students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get collections stats", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	library, err := api.libraryService.Stats(r.Context())
	if err != nil {
		api.logger.Error("failed to count books", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get collections stats", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	resp := GenericResponse(requestID, http.StatusOK, "Collections stats fetched successfully.", nil, CollectionsStats{Students: students, Library: library})
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
