package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupLibraryRoutes injects library related api endpoints.
func (api *APIHandler) SetupLibraryRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.POST("/v1/library/books", m.public(api.AddBook))
	router.GET("/v1/library/books", m.public(api.GetAllBooks))
	router.GET("/v1/library/books/:id", m.public(api.GetOneBook))
	router.GET("/v1/library/available", m.public(api.GetAvailableBooks))
	router.GET("/v1/library/category/:name", m.public(api.GetBooksByCategory))
	router.POST("/v1/library/borrow", m.public(api.BorrowBook))
	router.POST("/v1/library/return", m.public(api.ReturnBook))
	return router
}
