package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupStudentRoutes injects students related api endpoints.
func (api *APIHandler) SetupStudentRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.POST("/v1/students", m.public(api.CreateStudent))
	router.POST("/v1/students/batch", m.public(api.CreateStudents))
	router.POST("/v1/students/sample", m.public(api.CreateSampleStudents))

	router.GET("/v1/students", m.public(api.GetAllStudents))
	router.GET("/v1/students/filter", m.public(api.FilterStudents))
	router.GET("/v1/students/age-range", m.public(api.GetStudentsByAgeRange))
	router.GET("/v1/students/courses", m.public(api.GetStudentsByCourses))
	router.GET("/v1/students/complex", m.public(api.GetStudentsByComplexQuery))
	router.GET("/v1/students/search", m.public(api.SearchStudents))

	router.PUT("/v1/students", m.public(api.BulkUpdateStudents))
	router.PUT("/v1/students/:id", m.public(api.UpdateStudent))
	router.PUT("/v1/students/:id/complete", m.public(api.CompleteStudent))

	router.DELETE("/v1/students", m.public(api.DeleteStudents))
	router.DELETE("/v1/students/:id", m.public(api.DeleteStudent))
	return router
}
