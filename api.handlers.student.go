package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// parseOptionalInt reads an optional integer query parameter.
func parseOptionalInt(raw string) (*int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateStudent inserts a single student record.
func (api *APIHandler) CreateStudent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	student := Student{}
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &student)
	if err != nil {
		api.logger.Error("failed to create student", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the student", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateNewStudent(&student)
	if err != nil {
		api.logger.Error("failed to create student", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the student", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	student, err = api.studentService.Create(r.Context(), student)
	if err != nil {
		api.logger.Error("failed to create student", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the student", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	resp := GenericResponse(requestID, http.StatusCreated, "Student created successfully.", nil, student)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateStudents inserts a batch of student records. The batch is rejected
// as a whole when any record fails validation.
func (api *APIHandler) CreateStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	students := []Student{}
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &students)
	if err != nil {
		api.logger.Error("failed to create students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the students", students)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if len(students) == 0 {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the students", "empty batch")
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	for i := range students {
		if err = ValidateNewStudent(&students[i]); err != nil {
			api.logger.Error("failed to create students", zap.Int("record", i), zap.String("request.id", requestID), zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to create the students", err.Error())
			if err = WriteErrorResponse(w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
	}

	students, err = api.studentService.CreateMany(r.Context(), students)
	if err != nil {
		api.logger.Error("failed to create students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the students", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	total := len(students)
	resp := GenericResponse(requestID, http.StatusCreated, "Students created successfully.", &total, students)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateSampleStudents inserts the built-in sample data set.
func (api *APIHandler) CreateSampleStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	students, err := api.studentService.CreateSample(r.Context())
	if err != nil {
		api.logger.Error("failed to create sample students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to create the sample students", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	total := len(students)
	resp := GenericResponse(requestID, http.StatusCreated, "Sample students created successfully.", &total, students)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// respondStudents runs a filter against the student service and writes
// the matching records. An empty match is a success with an empty list.
func (api *APIHandler) respondStudents(w http.ResponseWriter, r *http.Request, requestID string, filter StudentFilter) {
	students, err := api.studentService.Find(r.Context(), filter)
	if err != nil {
		api.logger.Error("failed to get students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get students", students)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get students", zap.String("request.id", requestID), zap.Int("total", len(students)))
	total := len(students)
	resp := GenericResponse(requestID, http.StatusOK, "Students fetched successfully.", &total, students)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllStudents returns every student record.
func (api *APIHandler) GetAllStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	api.respondStudents(w, r, requestID, StudentFilter{})
}

// FilterStudents returns students matching course and/or status equality.
func (api *APIHandler) FilterStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := r.URL.Query()
	api.respondStudents(w, r, requestID, StudentFilter{Course: q.Get("course"), Status: q.Get("status")})
}

// GetStudentsByAgeRange returns students within the inclusive [minAge, maxAge] bounds.
func (api *APIHandler) GetStudentsByAgeRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := r.URL.Query()

	minAge, errMin := parseOptionalInt(q.Get("minAge"))
	maxAge, errMax := parseOptionalInt(q.Get("maxAge"))
	if errMin != nil || errMax != nil || (minAge == nil && maxAge == nil) {
		api.logger.Error("invalid age range parameters", zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "minAge and maxAge must be integers and at least one is required", EmptyData)
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.respondStudents(w, r, requestID, StudentFilter{Age: IntRange{Min: minAge, Max: maxAge}})
}

// GetStudentsByCourses returns students enrolled in any of the given courses.
func (api *APIHandler) GetStudentsByCourses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	raw := r.URL.Query().Get("courses")
	courses := []string{}
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); len(c) > 0 {
			courses = append(courses, c)
		}
	}
	if len(courses) == 0 {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "courses parameter is required as a comma separated list", EmptyData)
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.respondStudents(w, r, requestID, StudentFilter{Courses: courses})
}

// GetStudentsByComplexQuery serves the canned operator demonstrations.
func (api *APIHandler) GetStudentsByComplexQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	queryType := r.URL.Query().Get("queryType")
	filter, err := ComplexStudentFilter(queryType)
	if err != nil {
		api.logger.Error("unknown query type", zap.String("request.querytype", queryType), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "queryType must be one of and, or, exists", EmptyData)
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	api.respondStudents(w, r, requestID, filter)
}

// SearchStudents combines course membership, age range, status equality
// and email existence into a single search.
func (api *APIHandler) SearchStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	q := r.URL.Query()

	minAge, errMin := parseOptionalInt(q.Get("minAge"))
	maxAge, errMax := parseOptionalInt(q.Get("maxAge"))
	if errMin != nil || errMax != nil {
		errResp := NewAPIError(requestID, http.StatusBadRequest, "minAge and maxAge must be integers", EmptyData)
		if err := WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	filter := StudentFilter{
		Course: q.Get("course"),
		Status: q.Get("status"),
		Age:    IntRange{Min: minAge, Max: maxAge},
	}
	if raw := q.Get("courses"); len(raw) > 0 {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); len(c) > 0 {
				filter.Courses = append(filter.Courses, c)
			}
		}
	}
	if raw := q.Get("hasEmail"); len(raw) > 0 {
		hasEmail, err := strconv.ParseBool(raw)
		if err != nil {
			errResp := NewAPIError(requestID, http.StatusBadRequest, "hasEmail must be a boolean", EmptyData)
			if err := WriteErrorResponse(w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		filter.HasEmail = &hasEmail
	}

	api.respondStudents(w, r, requestID, filter)
}

// UpdateStudent applies a partial field set to one student record.
func (api *APIHandler) UpdateStudent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, ok := api.parseDocID(w, requestID, ps.ByName("id"))
	if !ok {
		return
	}

	patch := StudentPatch{}
	err := DecodeRequestBody(r, &patch)
	if err != nil || patch.IsZero() {
		api.logger.Error("failed to update student", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to update the student", "at least one updatable field is required")
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	student, err := api.studentService.Update(r.Context(), id, patch)
	if err == ErrStudentNotFound {
		api.logger.Error("student does not exist", zap.String("student.id", id.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "student does not exist", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to update student", zap.String("student.id", id.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to update the student", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to update student", zap.String("student.id", id.Hex()), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Student updated successfully.", nil, student)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CompleteStudent is the shortcut moving one student to completed status.
func (api *APIHandler) CompleteStudent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, ok := api.parseDocID(w, requestID, ps.ByName("id"))
	if !ok {
		return
	}

	student, err := api.studentService.Complete(r.Context(), id)
	if err == ErrStudentNotFound {
		api.logger.Error("student does not exist", zap.String("student.id", id.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "student does not exist", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to complete student", zap.String("student.id", id.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to complete the student", student)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to complete student", zap.String("student.id", id.Hex()), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Student completed successfully.", nil, student)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// BulkUpdateRequest is the payload of the bulk student update endpoint.
type BulkUpdateRequest struct {
	Condition StudentCondition `json:"condition"`
	Update    StudentPatch     `json:"update"`
}

// BulkUpdateStudents applies a patch to every student matching a condition
// and returns the modified count. The condition must select something, so a
// malformed payload cannot rewrite the whole collection; matching zero
// students is a success with count 0.
func (api *APIHandler) BulkUpdateStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	req := BulkUpdateRequest{}
	err := DecodeRequestBody(r, &req)
	if err != nil || req.Update.IsZero() {
		if err == nil {
			err = ErrEmptyUpdate
		}
		api.logger.Error("failed to bulk update students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to bulk update students", "update with at least one field is required")
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if req.Condition.Filter().IsZero() {
		api.logger.Error("failed to bulk update students", zap.String("request.id", requestID), zap.Error(ErrEmptyCondition))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to bulk update students", "a non empty condition is required")
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	modified, err := api.studentService.UpdateMany(r.Context(), req.Condition.Filter(), req.Update)
	if err != nil {
		api.logger.Error("failed to bulk update students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to bulk update students", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to bulk update students", zap.Int64("modified", modified), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Students updated successfully.", nil, map[string]int64{"modified": modified})
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteStudent removes one student record and returns the deleted count.
// Deleting an unknown id is a success with count 0.
func (api *APIHandler) DeleteStudent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, ok := api.parseDocID(w, requestID, ps.ByName("id"))
	if !ok {
		return
	}

	deleted, err := api.studentService.Delete(r.Context(), id)
	if err != nil {
		api.logger.Error("failed to delete student", zap.String("student.id", id.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete the student", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to delete student", zap.String("student.id", id.Hex()), zap.Int64("deleted", deleted), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Student deleted successfully.", nil, map[string]int64{"deleted": deleted})
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteCondition is the payload of the conditional student delete endpoint.
type DeleteCondition struct {
	Condition StudentCondition `json:"condition"`
}

// DeleteStudents removes students by condition, or every student when
// called with scope=all. The delete-all form is deliberately unguarded,
// it exists for practice data sets.
func (api *APIHandler) DeleteStudents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)

	var deleted int64
	var err error
	if r.URL.Query().Get("scope") == "all" {
		deleted, err = api.studentService.DeleteAll(r.Context())
	} else {
		req := DeleteCondition{}
		if derr := DecodeRequestBody(r, &req); derr != nil || req.Condition.IsZero() {
			if derr == nil {
				derr = ErrEmptyCondition
			}
			api.logger.Error("failed to delete students", zap.String("request.id", requestID), zap.Error(derr))
			errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to delete students", "a non empty condition is required, or use scope=all")
			if err = WriteErrorResponse(w, errResp); err != nil {
				api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
			}
			return
		}
		deleted, err = api.studentService.DeleteMany(r.Context(), req.Condition.Filter())
	}

	if err != nil {
		api.logger.Error("failed to delete students", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to delete students", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to delete students", zap.Int64("deleted", deleted), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Students deleted successfully.", nil, map[string]int64{"deleted": deleted})
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
