package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// AddBook inserts a new book record, available by default.
func (api *APIHandler) AddBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	book := Book{}
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	err := DecodeRequestBody(r, &book)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to add the book", book)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = ValidateNewBook(&book)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to add the book", err.Error())
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book, err = api.libraryService.AddBook(r.Context(), book)
	if err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to add the book", book)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	resp := GenericResponse(requestID, http.StatusCreated, "Book added successfully.", nil, book)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// respondBooks runs a filter against the library service and writes the
// matching books. An empty match is a success with an empty list.
func (api *APIHandler) respondBooks(w http.ResponseWriter, r *http.Request, requestID string, filter BookFilter) {
	books, err := api.libraryService.Books(r.Context(), filter)
	if err != nil {
		api.logger.Error("failed to get books", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get books", books)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get books", zap.String("request.id", requestID), zap.Int("total", len(books)))
	total := len(books)
	resp := GenericResponse(requestID, http.StatusOK, "Books fetched successfully.", &total, books)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks returns every book record.
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	api.respondBooks(w, r, requestID, BookFilter{})
}

// GetAvailableBooks returns the books currently on the shelf.
func (api *APIHandler) GetAvailableBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	available := true
	api.respondBooks(w, r, requestID, BookFilter{Available: &available})
}

// GetBooksByCategory returns the books of a given category.
func (api *APIHandler) GetBooksByCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	api.respondBooks(w, r, requestID, BookFilter{Category: ps.ByName("name")})
}

// GetOneBook returns one book with its borrower resolved.
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, ok := api.parseDocID(w, requestID, ps.ByName("id"))
	if !ok {
		return
	}

	detail, err := api.libraryService.BookDetail(r.Context(), id)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", id.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get book", zap.String("book.id", id.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to get the book", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get book", zap.String("book.id", id.Hex()), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book fetched successfully.", nil, detail)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// BorrowBook hands a book to a student. An unavailable book answers with
// a conflict and leaves the record untouched.
func (api *APIHandler) BorrowBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	req := BorrowRequest{}
	err := DecodeRequestBody(r, &req)
	if err != nil {
		api.logger.Error("failed to borrow book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to borrow the book", req)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	bookID, ok := api.parseDocID(w, requestID, req.BookID)
	if !ok {
		return
	}
	studentID, ok := api.parseDocID(w, requestID, req.StudentID)
	if !ok {
		return
	}

	book, err := api.libraryService.Borrow(r.Context(), bookID, studentID)
	switch err {
	case nil:
	case ErrStudentNotFound:
		api.logger.Error("student does not exist", zap.String("student.id", studentID.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "student does not exist", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	case ErrBookNotFound:
		api.logger.Error("book does not exist", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	case ErrBookNotAvailable:
		api.logger.Error("book already borrowed", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusConflict, "book is already borrowed", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	default:
		api.logger.Error("failed to borrow book", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to borrow the book", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to borrow book", zap.String("book.id", bookID.Hex()), zap.String("student.id", studentID.Hex()), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book borrowed successfully.", nil, book)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// ReturnBook puts a book back on the shelf.
func (api *APIHandler) ReturnBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	req := ReturnRequest{}
	err := DecodeRequestBody(r, &req)
	if err != nil {
		api.logger.Error("failed to return book", zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "failed to return the book", req)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	bookID, ok := api.parseDocID(w, requestID, req.BookID)
	if !ok {
		return
	}

	book, err := api.libraryService.Return(r.Context(), bookID)
	if err == ErrBookNotFound {
		api.logger.Error("book does not exist", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to return book", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID), zap.Error(err))
		errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to return the book", EmptyData)
		if err = WriteErrorResponse(w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to return book", zap.String("book.id", bookID.Hex()), zap.String("request.id", requestID))
	resp := GenericResponse(requestID, http.StatusOK, "Book returned successfully.", nil, book)
	if err = WriteResponse(w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
