package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// respond sends the envelope and logs when it could not be delivered.
func (api *APIHandler) respond(ctx context.Context, w http.ResponseWriter, status int, resp *APIResponse) {
	if err := WriteResponse(ctx, w, status, resp); err != nil {
		api.GetLoggerFromContext(ctx).Error("failed to send response", zap.Int("response.status", status), zap.Error(err))
	}
}

// respondValidationFailure answers 400 with the field message. Any other
// failure of the validator itself is a server error.
func (api *APIHandler) respondValidationFailure(ctx context.Context, w http.ResponseWriter, err error) {
	if IsValidationError(err) {
		api.respond(ctx, w, http.StatusBadRequest, NewAPIError(err.Error()))
		return
	}
	api.respond(ctx, w, http.StatusInternalServerError, NewAPIError(MsgServerError))
}

// SearchBooks godoc
//
//	@Summary		Search books
//	@Description	Lists the books whose columns contain the given values, ignoring case. Absent criteria are not applied.
//	@Tags			books
//	@Produce		json
//	@Param			title		query		string	false	"part of the title"
//	@Param			author		query		string	false	"part of the author"
//	@Param			publisher	query		string	false	"part of the publisher"
//	@Success		200			{object}	APIResponse{data=[]Book}
//	@Failure		500			{object}	APIResponse
//	@Router			/books [get]
func (api *APIHandler) SearchBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	filter := GetBookFilterFromRequest(r)
	books, err := api.bookService.Search(r.Context(), filter)
	if err != nil {
		logger.Error("failed to search books",
			zap.String("filter.title", filter.Title),
			zap.String("filter.author", filter.Author),
			zap.String("filter.publisher", filter.Publisher),
			zap.Error(err),
		)
		api.respond(r.Context(), w, http.StatusInternalServerError, NewAPIError(MsgServerError))
		return
	}

	message := MsgBooksFound
	if len(books) == 0 {
		message = MsgNoBooksFound
		books = []Book{}
	}
	logger.Info("success to search books", zap.Int("books.total", len(books)))
	api.respond(r.Context(), w, http.StatusOK, GenericResponse(message, books))
}

// GetOneBook godoc
//
//	@Summary	Get a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"book id"
//	@Success	200	{object}	APIResponse{data=Book}
//	@Failure	400	{object}	APIResponse
//	@Failure	404	{object}	APIResponse
//	@Failure	500	{object}	APIResponse
//	@Router		/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")))
		api.respond(r.Context(), w, http.StatusBadRequest, NewAPIError(err.Error()))
		return
	}

	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist", zap.Int64("book.id", id))
		api.respond(r.Context(), w, http.StatusNotFound, NewAPIError(MsgBookNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to get book", zap.Int64("book.id", id), zap.Error(err))
		api.respond(r.Context(), w, http.StatusInternalServerError, NewAPIError(MsgServerError))
		return
	}
	logger.Info("success to get book", zap.Int64("book.id", id))
	api.respond(r.Context(), w, http.StatusOK, GenericResponse(MsgBookFound, book))
}

// CreateBook godoc
//
//	@Summary	Create a book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookPayload	true	"all fields are required"
//	@Success	201		{object}	APIResponse{data=Book}
//	@Failure	400		{object}	APIResponse
//	@Failure	500		{object}	APIResponse
//	@Router		/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	var payload BookPayload
	if err := DecodeBookRequestBody(r, &payload); err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.respond(r.Context(), w, http.StatusBadRequest, NewAPIError(MsgInvalidBody))
		return
	}

	if err := ValidateBookPayload(&payload); err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.respondValidationFailure(r.Context(), w, err)
		return
	}

	book, err := api.bookService.Add(r.Context(), payload.Book())
	if err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.respond(r.Context(), w, http.StatusInternalServerError, NewAPIError(MsgServerError))
		return
	}
	logger.Info("success to create book", zap.Int64("book.id", book.ID))
	api.respond(r.Context(), w, http.StatusCreated, GenericResponse(MsgBookCreated, book))
}

// UpdateBook godoc
//
//	@Summary		Replace a book
//	@Description	All four fields are written, a missing field is rejected.
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"book id"
//	@Param			book	body		BookPayload	true	"all fields are required"
//	@Success		200		{object}	APIResponse{data=Book}
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Failure		500		{object}	APIResponse
//	@Router			/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")))
		api.respond(r.Context(), w, http.StatusBadRequest, NewAPIError(err.Error()))
		return
	}

	var payload BookPayload
	if err = DecodeBookRequestBody(r, &payload); err != nil {
		logger.Error("failed to update book", zap.Int64("book.id", id), zap.Error(err))
		api.respond(r.Context(), w, http.StatusBadRequest, NewAPIError(MsgInvalidBody))
		return
	}

	if err = ValidateBookPayload(&payload); err != nil {
		logger.Error("failed to update book", zap.Int64("book.id", id), zap.Error(err))
		api.respondValidationFailure(r.Context(), w, err)
		return
	}

	book, err := api.bookService.Update(r.Context(), id, payload.Book())
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist", zap.Int64("book.id", id))
		api.respond(r.Context(), w, http.StatusNotFound, NewAPIError(MsgBookNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.Int64("book.id", id), zap.Error(err))
		api.respond(r.Context(), w, http.StatusInternalServerError, NewAPIError(MsgServerError))
		return
	}
	logger.Info("success to update book", zap.Int64("book.id", id))
	api.respond(r.Context(), w, http.StatusOK, GenericResponse(MsgBookUpdated, book))
}

// DeleteOneBook godoc
//
//	@Summary	Delete a book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		int	true	"book id"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIResponse
//	@Failure	404	{object}	APIResponse
//	@Failure	500	{object}	APIResponse
//	@Router		/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")))
		api.respond(r.Context(), w, http.StatusBadRequest, NewAPIError(err.Error()))
		return
	}

	err = api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist", zap.Int64("book.id", id))
		api.respond(r.Context(), w, http.StatusNotFound, NewAPIError(MsgBookNotFound))
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.Int64("book.id", id), zap.Error(err))
		api.respond(r.Context(), w, http.StatusInternalServerError, NewAPIError(MsgServerError))
		return
	}
	logger.Info("success to delete book", zap.Int64("book.id", id))
	api.respond(r.Context(), w, http.StatusOK, GenericResponse(MsgBookDeleted, nil))
}
