package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/listview"
	"spendtrack/internal/models"
	"spendtrack/internal/money"
	"spendtrack/internal/pagination"
	"spendtrack/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the create/update transaction payload. Amount
// is a decimal string ("12.50") converted to cents server side.
type TransactionRequest struct {
	Type        string `json:"type" binding:"required,txn_type"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	CategoryID  string `json:"category_id" binding:"required"`
	Date        string `json:"date" binding:"omitempty"`
}

func (r *TransactionRequest) toInput() (services.TransactionInput, error) {
	cents, err := money.ParseDecimalToCents(r.Amount)
	if err != nil {
		return services.TransactionInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be a positive decimal number")
	}

	var date time.Time
	if r.Date != "" {
		date, err = time.Parse(time.RFC3339, r.Date)
		if err != nil {
			return services.TransactionInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be RFC3339")
		}
	}

	return services.TransactionInput{
		Type:        models.TransactionType(r.Type),
		Title:       r.Title,
		Description: r.Description,
		AmountCents: cents,
		CategoryID:  r.CategoryID,
		Date:        date,
	}, nil
}

// TransactionListQuery binds the list endpoint's query string.
type TransactionListQuery struct {
	pagination.PageRequest
	Q    string `form:"q"`
	Sort string `form:"sort" binding:"omitempty,sort_key"`
}

// Create handles transaction creation
// @Summary     Create a transaction
// @Description Record a new income or expense entry for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction data"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.CreateTransaction(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// List handles listing the user's transactions
// @Summary     List transactions
// @Description List the authenticated user's transactions with optional text filter and sort key
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(50)
// @Param       q query string false "Case-insensitive filter over title, description, and type"
// @Param       sort query string false "Sort key" Enums(date-desc, date-asc, amount-desc, amount-asc)
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid sort key"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	sortKey := listview.DefaultSort
	if query.Sort != "" {
		sortKey = listview.SortKey(query.Sort)
	}

	resp, err := h.transactionService.GetUserTransactions(userID, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Filter and ordering are applied to the fetched page. The store returns
	// newest first, so only non-default keys need a re-sort.
	rows := resp.Data
	if query.Q != "" {
		rows = listview.Filter(rows, query.Q)
	}
	if sortKey != listview.SortDateDesc {
		rows = listview.Sort(rows, sortKey)
	}
	resp.Data = rows

	c.JSON(http.StatusOK, resp)
}

// Get handles fetching a single transaction
// @Summary     Get a transaction
// @Description Get one of the authenticated user's transactions by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// Update handles updating a transaction
// @Summary     Update a transaction
// @Description Update one of the authenticated user's transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction data"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.UpdateTransaction(userID, c.Param("id"), in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// Delete handles deleting a transaction
// @Summary     Delete a transaction
// @Description Delete one of the authenticated user's transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
