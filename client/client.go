// Package client is the Go SDK for the SpendTrack API. It carries the
// application-side logic: authentication, the session gate, list
// controllers with search and sort, the recent-transaction watcher, and
// the balance and budget views.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "spendtrack/internal/errors"
	"spendtrack/internal/listview"
	"spendtrack/internal/models"
	"spendtrack/internal/pagination"
	"spendtrack/internal/services"
	"spendtrack/internal/validator"
)

// signUpDuplicateMessage is shown instead of the raw conflict error.
const signUpDuplicateMessage = "This email already exists, try logging in."

// APIError is a structured error returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// User is the authenticated account as returned by the API.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Session is the client's view of the current authentication state.
type Session struct {
	Token string
	User  User
}

// Client talks to the SpendTrack API. It is safe for concurrent use; the
// session token is guarded for refresh from multiple goroutines.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	session *Session
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignUp validates the input locally, registers the account, and stores the
// returned session. A duplicate email comes back with a friendlier message.
func (c *Client) SignUp(ctx context.Context, displayName, email, password string) (*Session, error) {
	if !validator.ValidDisplayName(displayName) {
		return nil, &APIError{Code: apperrors.ErrInvalidInput.Code, Message: "Display name must be 3-20 letters, digits, or underscores"}
	}
	if !validator.ValidEmail(email) {
		return nil, &APIError{Code: apperrors.ErrInvalidInput.Code, Message: "Please enter a valid email address"}
	}
	if len(password) < 8 {
		return nil, &APIError{Code: apperrors.ErrInvalidInput.Code, Message: "Password must be at least 8 characters"}
	}

	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"display_name": displayName,
		"email":        email,
		"password":     password,
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if asAPIError(err, &apiErr) && apiErr.Code == apperrors.ErrDuplicateEmail.Code {
			apiErr.Message = signUpDuplicateMessage
			return nil, apiErr
		}
		return nil, err
	}

	session := &Session{Token: resp.Token, User: resp.User}
	c.setSession(session)
	return session, nil
}

// SignIn authenticates and stores the returned session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	session := &Session{Token: resp.Token, User: resp.User}
	c.setSession(session)
	return session, nil
}

// SignOut discards the stored session. The token is stateless, so there is
// nothing to revoke server side.
func (c *Client) SignOut() {
	c.setSession(nil)
}

// GetUser fetches the authenticated user's profile.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// --- categories ---

// CreateCategory creates a category after local name validation.
func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if !validator.ValidCategoryName(name) {
		return nil, &APIError{Code: apperrors.ErrInvalidInput.Code, Message: "Category name must be 2-20 characters"}
	}
	var cat models.Category
	if err := c.do(ctx, http.MethodPost, "/categories", map[string]string{"name": name}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListCategories fetches the user's categories.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var resp pagination.PageResponse[models.Category]
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateCategory renames a category.
func (c *Client) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	var cat models.Category
	if err := c.do(ctx, http.MethodPut, "/categories/"+id, map[string]string{"name": name}, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+id, nil, nil)
}

// --- transactions ---

// TransactionForm carries the user-entered fields for a transaction. Amount
// is the raw decimal text from the form.
type TransactionForm struct {
	Type        string
	Title       string
	Description string
	Amount      string
	CategoryID  string
	Date        time.Time
}

func (f TransactionForm) payload() map[string]string {
	p := map[string]string{
		"type":        f.Type,
		"title":       f.Title,
		"description": f.Description,
		"amount":      f.Amount,
		"category_id": f.CategoryID,
	}
	if !f.Date.IsZero() {
		p["date"] = f.Date.Format(time.RFC3339)
	}
	return p
}

// CreateTransaction records a new transaction.
func (c *Client) CreateTransaction(ctx context.Context, form TransactionForm) (*models.Transaction, error) {
	var txn models.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", form.payload(), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListTransactions fetches all of the user's transactions, newest first.
// The server pages its responses, so the fetch walks every page before
// returning; in-memory search and sort need the complete set.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var rows []models.Transaction
	for page := 1; ; page++ {
		var resp pagination.PageResponse[models.Transaction]
		path := fmt.Sprintf("/transactions?page=%d&page_size=100", page)
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		rows = append(rows, resp.Data...)
		if page >= resp.TotalPages {
			return rows, nil
		}
	}
}

// RecentTransactions fetches the newest transactions up to limit.
func (c *Client) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	var resp pagination.PageResponse[models.Transaction]
	path := fmt.Sprintf("/transactions?page=1&page_size=%d", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SearchTransactions fetches transactions with a server-side filter and sort.
func (c *Client) SearchTransactions(ctx context.Context, q string, sort listview.SortKey) ([]models.Transaction, error) {
	var resp pagination.PageResponse[models.Transaction]
	path := "/transactions?sort=" + url.QueryEscape(string(sort))
	if q != "" {
		path += "&q=" + url.QueryEscape(q)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// UpdateTransaction updates an existing transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id string, form TransactionForm) (*models.Transaction, error) {
	var txn models.Transaction
	if err := c.do(ctx, http.MethodPut, "/transactions/"+id, form.payload(), &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// DeleteTransaction deletes a transaction. A second delete of the same row
// comes back as TRANSACTION_NOT_FOUND; confirmation is the caller's concern.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+id, nil, nil)
}

// --- budgets ---

// CreateBudget sets a spending ceiling on a category. Amount is the raw
// decimal text from the form.
func (c *Client) CreateBudget(ctx context.Context, categoryID, amount string) (*models.Budget, error) {
	var budget models.Budget
	err := c.do(ctx, http.MethodPost, "/budgets", map[string]string{
		"category_id": categoryID,
		"amount":      amount,
	}, &budget)
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// ListBudgets fetches the user's budgets.
func (c *Client) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	var resp pagination.PageResponse[models.Budget]
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteBudget deletes a budget.
func (c *Client) DeleteBudget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/budgets/"+id, nil, nil)
}

// BudgetProgress reports a budget's recomputed spend with its display level.
type BudgetProgress struct {
	services.BudgetProgress
	Level services.ProgressLevel `json:"level"`
}

// GetBudgetProgress fetches the recomputed progress for a budget.
func (c *Client) GetBudgetProgress(ctx context.Context, id string) (*BudgetProgress, error) {
	var progress BudgetProgress
	if err := c.do(ctx, http.MethodGet, "/budgets/"+id+"/progress", nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetBalance fetches the income/expense totals and balance.
func (c *Client) GetBalance(ctx context.Context) (*listview.Totals, error) {
	var totals listview.Totals
	if err := c.do(ctx, http.MethodGet, "/summary/balance", nil, &totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

// --- transport ---

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Code != "" {
		envelope.Error.Status = resp.StatusCode
		return &envelope.Error
	}

	// Middleware rejections use a plain {"error": "..."} shape.
	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &plain); err == nil && plain.Error != "" {
		return &APIError{Code: apperrors.ErrUnauthorized.Code, Message: plain.Error, Status: resp.StatusCode}
	}

	return &APIError{Code: "HTTP_ERROR", Message: resp.Status, Status: resp.StatusCode}
}

func asAPIError(err error, target **APIError) bool {
	apiErr, ok := err.(*APIError)
	if ok {
		*target = apiErr
	}
	return ok
}
