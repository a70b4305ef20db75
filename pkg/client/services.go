package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kaskecil/pkg/lifecycle"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// LoginResult is a successful sign-in. Persisted yields the outcome of
// writing the new session to its store.
type LoginResult struct {
	User      *User
	Persisted <-chan error
}

// AuthService covers sign-in, token rotation and the own profile.
type AuthService struct {
	c *Client
}

// Login exchanges credentials for tokens and stores them in the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	if err := s.c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return s.accept(resp)
}

// Refresh rotates the token pair using the session's refresh token.
func (s *AuthService) Refresh(ctx context.Context) (*LoginResult, error) {
	token := s.c.session.RefreshToken()
	if token == "" {
		return nil, &ValidationError{Field: "refresh_token", Message: "Sesi telah berakhir, silakan masuk kembali"}
	}
	var resp tokenResponse
	if err := s.c.do(ctx, http.MethodPost, "/auth/refresh", nil, map[string]string{"refresh_token": token}, &resp); err != nil {
		return nil, err
	}
	return s.accept(resp)
}

func (s *AuthService) accept(resp tokenResponse) (*LoginResult, error) {
	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: token response without token or user", ErrMalformedResponse)
	}
	persisted := s.c.session.Set(SessionData{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	})
	return &LoginResult{User: resp.User, Persisted: persisted}, nil
}

// Logout revokes the refresh token on the server and clears the session.
// The session is cleared even when the request fails.
func (s *AuthService) Logout(ctx context.Context) (<-chan error, error) {
	err := s.c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	return s.c.session.Clear(), err
}

// Profile returns the signed-in user as the server sees it.
func (s *AuthService) Profile(ctx context.Context) (*User, error) {
	return getOne[User](ctx, s.c, http.MethodGet, "/profile", nil, "user")
}

// ChangePassword changes the own password.
func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return &ValidationError{Field: "new_password", Message: "Kata sandi baru minimal 8 karakter"}
	}
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return s.c.do(ctx, http.MethodPut, "/profile/password", nil, body, nil)
}

func entryFields(in EntryInput) map[string]string {
	fields := map[string]string{
		"budget_item_id": in.BudgetItemID,
		"category":       string(in.Category),
		"amount":         strconv.FormatInt(in.Amount, 10),
	}
	if in.Description != "" {
		fields["description"] = in.Description
	}
	if in.Date != "" {
		fields["date"] = in.Date
	}
	return fields
}

func validateEntry(in EntryInput) error {
	if in.Amount <= 0 {
		return &ValidationError{Field: "amount", Message: "Nominal harus lebih dari 0"}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Message: "Kategori tidak dikenal"}
	}
	if in.BudgetItemID == "" {
		return &ValidationError{Field: "budget_item_id", Message: "Mata anggaran wajib diisi"}
	}
	return nil
}

// TransactionsService manages realized transactions.
type TransactionsService struct {
	c *Client
}

// List returns one page of transactions matching f.
func (s *TransactionsService) List(ctx context.Context, f Filter, page, perPage int) (*Page[Transaction], error) {
	return getPage[Transaction](ctx, s.c, "/transactions", f.withPage(page, perPage))
}

// Get returns a single transaction.
func (s *TransactionsService) Get(ctx context.Context, id string) (*Transaction, error) {
	return getOne[Transaction](ctx, s.c, http.MethodGet, "/transactions/"+url.PathEscape(id), nil, "transaction")
}

// Create records a transaction. Files are uploaded as lampiran.
func (s *TransactionsService) Create(ctx context.Context, in EntryInput, files ...string) (*Transaction, error) {
	if err := validateEntry(in); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return getOne[Transaction](ctx, s.c, http.MethodPost, "/transactions", in, "transaction")
	}
	return uploadOne[Transaction](ctx, s.c, "/transactions", entryFields(in), files, "transaction")
}

// Update changes the description or date of a transaction.
func (s *TransactionsService) Update(ctx context.Context, id string, in TransactionUpdate) (*Transaction, error) {
	return getOne[Transaction](ctx, s.c, http.MethodPut, "/transactions/"+url.PathEscape(id), in, "transaction")
}

// Delete removes a transaction and reverses its balance effect.
func (s *TransactionsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil, nil)
}

// DraftsService manages drafts and their approval workflow.
type DraftsService struct {
	c *Client
}

// List returns one page of drafts matching f.
func (s *DraftsService) List(ctx context.Context, f Filter, page, perPage int) (*Page[Draft], error) {
	return getPage[Draft](ctx, s.c, "/drafts", f.withPage(page, perPage))
}

// Get returns a single draft.
func (s *DraftsService) Get(ctx context.Context, id string) (*Draft, error) {
	return getOne[Draft](ctx, s.c, http.MethodGet, s.path(id, ""), nil, "draft")
}

// Create saves a new draft. Files are uploaded as lampiran.
func (s *DraftsService) Create(ctx context.Context, in EntryInput, files ...string) (*Draft, error) {
	if err := validateEntry(in); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return getOne[Draft](ctx, s.c, http.MethodPost, "/drafts", in, "draft")
	}
	return uploadOne[Draft](ctx, s.c, "/drafts", entryFields(in), files, "draft")
}

// Update edits a draft. A rejected draft returns to draft status.
func (s *DraftsService) Update(ctx context.Context, id string, in DraftUpdate) (*Draft, error) {
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "Nominal harus lebih dari 0"}
	}
	return getOne[Draft](ctx, s.c, http.MethodPut, s.path(id, ""), in, "draft")
}

// Delete removes a draft that is still draft or rejected.
func (s *DraftsService) Delete(ctx context.Context, id string) error {
	return s.c.do(ctx, http.MethodDelete, s.path(id, ""), nil, nil, nil)
}

// Submit sends a draft for approval.
func (s *DraftsService) Submit(ctx context.Context, id string) (*Draft, error) {
	return getOne[Draft](ctx, s.c, http.MethodPost, s.path(id, "/submit"), nil, "draft")
}

// Approve approves a pending draft with an optional note.
func (s *DraftsService) Approve(ctx context.Context, id, note string) (*Draft, error) {
	var body any
	if note != "" {
		body = map[string]string{"catatan_approval": note}
	}
	return getOne[Draft](ctx, s.c, http.MethodPost, s.path(id, "/approve"), body, "draft")
}

// Reject rejects a pending draft. An empty reason is refused locally
// without contacting the server.
func (s *DraftsService) Reject(ctx context.Context, id, reason string) (*Draft, error) {
	reason, err := lifecycle.ValidateRejectReason(reason)
	if err != nil {
		return nil, &ValidationError{Field: "catatan_approval", Message: "Alasan penolakan wajib diisi", Err: err}
	}
	body := map[string]string{"catatan_approval": reason}
	return getOne[Draft](ctx, s.c, http.MethodPost, s.path(id, "/reject"), body, "draft")
}

// Disburse (cairkan) turns an approved top-up draft into a transaction.
func (s *DraftsService) Disburse(ctx context.Context, id string) (*Draft, error) {
	return getOne[Draft](ctx, s.c, http.MethodPost, s.path(id, "/cairkan"), nil, "draft")
}

func (s *DraftsService) path(id, action string) string {
	return "/drafts/" + url.PathEscape(id) + action
}

// ListOptions filters master-data lists.
type ListOptions struct {
	Query     string
	BranchID  string
	UnitID    string
	AccountID string
	IsActive  *bool
	Page      int
	PerPage   int
}

func (o ListOptions) values() url.Values {
	q := pageQuery(o.Page, o.PerPage)
	setIf(q, "q", o.Query)
	setIf(q, "branch_id", o.BranchID)
	setIf(q, "unit_id", o.UnitID)
	setIf(q, "account_id", o.AccountID)
	if o.IsActive != nil {
		q.Set("is_active", strconv.FormatBool(*o.IsActive))
	}
	return q
}

// Resource is a plain CRUD endpoint returning T and accepting In.
type Resource[T, In any] struct {
	c    *Client
	path string
	key  string
}

// List returns one page of the resource.
func (r *Resource[T, In]) List(ctx context.Context, opts ListOptions) (*Page[T], error) {
	return getPage[T](ctx, r.c, r.path, opts.values())
}

// Get returns one item by id.
func (r *Resource[T, In]) Get(ctx context.Context, id string) (*T, error) {
	return getOne[T](ctx, r.c, http.MethodGet, r.path+"/"+url.PathEscape(id), nil, r.key)
}

// Create creates an item.
func (r *Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	return getOne[T](ctx, r.c, http.MethodPost, r.path, in, r.key)
}

// Update changes the fields set in in.
func (r *Resource[T, In]) Update(ctx context.Context, id string, in In) (*T, error) {
	return getOne[T](ctx, r.c, http.MethodPut, r.path+"/"+url.PathEscape(id), in, r.key)
}

// Delete removes an item.
func (r *Resource[T, In]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, http.MethodDelete, r.path+"/"+url.PathEscape(id), nil, nil, nil)
}

// ReportScope narrows a report to part of the organisation.
type ReportScope struct {
	BranchID     string
	UnitID       string
	BudgetItemID string
}

func (s ReportScope) apply(q url.Values) {
	setIf(q, "branch_id", s.BranchID)
	setIf(q, "unit_id", s.UnitID)
	setIf(q, "budget_item_id", s.BudgetItemID)
}

// ReportsService reads the dashboard and transaction reports.
type ReportsService struct {
	c *Client
}

// Dashboard returns the summary for [start, end]. Zero times let the server
// default to the current month.
func (s *ReportsService) Dashboard(ctx context.Context, start, end time.Time) (*Dashboard, error) {
	q := url.Values{}
	setDate(q, "start_date", start)
	setDate(q, "end_date", end)
	var d Dashboard
	if err := s.c.do(ctx, http.MethodGet, "/dashboard", q, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// TransactionReport returns the ledger of [start, end] as data.
func (s *ReportsService) TransactionReport(ctx context.Context, start, end time.Time, scope ReportScope) (*TransactionReport, error) {
	if err := checkPeriod(start, end); err != nil {
		return nil, err
	}
	q := url.Values{"format": {"json"}}
	setDate(q, "start_date", start)
	setDate(q, "end_date", end)
	scope.apply(q)
	var r TransactionReport
	if err := s.c.do(ctx, http.MethodGet, "/reports/transactions", q, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// TransactionReportURL builds a link that opens the CSV report in a browser.
// It carries the current access token.
func (s *ReportsService) TransactionReportURL(start, end time.Time) (string, error) {
	if err := checkPeriod(start, end); err != nil {
		return "", err
	}
	token := s.c.session.AccessToken()
	if token == "" {
		return "", &ValidationError{Field: "token", Message: "Silakan masuk terlebih dahulu"}
	}
	q := url.Values{"token": {token}}
	setDate(q, "start_date", start)
	setDate(q, "end_date", end)
	return s.c.endpoint("/reports/transactions", q), nil
}

func checkPeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &ValidationError{Field: "period", Message: "Tanggal awal dan akhir wajib diisi"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "period", Message: "Tanggal akhir tidak boleh sebelum tanggal awal"}
	}
	return nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setDate(q url.Values, key string, t time.Time) {
	if !t.IsZero() {
		q.Set(key, t.Format(dateLayout))
	}
}
