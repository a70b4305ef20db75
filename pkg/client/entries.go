package client

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"kaskecil/pkg/lifecycle"
)

const dateLayout = "2006-01-02"

// DefaultDebounce is how long a search query waits for further keystrokes.
const DefaultDebounce = 500 * time.Millisecond

// Entry is one row of a combined draft and transaction list.
type Entry struct {
	ID          string
	IsDraft     bool
	Category    lifecycle.Category
	Amount      int64
	Description string
	Date        time.Time
	CreatedAt   time.Time
	BudgetItem  *BudgetItem

	// Set for drafts only.
	Status    lifecycle.Status
	Disbursed bool

	Draft       *Draft
	Transaction *Transaction
}

// LifecycleItem returns the view of e the lifecycle rules operate on.
func (e Entry) LifecycleItem() lifecycle.Item {
	return lifecycle.Item{
		IsDraft:   e.IsDraft,
		Status:    e.Status,
		Category:  e.Category,
		Disbursed: e.Disbursed,
		FromDraft: e.Transaction != nil && e.Transaction.DraftID != nil,
	}
}

// Actions lists what role may do with e.
func (e Entry) Actions(role lifecycle.Role) []lifecycle.Action {
	return lifecycle.AvailableActions(role, e.LifecycleItem())
}

func draftEntry(d *Draft) Entry {
	return Entry{
		ID:          d.ID,
		IsDraft:     true,
		Category:    d.Category,
		Amount:      d.Amount,
		Description: d.Description,
		Date:        d.Date,
		CreatedAt:   d.CreatedAt,
		BudgetItem:  d.BudgetItem,
		Status:      d.Status,
		Disbursed:   d.DisbursedAt != nil,
		Draft:       d,
	}
}

func transactionEntry(t *Transaction) Entry {
	return Entry{
		ID:          t.ID,
		Category:    t.Category,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		BudgetItem:  t.BudgetItem,
		Transaction: t,
	}
}

// Merge combines drafts and transactions into one list, newest first.
// A draft already promoted into one of the listed transactions is dropped,
// and no id appears twice.
func Merge(drafts []Draft, transactions []Transaction) []Entry {
	listed := make(map[string]bool, len(transactions))
	promoted := make(map[string]bool)
	for _, t := range transactions {
		listed[t.ID] = true
		if t.DraftID != nil {
			promoted[*t.DraftID] = true
		}
	}

	seen := make(map[string]bool, len(drafts)+len(transactions))
	entries := make([]Entry, 0, len(drafts)+len(transactions))
	for i := range transactions {
		t := &transactions[i]
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		entries = append(entries, transactionEntry(t))
	}
	for i := range drafts {
		d := &drafts[i]
		if seen[d.ID] || promoted[d.ID] {
			continue
		}
		if d.TransactionID != nil && listed[*d.TransactionID] {
			continue
		}
		seen[d.ID] = true
		entries = append(entries, draftEntry(d))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// DateGroup is the entries of one calendar day.
type DateGroup struct {
	Date    time.Time
	Entries []Entry
}

// Label formats the group day as YYYY-MM-DD.
func (g DateGroup) Label() string { return g.Date.Format(dateLayout) }

// GroupByDate buckets entries per calendar day, newest day first. Entries
// keep their relative order inside a day.
func GroupByDate(entries []Entry) []DateGroup {
	index := make(map[string]int)
	var groups []DateGroup
	for _, e := range entries {
		y, m, d := e.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, e.Date.Location())
		key := day.Format(dateLayout)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: day})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date.After(groups[j].Date)
	})
	return groups
}

// Filter holds the search, status and date-range axes of a list.
type Filter struct {
	Query        string
	Status       lifecycle.Status
	Category     lifecycle.Category
	BranchID     string
	UnitID       string
	BudgetItemID string
	Start        time.Time
	End          time.Time
	Undisbursed  bool
}

// ForMonth returns f limited to one calendar month.
func (f Filter) ForMonth(year int, month time.Month) Filter {
	f.Start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	f.End = f.Start.AddDate(0, 1, -1)
	return f
}

// Between returns f limited to [start, end].
func (f Filter) Between(start, end time.Time) Filter {
	f.Start, f.End = start, end
	return f
}

// Values encodes f as list query parameters.
func (f Filter) Values() url.Values {
	q := url.Values{}
	setIf(q, "q", f.Query)
	setIf(q, "status", string(f.Status))
	setIf(q, "category", string(f.Category))
	setIf(q, "branch_id", f.BranchID)
	setIf(q, "unit_id", f.UnitID)
	setIf(q, "budget_item_id", f.BudgetItemID)
	setDate(q, "start_date", f.Start)
	setDate(q, "end_date", f.End)
	if f.Undisbursed {
		q.Set("belum_cair", "true")
	}
	return q
}

func (f Filter) withPage(page, perPage int) url.Values {
	q := f.Values()
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	return q
}

// Debouncer delays a call until input has been quiet for a while. Only the
// last value of a burst is delivered.
type Debouncer struct {
	delay time.Duration
	fn    func(string)

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer calls fn with the last triggered value once delay has passed
// without another trigger. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn(value), cancelling any pending call.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fn(value) })
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// PageFunc fetches one page by number, starting at 1.
type PageFunc[T any] func(ctx context.Context, page int) (*Page[T], error)

// Pager accumulates pages for "load more" lists.
type Pager[T any] struct {
	fetch PageFunc[T]
	items []T
	next  int
	done  bool
	total int64
}

// NewPager creates a pager that starts at page 1.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, next: 1}
}

// LoadMore fetches the next page and returns its items. It returns nil once
// the last page has been loaded. A failed fetch can be retried by calling
// LoadMore again.
func (p *Pager[T]) LoadMore(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}
	page, err := p.fetch(ctx, p.next)
	if err != nil {
		return nil, err
	}
	p.items = append(p.items, page.Data...)
	if page.Meta != nil {
		p.total = page.Meta.Total
	}
	p.next++
	if !page.HasNext() || len(page.Data) == 0 {
		p.done = true
	}
	return page.Data, nil
}

// Items returns everything loaded so far.
func (p *Pager[T]) Items() []T { return p.items }

// HasMore reports whether LoadMore may return further items.
func (p *Pager[T]) HasMore() bool { return !p.done }

// Total is the server-side count reported by the last page.
func (p *Pager[T]) Total() int64 { return p.total }

// Reset drops loaded items so the next LoadMore starts at page 1 again.
func (p *Pager[T]) Reset() {
	p.items, p.next, p.done, p.total = nil, 1, false, 0
}
