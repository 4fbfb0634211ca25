package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/model"
	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/store"
)

const dateLayout = "2006-01-02"

type suggestionView struct {
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
	Distance int    `json:"distance"`
}

type transactionView struct {
	ID         int             `json:"id"`
	Date       string          `json:"date,omitempty"`
	Details    string          `json:"details"`
	Amount     decimal.Decimal `json:"amount"`
	Type       string          `json:"type"`
	Category   string          `json:"category"`
	Source     string          `json:"source,omitempty"`
	Line       int             `json:"line,omitempty"`
	Suggestion *suggestionView `json:"suggestion,omitempty"`
}

// CategorySummary is one aggregated row. Budget fields are omitted when
// budgeting is off.
type CategorySummary struct {
	Category    string           `json:"category"`
	Count       int              `json:"count"`
	Amount      decimal.Decimal  `json:"amount"`
	Budget      *decimal.Decimal `json:"budget,omitempty"`
	Remaining   *decimal.Decimal `json:"remaining,omitempty"`
	PercentUsed *decimal.Decimal `json:"percent_used,omitempty"`
}

// Summary is served at /v1/summary.
type Summary struct {
	Currency    string            `json:"currency"`
	Rows        int               `json:"rows"`
	DebitRows   int               `json:"debit_rows"`
	CreditRows  int               `json:"credit_rows"`
	DebitTotal  decimal.Decimal   `json:"debit_total"`
	CreditTotal decimal.Decimal   `json:"credit_total"`
	BudgetTotal *decimal.Decimal  `json:"budget_total,omitempty"`
	Net         decimal.Decimal   `json:"net"`
	FirstDate   string            `json:"first_date,omitempty"`
	LastDate    string            `json:"last_date,omitempty"`
	Categories  []CategorySummary `json:"categories"`
}

type paymentsView struct {
	Currency string            `json:"currency"`
	Total    decimal.Decimal   `json:"total"`
	Payments []transactionView `json:"payments"`
}

// UploadResult describes an accepted upload.
type UploadResult struct {
	UploadID string `json:"upload_id"`
	File     string `json:"file"`
	Rows     int    `json:"rows"`
	Debits   int    `json:"debits"`
	Credits  int    `json:"credits"`
}

type categoryEntry struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

type budgetEntry struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type budgetsView struct {
	Budgets []budgetEntry `json:"budgets"`
	Unsaved bool          `json:"unsaved"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// categoryParam returns the unescaped {name} route segment. chi matches on
// the raw path, so a name containing "/" arrives still percent-encoded.
func categoryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid category name: %v", err))
		return "", false
	}
	return name, true
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func viewTransactions(txs []model.Transaction, res pipeline.Result) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		v := transactionView{
			ID:       tx.ID,
			Date:     formatDate(tx.Date),
			Details:  tx.Details,
			Amount:   tx.Amount,
			Type:     tx.Polarity.String(),
			Category: tx.Category,
			Source:   tx.Source,
			Line:     tx.Line,
		}
		if sg, ok := res.SuggestionFor(tx.ID); ok {
			v.Suggestion = &suggestionView{Category: sg.Category, Keyword: sg.Keyword, Distance: sg.Distance}
		}
		out = append(out, v)
	}
	return out
}

func viewSummary(res pipeline.Result, budgeting bool, currency string) Summary {
	sum := res.Summary
	v := Summary{
		Currency:    currency,
		Rows:        sum.Rows,
		DebitRows:   sum.DebitRows,
		CreditRows:  sum.CreditRows,
		DebitTotal:  sum.DebitTotal,
		CreditTotal: sum.CreditTotal,
		Net:         sum.Net(),
		FirstDate:   formatDate(sum.FirstDate),
		LastDate:    formatDate(sum.LastDate),
		Categories:  make([]CategorySummary, 0, len(res.Totals)),
	}
	if budgeting {
		bt := sum.BudgetTotal
		v.BudgetTotal = &bt
	}
	for _, ct := range res.Totals {
		cv := CategorySummary{Category: ct.Category, Count: ct.Count, Amount: ct.Amount}
		if budgeting {
			cv.Budget, cv.Remaining, cv.PercentUsed = &ct.Budget, &ct.Remaining, &ct.PercentUsed
		}
		v.Categories = append(v.Categories, cv)
	}
	return v
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxUploadMB)<<20)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MB", s.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer func() { _ = file.Close() }()

	lr, err := pipeline.LoadReader(file, hdr.Filename)
	if err != nil {
		s.log.Warn("upload rejected", "file", hdr.Filename, "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	s.session.SetLoad(lr)
	res := s.session.Result()
	s.uploadID = uuid.NewString()
	s.uploadedAt = time.Now()
	v := UploadResult{
		UploadID: s.uploadID,
		File:     hdr.Filename,
		Rows:     len(res.Transactions),
		Debits:   len(res.Debits),
		Credits:  len(res.Credits),
	}
	s.mu.Unlock()

	s.publish(EventUpload, v)
	writeJSON(w, http.StatusCreated, v)
}

// loaded reports whether a statement is present, writing a 409 when not.
// Callers hold s.mu.
func (s *Service) loaded(w http.ResponseWriter) bool {
	if !s.session.Loaded() {
		writeError(w, http.StatusConflict, "no statement uploaded")
		return false
	}
	return true
}

func (s *Service) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded(w) {
		return
	}
	res := s.session.Result()

	txs := res.Transactions
	switch strings.ToLower(r.URL.Query().Get("type")) {
	case "":
	case "debit":
		txs = res.Debits
	case "credit":
		txs = res.Credits
	default:
		writeError(w, http.StatusBadRequest, `type must be "debit" or "credit"`)
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		txs = pipeline.FilterByCategory(txs, cat)
	}
	writeJSON(w, http.StatusOK, viewTransactions(txs, res))
}

func (s *Service) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded(w) {
		return
	}
	writeJSON(w, http.StatusOK, viewSummary(s.session.Result(), s.session.Budgeting(), s.cfg.Currency))
}

func (s *Service) handlePayments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded(w) {
		return
	}
	res := s.session.Result()
	writeJSON(w, http.StatusOK, paymentsView{
		Currency: s.cfg.Currency,
		Total:    res.Summary.CreditTotal,
		Payments: viewTransactions(res.Credits, res),
	})
}

func (s *Service) handleEdits(w http.ResponseWriter, r *http.Request) {
	var edits []pipeline.Edit
	if err := decodeJSON(r, &edits); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if !s.loaded(w) {
		s.mu.Unlock()
		return
	}
	res, err := s.session.ApplyEdits(edits)
	s.mu.Unlock()

	switch {
	case errors.Is(err, pipeline.ErrUnknownTransaction), errors.Is(err, store.ErrUnknownCategory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil && res.Applied == 0:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case err != nil:
		s.log.Error("keywords not saved", "err", err)
	}
	if res.Learned == nil {
		res.Learned = []pipeline.Learned{}
	}
	if res.Applied > 0 {
		s.publish(EventEdits, res)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	cats := s.session.Store().Categories()
	s.mu.Unlock()

	out := make([]categoryEntry, 0, len(cats))
	for _, c := range cats {
		kws := c.Keywords
		if kws == nil {
			kws = []string{}
		}
		out = append(out, categoryEntry{Name: c.Name, Keywords: kws})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.mu.Lock()
	added, err := s.session.AddCategory(name)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
		s.publish(EventCategoryAdded, map[string]string{"name": name})
	}
	writeJSON(w, status, map[string]any{"name": name, "added": added})
}

func (s *Service) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	name, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	if !s.session.Store().Has(name) {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", name))
		return
	}
	learned, err := s.session.AddKeyword(name, req.Keyword)
	keywords := s.session.Store().Keywords(name)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	kw := strings.TrimSpace(req.Keyword)
	if learned {
		s.publish(EventKeywordAdded, pipeline.Learned{Category: name, Keyword: kw})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": name,
		"keyword":  kw,
		"learned":  learned,
		"keywords": keywords,
	})
}

func (s *Service) budgets() budgetsView {
	st := s.session.Store()
	bs := st.Budgets()
	v := budgetsView{Budgets: make([]budgetEntry, 0, len(bs)), Unsaved: st.Dirty()}
	for _, b := range bs {
		v.Budgets = append(v.Budgets, budgetEntry{Category: b.Category, Amount: b.Amount})
	}
	return v
}

func (s *Service) handleBudgets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	v := s.budgets()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	name, ok := categoryParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount *decimal.Decimal `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	s.mu.Lock()
	err := s.session.SetBudget(name, *req.Amount)
	s.mu.Unlock()
	switch {
	case errors.Is(err, store.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, store.ErrNegativeBudget):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry := budgetEntry{Category: name, Amount: *req.Amount}
	s.publish(EventBudgetSet, entry)
	writeJSON(w, http.StatusOK, entry)
}

func (s *Service) handleSaveBudgets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	err := s.session.SaveBudgets()
	v := s.budgets()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.publish(EventBudgetsSaved, map[string]int{"budgets": len(v.Budgets)})
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.recentEvents())
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Current state first so clients need no separate status call.
	if err := writeSSE(w, Event{Type: EventStatus, Timestamp: time.Now(), Data: s.status()}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
