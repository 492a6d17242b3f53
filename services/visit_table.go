package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"visitor_access_go/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	MsgExitSuccess   = "Salida registrada exitosamente"
	MsgExitFailed    = "Error al registrar la salida"
	MsgDeleteSuccess = "Registros eliminados"
	MsgDeleteFailed  = "Error al eliminar los registros"
	MsgLoadFailed    = "Error al cargar las visitas"
	MsgNoneSelected  = "Seleccione al menos un registro"

	// ExitPending is shown in the exit column while the visitor is inside
	ExitPending = "Pendiente"
)

var ErrNothingSelected = errors.New("no visits selected")

// TableStatus is the lifecycle of the visit list
type TableStatus string

const (
	TableIdle    TableStatus = "idle"
	TableLoading TableStatus = "loading"
	TableReady   TableStatus = "ready"
)

// Column keys of the visit table
const (
	ColSelect        = "select"
	ColFullName      = "fullName"
	ColDNI           = "dni"
	ColCompany       = "company"
	ColCompanyRIF    = "companyRif"
	ColPhone         = "phone"
	ColEntity        = "entity"
	ColGerency       = "gerency"
	ColDirection     = "direction"
	ColArea          = "area"
	ColEntryDateTime = "entryDateTime"
	ColExitDate      = "exitDate"
	ColVisitType     = "visitType"
	ColActions       = "actions"
	ColRegisteredBy  = "registered_by"
)

type Column struct {
	Key       string
	Label     string
	Sortable  bool
	AdminOnly bool
}

// VisitColumns is the full column set in display order
var VisitColumns = []Column{
	{Key: ColSelect, AdminOnly: true},
	{Key: ColFullName, Label: "Nombre Completo", Sortable: true},
	{Key: ColDNI, Label: "Cédula", Sortable: true},
	{Key: ColCompany, Label: "Empresa", Sortable: true},
	{Key: ColCompanyRIF, Label: "RIF Empresa", Sortable: true},
	{Key: ColPhone, Label: "Teléfono"},
	{Key: ColEntity, Label: "Entidad", Sortable: true},
	{Key: ColGerency, Label: "Gerencia", Sortable: true},
	{Key: ColDirection, Label: "Dirección", Sortable: true},
	{Key: ColArea, Label: "Área", Sortable: true},
	{Key: ColEntryDateTime, Label: "Fecha de Entrada", Sortable: true},
	{Key: ColExitDate, Label: "Fecha de Salida", Sortable: true},
	{Key: ColVisitType, Label: "Tipo de Visita", Sortable: true},
	{Key: ColActions, Label: "Acciones", AdminOnly: true},
	{Key: ColRegisteredBy, Label: "Registrado por", Sortable: true, AdminOnly: true},
}

// VisibleColumns drops the selection, actions and registered-by columns for
// anyone who is not an administrator.
func VisibleColumns(user *models.User) []Column {
	admin := user.IsAdmin()
	cols := make([]Column, 0, len(VisitColumns))
	for _, c := range VisitColumns {
		if c.AdminOnly && !admin {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func sortableColumn(key string) bool {
	for _, c := range VisitColumns {
		if c.Key == key {
			return c.Sortable
		}
	}
	return false
}

// VisitTypeLabel translates the backend visit type for display and filtering
func VisitTypeLabel(v models.Visit) string {
	if v.IsPedestrian() {
		return "Peatonal"
	}
	return "Vehicular"
}

// DocumentLabel renders "V-12345678", or "" when the document is incomplete
func DocumentLabel(v models.Visit) string {
	t := v.Visitor.DNIType.Abbreviation
	if t == "" || v.Visitor.DNINumber == 0 {
		return ""
	}
	return t + "-" + strconv.FormatInt(v.Visitor.DNINumber, 10)
}

// CellText is the plain text shown in a column. Missing values render as "".
func CellText(v models.Visit, key string) string {
	switch key {
	case ColFullName:
		return v.Visitor.DisplayName()
	case ColDNI:
		return DocumentLabel(v)
	case ColCompany:
		if v.Visitor.Company != nil {
			return v.Visitor.Company.Name
		}
	case ColCompanyRIF:
		if v.Visitor.Company != nil {
			return v.Visitor.Company.RIF
		}
	case ColPhone:
		return v.Visitor.Phone()
	case ColEntity:
		return v.Location.Entity
	case ColGerency:
		return v.Location.AdministrativeUnit
	case ColDirection:
		return v.Location.Direction
	case ColArea:
		return v.Location.Area
	case ColEntryDateTime:
		if t, ok := v.EntryTime(); ok {
			return FormatDisplay(t)
		}
	case ColExitDate:
		if v.HasExited() {
			return FormatDisplay(*v.ExitDate)
		}
		return ExitPending
	case ColVisitType:
		return VisitTypeLabel(v)
	case ColRegisteredBy:
		return string(v.RegisteredBy)
	}
	return ""
}

// lowerSpanish lowercases s; a Caser is stateful so each call gets its own
func lowerSpanish(s string) string {
	return cases.Lower(language.Spanish).String(s)
}

// SearchText is the lowercased haystack the table filter matches against
func SearchText(v models.Visit) string {
	parts := []string{
		v.Visitor.DisplayName(),
		DocumentLabel(v),
		CellText(v, ColCompany),
		CellText(v, ColCompanyRIF),
		v.Visitor.Phone(),
		v.Location.Entity,
		v.Location.AdministrativeUnit,
		v.Location.Direction,
		v.Location.Area,
		VisitTypeLabel(v),
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return lowerSpanish(strings.Join(kept, " "))
}

// FilterVisits keeps the rows whose search text contains every
// whitespace-separated token of query. An empty query keeps all rows.
func FilterVisits(rows []models.Visit, query string) []models.Visit {
	tokens := strings.Fields(lowerSpanish(query))
	if len(tokens) == 0 {
		return append([]models.Visit(nil), rows...)
	}

	out := make([]models.Visit, 0, len(rows))
	for _, v := range rows {
		haystack := SearchText(v)
		match := true
		for _, t := range tokens {
			if !strings.Contains(haystack, t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, v)
		}
	}
	return out
}

// SortVisits orders rows in place by column key. Unknown or unsortable keys
// leave the order unchanged. Text columns use Spanish collation.
func SortVisits(rows []models.Visit, key string, desc bool) {
	if !sortableColumn(key) {
		return
	}

	var less func(a, b models.Visit) bool
	switch key {
	case ColEntryDateTime:
		less = func(a, b models.Visit) bool {
			ta, _ := a.EntryTime()
			tb, _ := b.EntryTime()
			return ta.Before(tb)
		}
	case ColExitDate:
		less = func(a, b models.Visit) bool {
			return exitTime(a).Before(exitTime(b))
		}
	case ColDNI:
		less = func(a, b models.Visit) bool {
			if a.Visitor.DNIType.Abbreviation != b.Visitor.DNIType.Abbreviation {
				return a.Visitor.DNIType.Abbreviation < b.Visitor.DNIType.Abbreviation
			}
			return a.Visitor.DNINumber < b.Visitor.DNINumber
		}
	default:
		col := collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
		less = func(a, b models.Visit) bool {
			return col.CompareString(CellText(a, key), CellText(b, key)) < 0
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

func exitTime(v models.Visit) time.Time {
	if v.HasExited() {
		return *v.ExitDate
	}
	return time.Time{}
}

// TableQuery holds the filter, sort and page requested by the UI
type TableQuery struct {
	Filter string
	Sort   string
	Desc   bool
	Page   int
	Limit  int
}

// TablePage is one rendered page of the visit table
type TablePage struct {
	Rows      []models.Visit
	Total     int
	Filtered  int
	Page      int
	Pages     int
	Limit     int
	Selected  map[int64]bool
	Status    TableStatus
	LastError error
}

// HasPrev and HasNext drive the pagination controls
func (p TablePage) HasPrev() bool { return p.Page > 1 }
func (p TablePage) HasNext() bool { return p.Page < p.Pages }

// SelectedCount reports how many of the selected ids are still in the list
func (p TablePage) SelectedCount() int {
	return len(p.Selected)
}

// VisitSource is the backend surface used by the visit table
type VisitSource interface {
	ListVisits(ctx context.Context) ([]models.Visit, error)
	DeleteVisits(ctx context.Context, ids []int64) error
	DeleteVisit(ctx context.Context, id int64) error
	MarkExit(ctx context.Context, id int64) error
}

// VisitTable is one user's view of the visit list: cached rows, selection
// and fetch status. Filtering, sorting and pagination run over the cache.
type VisitTable struct {
	api      VisitSource
	pageSize int

	mu       sync.RWMutex
	status   TableStatus
	rows     []models.Visit
	selected map[int64]bool
	lastErr  error
	seq      uint64
}

func NewVisitTable(api VisitSource, pageSize int) *VisitTable {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &VisitTable{
		api:      api,
		pageSize: pageSize,
		status:   TableIdle,
		selected: map[int64]bool{},
	}
}

func (t *VisitTable) Status() TableStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *VisitTable) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// Refresh refetches the list. On failure the previous rows stay visible and
// the error is kept in LastError. Only the newest fetch is applied.
func (t *VisitTable) Refresh(ctx context.Context) error {
	t.mu.Lock()
	t.status = TableLoading
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	rows, err := t.api.ListVisits(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq {
		log.Printf("[INFO] Discarded stale visit list response")
		return nil
	}
	t.status = TableReady
	if err != nil {
		log.Printf("[WARNING] Loading visits failed: %v", err)
		t.lastErr = err
		return err
	}
	t.rows = rows
	t.lastErr = nil
	t.pruneSelection()
	return nil
}

// EnsureLoaded fetches the list the first time the table is shown
func (t *VisitTable) EnsureLoaded(ctx context.Context) error {
	if t.Status() != TableIdle {
		return nil
	}
	return t.Refresh(ctx)
}

// pruneSelection drops selected ids that are no longer listed
func (t *VisitTable) pruneSelection() {
	present := make(map[int64]bool, len(t.rows))
	for _, v := range t.rows {
		present[v.ID] = true
	}
	for id := range t.selected {
		if !present[id] {
			delete(t.selected, id)
		}
	}
}

// Rows returns a copy of the cached list
func (t *VisitTable) Rows() []models.Visit {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Visit(nil), t.rows...)
}

// Query filters, sorts and paginates the cached rows
func (t *VisitTable) Query(q TableQuery) TablePage {
	t.mu.RLock()
	rows := FilterVisits(t.rows, q.Filter)
	total := len(t.rows)
	selected := make(map[int64]bool, len(t.selected))
	for id := range t.selected {
		selected[id] = true
	}
	page := TablePage{Total: total, Selected: selected, Status: t.status, LastError: t.lastErr}
	t.mu.RUnlock()

	SortVisits(rows, q.Sort, q.Desc)

	limit := q.Limit
	if limit <= 0 {
		limit = t.pageSize
	}
	pages := (len(rows) + limit - 1) / limit
	if pages == 0 {
		pages = 1
	}
	current := q.Page
	if current < 1 {
		current = 1
	}
	if current > pages {
		current = pages
	}

	start := (current - 1) * limit
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}

	page.Rows = rows[start:end]
	page.Filtered = len(rows)
	page.Page = current
	page.Pages = pages
	page.Limit = limit
	return page
}

// ToggleSelect flips the selection of one listed visit
func (t *VisitTable) ToggleSelect(id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selected[id] {
		delete(t.selected, id)
		return false
	}
	for _, v := range t.rows {
		if v.ID == id {
			t.selected[id] = true
			return true
		}
	}
	return false
}

// SetSelected selects or deselects every listed id in ids
func (t *VisitTable) SetSelected(ids []int64, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if on {
			t.selected[id] = true
		} else {
			delete(t.selected, id)
		}
	}
	t.pruneSelection()
}

func (t *VisitTable) ClearSelection() {
	t.mu.Lock()
	t.selected = map[int64]bool{}
	t.mu.Unlock()
}

// Selected returns the selected visit ids in ascending order
func (t *VisitTable) Selected() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int64, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DeleteSelected removes every selected visit in one request. On success
// the selection is cleared and the list refetched; on failure nothing changes.
func (t *VisitTable) DeleteSelected(ctx context.Context) error {
	ids := t.Selected()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := t.api.DeleteVisits(ctx, ids); err != nil {
		log.Printf("[WARNING] Deleting visits %v failed: %v", ids, err)
		return err
	}
	t.ClearSelection()
	t.refreshAfterMutation(ctx)
	return nil
}

// DeleteOne removes a single visit and refetches on success
func (t *VisitTable) DeleteOne(ctx context.Context, id int64) error {
	if err := t.api.DeleteVisit(ctx, id); err != nil {
		log.Printf("[WARNING] Deleting visit %d failed: %v", id, err)
		return err
	}
	t.mu.Lock()
	delete(t.selected, id)
	t.mu.Unlock()
	t.refreshAfterMutation(ctx)
	return nil
}

// MarkExit asks the backend to stamp the exit time, then refetches so the
// row shows the time the backend recorded.
func (t *VisitTable) MarkExit(ctx context.Context, id int64) error {
	if err := t.api.MarkExit(ctx, id); err != nil {
		log.Printf("[WARNING] Marking exit of visit %d failed: %v", id, err)
		return err
	}
	t.refreshAfterMutation(ctx)
	return nil
}

// refreshAfterMutation refetches after a successful write. A failed refetch
// is already recorded in LastError and does not undo the write.
func (t *VisitTable) refreshAfterMutation(ctx context.Context) {
	_ = t.Refresh(ctx)
}

// TableRegistry hands out one VisitTable per signed-in user
type TableRegistry struct {
	api      VisitSource
	pageSize int

	mu     sync.Mutex
	tables map[string]*VisitTable
}

func NewTableRegistry(api VisitSource, pageSize int) *TableRegistry {
	return &TableRegistry{api: api, pageSize: pageSize, tables: map[string]*VisitTable{}}
}

// For returns the table of key, creating it on first use
func (r *TableRegistry) For(key string) *VisitTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[key]
	if !ok {
		t = NewVisitTable(r.api, r.pageSize)
		r.tables[key] = t
	}
	return t
}

// Forget drops a user's table, typically on logout
func (r *TableRegistry) Forget(key string) {
	r.mu.Lock()
	delete(r.tables, key)
	r.mu.Unlock()
}

// Prune drops the tables whose key alive rejects and returns how many went
func (r *TableRegistry) Prune(alive func(key string) bool) int {
	r.mu.Lock()
	keys := make([]string, 0, len(r.tables))
	for key := range r.tables {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	pruned := 0
	for _, key := range keys {
		if !alive(key) {
			r.Forget(key)
			pruned++
		}
	}
	return pruned
}
