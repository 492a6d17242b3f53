package templates

import (
	"strconv"
	"strings"

	"visitor_access_go/models"
	"visitor_access_go/services"
)

// Layout is the chrome shared by every full page
type Layout struct {
	Title  string
	CSRF   string
	User   *models.User
	Active string
}

type LoginView struct {
	Layout
	Username string
	Error    string
}

// StepInfo is one entry of the wizard progress bar
type StepInfo struct {
	Step    models.Step
	Current bool
	Done    bool
}

// WizardView is the wizard state plus the static option lists it renders
type WizardView struct {
	State         *models.WizardState
	PhotoRequired bool
	PhotoURL      string
	Toasts        []models.Notification
}

func NewWizardView(state *models.WizardState, photoRequired bool) WizardView {
	v := WizardView{State: state, PhotoRequired: photoRequired}
	if key := state.Values.Get(models.FieldVisitorPhoto); services.IsPhotoKey(key) {
		v.PhotoURL = "/photos/" + key
	}
	return v
}

func (v WizardView) Steps() []StepInfo {
	steps := make([]StepInfo, 0, int(models.StepSummary))
	for s := models.StepFormType; s <= models.StepSummary; s++ {
		steps = append(steps, StepInfo{Step: s, Current: s == v.State.Step, Done: s < v.State.Step})
	}
	return steps
}

func (v WizardView) Step() int                      { return int(v.State.Step) }
func (v WizardView) Value(field string) string      { return v.State.Values.Get(field) }
func (v WizardView) Error(field string) string      { return v.State.Errors[field] }
func (v WizardView) IsVehicle() bool                { return v.State.VisitType == models.VisitTypeVehicle }
func (v WizardView) Loading() bool                  { return v.State.Loading() }
func (v WizardView) DNITypes() []models.DNIType     { return models.DNITypes }
func (v WizardView) Prefixes() []models.PhonePrefix { return models.PhonePrefixes }

// FieldView is one labelled input of a wizard step
type FieldView struct {
	Name  string
	Type  string
	Value string
	Error string
}

// Field builds the input named name; inputType is the HTML input type
func (v WizardView) Field(name, inputType string) FieldView {
	return FieldView{Name: name, Type: inputType, Value: v.Value(name), Error: v.Error(name)}
}

// Level builds the view of one location select
func (v WizardView) Level(level string) LocationLevelView {
	return LocationLevelView{Wizard: v, Level: level}
}

// KnownVisitor reports a lookup hit; nil means no lookup ran yet
func (v WizardView) KnownVisitor() bool {
	return v.State.IsNewVisitor != nil && !*v.State.IsNewVisitor
}

func (v WizardView) NewVisitor() bool {
	return v.State.IsNewVisitor != nil && *v.State.IsNewVisitor
}

// Document is the lookup input echoed back, "V-12345678"
func (v WizardView) Document() string {
	t, n := v.Value(models.FieldDNIType), v.Value(models.FieldDNINumber)
	if t == "" || n == "" {
		return ""
	}
	return t + "-" + n
}

// PrefixLabel resolves the stored prefix id to "+58(414)"
func (v WizardView) PrefixLabel() string {
	if p, ok := models.FindPhonePrefix(v.Value(models.FieldContactNumberPrefixID)); ok {
		return p.Label
	}
	return ""
}

func (v WizardView) PrefixSelected(p models.PhonePrefix) bool {
	return v.Value(models.FieldContactNumberPrefixID) == strconv.Itoa(p.ID)
}

// Location levels of the cascade, in order
const (
	LevelEntities   = "entities"
	LevelUnits      = "units"
	LevelDirections = "directions"
	LevelAreas      = "areas"
)

// LocationLevelView pairs the wizard with the select being rendered
type LocationLevelView struct {
	Wizard WizardView
	Level  string
}

// levelField maps a cascade level to its form field
var levelField = map[string]string{
	LevelEntities:   models.FieldEntityID,
	LevelUnits:      models.FieldAdministrativeUnitID,
	LevelDirections: models.FieldDirectionID,
	LevelAreas:      models.FieldAreaID,
}

// LevelField returns the form field of a cascade level, "" when unknown
func LevelField(level string) string { return levelField[level] }

func (l LocationLevelView) Field() string      { return levelField[l.Level] }
func (l LocationLevelView) Value() string      { return l.Wizard.Value(l.Field()) }
func (l LocationLevelView) FieldError() string { return l.Wizard.Error(l.Field()) }

func (l LocationLevelView) Options() []models.Option {
	s := l.Wizard.State
	switch l.Level {
	case LevelEntities:
		return s.Entities
	case LevelUnits:
		return s.AdministrativeUnits
	case LevelDirections:
		return s.Directions
	default:
		return s.Areas
	}
}

// Disabled keeps a child select closed until its parent is chosen
func (l LocationLevelView) Disabled() bool {
	switch l.Level {
	case LevelUnits:
		return l.Wizard.Value(models.FieldEntityID) == ""
	case LevelDirections, LevelAreas:
		return l.Wizard.Value(models.FieldAdministrativeUnitID) == ""
	default:
		return false
	}
}

// Optional levels may be submitted empty
func (l LocationLevelView) Optional() bool {
	return l.Level == LevelDirections || l.Level == LevelAreas
}

func (l LocationLevelView) IsSelected(o models.Option) bool {
	return l.Value() == strconv.FormatInt(o.ID, 10)
}

type VisitsPageView struct {
	Layout
	Table TableView
}

// TableView is one page of the visit table with the query that produced it
type TableView struct {
	Page    services.TablePage
	Query   services.TableQuery
	Columns []services.Column
	User    *models.User
	Toasts  []models.Notification
}

func (v TableView) IsAdmin() bool { return v.User.IsAdmin() }

func (v TableView) IsSelected(id int64) bool { return v.Page.Selected[id] }

func (v TableView) Loading() bool { return v.Page.Status == services.TableLoading }

// AllSelected reports whether every row on the current page is selected
func (v TableView) AllSelected() bool {
	if len(v.Page.Rows) == 0 {
		return false
	}
	for _, r := range v.Page.Rows {
		if !v.Page.Selected[r.ID] {
			return false
		}
	}
	return true
}

// PageIDs lists the ids on the current page for the select-all toggle
func (v TableView) PageIDs() []int64 {
	ids := make([]int64, len(v.Page.Rows))
	for i, r := range v.Page.Rows {
		ids[i] = r.ID
	}
	return ids
}

// IDList is PageIDs joined with commas, for the select-all toggle
func (v TableView) IDList() string {
	parts := make([]string, 0, len(v.Page.Rows))
	for _, r := range v.Page.Rows {
		parts = append(parts, strconv.FormatInt(r.ID, 10))
	}
	return strings.Join(parts, ",")
}

// NextDir is the direction a click on column key sorts by
func (v TableView) NextDir(key string) string {
	if v.Query.Sort == key && !v.Query.Desc {
		return "desc"
	}
	return "asc"
}

// SortMark is the arrow shown next to the sorted column
func (v TableView) SortMark(key string) string {
	if v.Query.Sort != key {
		return ""
	}
	if v.Query.Desc {
		return "▼"
	}
	return "▲"
}

func (v TableView) Dir() string {
	if v.Query.Desc {
		return "desc"
	}
	return "asc"
}

func (v TableView) ErrorMessage() string {
	if v.Page.LastError == nil {
		return ""
	}
	return services.MsgLoadFailed
}

type DashboardPageView struct {
	Layout
	View services.DashboardView
}

func (v DashboardPageView) TimeRanges() []string { return models.TimeRanges }
func (v DashboardPageView) Metrics() []string    { return models.Metrics }

func (v DashboardPageView) TimeRangeLabel(r string) string { return services.TimeRangeLabels[r] }
func (v DashboardPageView) MetricName(m string) string     { return services.MetricLabels[m] }

type StatsPageView struct {
	Layout
	Result *services.StatsResult
}
