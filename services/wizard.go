package services

import (
	"errors"
	"strconv"
	"time"

	"visitor_access_go/models"
)

var (
	ErrInvalidStep      = errors.New("invalid wizard step")
	ErrInvalidVisitType = errors.New("invalid visit type")
)

// personalFields are cleared when a lookup reports a new visitor so values
// from an earlier lookup never leak into a fresh registration.
var personalFields = []string{
	models.FieldFirstName,
	models.FieldLastName,
	models.FieldContactNumberPrefixID,
	models.FieldPhoneNumber,
	models.FieldEnterpriseName,
	models.FieldEnterpriseRIF,
}

// Wizard drives one registration wizard. It only mutates the state it was
// given; persisting that state is the caller's job.
type Wizard struct {
	state  *models.WizardState
	schema *Schema
	now    func() time.Time
}

// NewWizard wraps state, repairing an unset step. An empty bag gets
// today's date and the current time as the visit schedule.
func NewWizard(state *models.WizardState, schema *Schema) *Wizard {
	w := &Wizard{state: state, schema: schema, now: time.Now}
	if !state.Step.Valid() {
		state.Step = models.StepFormType
	}
	if len(state.Values) == 0 {
		state.Values = w.defaultValues()
	}
	return w
}

func (w *Wizard) defaultValues() models.FormValues {
	now := w.now()
	return models.FormValues{
		models.FieldVisitDate: now.Format("2006-01-02"),
		models.FieldVisitHour: now.Format("15:04"),
	}
}

func (w *Wizard) State() *models.WizardState {
	return w.state
}

func (w *Wizard) Step() models.Step {
	return w.state.Step
}

func (w *Wizard) VisitType() models.VisitType {
	return w.state.VisitType
}

func (w *Wizard) Loading() bool {
	return w.state.Loading()
}

// SetStep jumps to any valid step. Backward jumps are never gated.
func (w *Wizard) SetStep(step models.Step) error {
	if !step.Valid() {
		return ErrInvalidStep
	}
	w.state.Step = step
	return nil
}

// SelectVisitType writes the tag into the bag and moves to the document
// lookup without validating anything.
func (w *Wizard) SelectVisitType(t models.VisitType) error {
	if !t.Valid() {
		return ErrInvalidVisitType
	}
	w.state.VisitType = t
	w.state.Values.Set(models.FieldFormType, string(t))
	if t != models.VisitTypeVehicle {
		w.state.Values.Clear(models.VehicleFields...)
		w.state.ClearFieldErrors(models.VehicleFields...)
	}
	w.state.Step = models.StepDNISearch
	return nil
}

// Apply copies posted values for the inputs of the current step into the
// bag. Fields that belong to other steps are ignored.
func (w *Wizard) Apply(posted map[string]string) {
	for _, f := range StepFieldNames(w.state.Step) {
		if v, ok := posted[f]; ok {
			w.state.Values.Set(f, v)
		}
	}
}

// Next validates exactly the fields of the step being left. On failure the
// errors are recorded next to each field and the step does not change.
func (w *Wizard) Next() bool {
	step := w.state.Step
	if step == models.StepSummary {
		return false
	}
	if step == models.StepFormType && !w.state.VisitType.Valid() {
		return false
	}

	fields := StepFields(step, w.state.VisitType)
	errs, ok := w.schema.ValidateFields(w.state.Values, fields)
	w.state.ClearFieldErrors(fields...)
	for f, msg := range errs {
		w.state.SetFieldError(f, msg)
	}
	if !ok {
		return false
	}

	w.state.Step = step + 1
	return true
}

// Back moves one step back without validation
func (w *Wizard) Back() {
	if w.state.Step > models.StepFormType {
		w.state.Step--
	}
}

// ApplyLookup pre-fills the bag from a document lookup and moves to the
// personal information step, where every field stays editable.
func (w *Wizard) ApplyLookup(r *LookupResult) {
	values := w.state.Values
	values.Set(models.FieldDNIType, string(r.DNIType))
	values.Set(models.FieldDNINumber, strconv.FormatInt(r.DNINumber, 10))

	isNew := r.IsNewVisitor
	w.state.IsNewVisitor = &isNew

	if r.IsNewVisitor || r.Visitor == nil {
		values.Clear(personalFields...)
	} else {
		v := r.Visitor
		values.Set(models.FieldFirstName, v.FirstName)
		values.Set(models.FieldLastName, v.LastName)
		if v.ContactInfo != nil {
			if p, ok := models.FindPhonePrefix(v.ContactInfo.Prefix); ok {
				values.Set(models.FieldContactNumberPrefixID, strconv.Itoa(p.ID))
			}
			values.Set(models.FieldPhoneNumber, v.ContactInfo.Number)
		}
		if v.Company != nil {
			values.Set(models.FieldEnterpriseName, v.Company.Name)
			if v.Company.RIF != "" {
				values.Set(models.FieldEnterpriseRIF, v.Company.RIF)
			}
		}
	}

	w.state.ClearFieldErrors(StepFieldNames(models.StepPersonalInfo)...)
	w.state.Step = models.StepPersonalInfo
}

// Validate runs the full schema; used before submission
func (w *Wizard) Validate() bool {
	errs, ok := w.schema.ValidateAll(w.state.Values)
	w.state.Errors = nil
	for f, msg := range errs {
		w.state.SetFieldError(f, msg)
	}
	return ok
}

// Reset returns to the type selection with an empty bag. Cached entities
// and queued notifications survive.
func (w *Wizard) Reset() {
	entities := w.state.Entities
	notifications := w.state.Notifications

	*w.state = models.NewWizardState()
	w.state.Values = w.defaultValues()
	w.state.Entities = entities
	w.state.Notifications = notifications
}
