package models

// Step identifies one screen of the registration wizard
type Step int

const (
	StepFormType Step = iota + 1
	StepDNISearch
	StepPersonalInfo
	StepEnterpriseInfo
	StepVisitInfo
	StepSummary
)

// Valid reports whether s is one of the six wizard steps
func (s Step) Valid() bool {
	return s >= StepFormType && s <= StepSummary
}

// Form field names. They double as HTML input names and validation keys.
const (
	FieldFormType               = "formType"
	FieldDNIType                = "dniType"
	FieldDNINumber              = "dniNumber"
	FieldFirstName              = "firstName"
	FieldLastName               = "lastName"
	FieldContactNumberPrefixID  = "contactNumberPrefixId"
	FieldPhoneNumber            = "phoneNumber"
	FieldVehiclePlate           = "vehiclePlate"
	FieldVehicleBrand           = "vehicleBrand"
	FieldVehicleModel           = "vehicleModel"
	FieldVehicleColor           = "vehicleColor"
	FieldEnterpriseName         = "enterpriseName"
	FieldEnterpriseRIF          = "enterpriseRif"
	FieldEntityID               = "entityId"
	FieldEntityName             = "entityName"
	FieldAdministrativeUnitID   = "administrativeUnitId"
	FieldAdministrativeUnitName = "administrativeUnitName"
	FieldDirectionID            = "directionId"
	FieldDirectionName          = "directionName"
	FieldAreaID                 = "areaId"
	FieldAreaName               = "areaName"
	FieldContact                = "contact"
	FieldObservation            = "observation"
	FieldVisitDate              = "dateVisit"
	FieldVisitHour              = "dateHourVisit"
	FieldVisitorPhoto           = "visitorPhoto"
)

// VehicleFields are required only when the visit type is vehicle
var VehicleFields = []string{FieldVehiclePlate, FieldVehicleBrand, FieldVehicleModel, FieldVehicleColor}

// FormValues is the flat in-progress form bag keyed by field name
type FormValues map[string]string

// Get returns the value of field or "" when absent
func (v FormValues) Get(field string) string {
	if v == nil {
		return ""
	}
	return v[field]
}

// Set stores value under field, allocating the bag if needed
func (v *FormValues) Set(field, value string) {
	if *v == nil {
		*v = FormValues{}
	}
	(*v)[field] = value
}

// Clear removes the listed fields
func (v FormValues) Clear(fields ...string) {
	for _, f := range fields {
		delete(v, f)
	}
}

// FieldErrors maps field names to a user-facing message
type FieldErrors map[string]string

// Notification levels
const (
	NotifySuccess = "success"
	NotifyError   = "error"
	NotifyInfo    = "info"
)

// Notification is a transient toast queued for the next render
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// WizardState is everything the registration wizard needs between requests
type WizardState struct {
	Step      Step        `json:"step"`
	VisitType VisitType   `json:"visitType,omitempty"`
	Values    FormValues  `json:"values,omitempty"`
	Errors    FieldErrors `json:"errors,omitempty"`

	// IsNewVisitor is set by the document lookup; nil until a lookup ran
	IsNewVisitor *bool `json:"isNewVisitor,omitempty"`

	Entities            []Option `json:"entities,omitempty"`
	AdministrativeUnits []Option `json:"administrativeUnits,omitempty"`
	Directions          []Option `json:"directions,omitempty"`
	Areas               []Option `json:"areas,omitempty"`

	// PendingLoads counts reference fetches in flight
	PendingLoads int `json:"pendingLoads,omitempty"`

	Notifications []Notification `json:"notifications,omitempty"`
}

// NewWizardState returns a wizard positioned on the first step
func NewWizardState() WizardState {
	return WizardState{Step: StepFormType, Values: FormValues{}}
}

// Loading reports whether any reference data request is in flight
func (w *WizardState) Loading() bool {
	return w.PendingLoads > 0
}

// Notify queues a toast
func (w *WizardState) Notify(level, message string) {
	w.Notifications = append(w.Notifications, Notification{Level: level, Message: message})
}

// DrainNotifications returns and clears queued toasts
func (w *WizardState) DrainNotifications() []Notification {
	n := w.Notifications
	w.Notifications = nil
	return n
}

// SetFieldError records a message for field
func (w *WizardState) SetFieldError(field, message string) {
	if w.Errors == nil {
		w.Errors = FieldErrors{}
	}
	w.Errors[field] = message
}

// ClearFieldErrors removes errors for the listed fields
func (w *WizardState) ClearFieldErrors(fields ...string) {
	for _, f := range fields {
		delete(w.Errors, f)
	}
}
