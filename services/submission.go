package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"

	"github.com/microcosm-cc/bluemonday"
)

const (
	MsgSubmitSuccess    = "Registro completado exitosamente"
	MsgSubmitFailed     = "Error al procesar el registro"
	MsgSubmitNoResponse = "No se recibió respuesta del servidor"
	MsgSubmitInvalid    = "Revise los campos marcados antes de registrar"
)

var (
	ErrValidation = errors.New("form has validation errors")
	ErrNoResponse = errors.New("backend returned an empty body")
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips any markup from free text and returns plain text
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// BuildPayload converts the flat form bag into the register-complete body.
// Dates are interpreted in loc and sent as UTC ISO-8601.
func BuildPayload(values models.FormValues, loc *time.Location) (backend.RegisterRequest, error) {
	var req backend.RegisterRequest
	if loc == nil {
		loc = time.Local
	}

	dniType, ok := models.ParseDNIType(values.Get(models.FieldDNIType))
	if !ok {
		return req, fmt.Errorf("invalid document type %q", values.Get(models.FieldDNIType))
	}
	dniNumber, err := strconv.ParseInt(values.Get(models.FieldDNINumber), 10, 64)
	if err != nil {
		return req, fmt.Errorf("invalid document number: %w", err)
	}
	entityID, err := strconv.ParseInt(values.Get(models.FieldEntityID), 10, 64)
	if err != nil {
		return req, fmt.Errorf("invalid entity id: %w", err)
	}
	unitID, err := strconv.ParseInt(values.Get(models.FieldAdministrativeUnitID), 10, 64)
	if err != nil {
		return req, fmt.Errorf("invalid administrative unit id: %w", err)
	}

	day, err := ParseDate(values.Get(models.FieldVisitDate), loc)
	if err != nil {
		return req, fmt.Errorf("visit date: %w", err)
	}
	scheduled, err := ParseVisitTime(values.Get(models.FieldVisitDate), values.Get(models.FieldVisitHour), loc)
	if err != nil {
		return req, fmt.Errorf("visit hour: %w", err)
	}

	prefixID := 1
	if p, ok := models.FindPhonePrefix(values.Get(models.FieldContactNumberPrefixID)); ok {
		prefixID = p.ID
	}

	visitType := models.VisitType(values.Get(models.FieldFormType))
	if visitType != models.VisitTypePedestrian {
		visitType = models.VisitTypeVehicle
	}

	req = backend.RegisterRequest{
		DNITypeID:             dniType.ID(),
		DNINumber:             dniNumber,
		FirstName:             sanitizeText(values.Get(models.FieldFirstName)),
		LastName:              sanitizeText(values.Get(models.FieldLastName)),
		ContactNumberPrefixID: prefixID,
		ContactNumber:         strings.TrimSpace(values.Get(models.FieldPhoneNumber)),
		VisitTypeID:           visitType.ID(),
		EntryType:             string(visitType),
		EntityID:              entityID,
		AdministrativeUnitID:  unitID,
		DirectionID:           optionalID(values.Get(models.FieldDirectionID)),
		AreaID:                optionalID(values.Get(models.FieldAreaID)),
		VisitDate:             FormatISO(day),
		VisitHour:             FormatISO(scheduled),
		VisitReason:           sanitizeText(values.Get(models.FieldObservation)),
		Contact:               sanitizeText(values.Get(models.FieldContact)),
		EnterpriseName:        sanitizeText(values.Get(models.FieldEnterpriseName)),
		EnterpriseRIF:         strings.ToUpper(strings.TrimSpace(values.Get(models.FieldEnterpriseRIF))),
		VisitorPhoto:          values.Get(models.FieldVisitorPhoto),
	}

	if visitType == models.VisitTypeVehicle {
		req.VehiclePlate = stringPtr(strings.ToUpper(strings.TrimSpace(values.Get(models.FieldVehiclePlate))))
		req.VehicleModel = stringPtr(sanitizeText(values.Get(models.FieldVehicleModel)))
		req.VehicleBrand = stringPtr(sanitizeText(values.Get(models.FieldVehicleBrand)))
		req.VehicleColor = stringPtr(sanitizeText(values.Get(models.FieldVehicleColor)))
	}

	return req, nil
}

func optionalID(value string) *int64 {
	id, ok := parseSelection(value)
	if !ok {
		return nil
	}
	return &id
}

func stringPtr(s string) *string {
	return &s
}

// Registrar is the backend call that creates the visit
type Registrar interface {
	RegisterComplete(ctx context.Context, req backend.RegisterRequest) (json.RawMessage, error)
}

// Submitter validates the whole wizard, sends it and applies the outcome
type Submitter struct {
	api    Registrar
	store  SessionStore
	schema *Schema
	loc    *time.Location
}

func NewSubmitter(api Registrar, store SessionStore, schema *Schema, loc *time.Location) *Submitter {
	return &Submitter{api: api, store: store, schema: schema, loc: loc}
}

// Submit returns ErrValidation (with errors recorded in the session and the
// wizard moved to the first failing step) when the bag is incomplete. A
// backend failure leaves the wizard untouched apart from an error toast; a
// success resets it. The boolean reports whether the visit was created.
func (s *Submitter) Submit(ctx context.Context, sid string) (*models.Session, bool, error) {
	var payload backend.RegisterRequest
	var buildErr error

	sess, err := s.store.Update(ctx, sid, func(sess *models.Session) error {
		w := NewWizard(&sess.Wizard, s.schema)
		if !w.Validate() {
			w.SetStep(firstFailingStep(sess.Wizard.Errors, sess.Wizard.VisitType))
			sess.Wizard.Notify(models.NotifyError, MsgSubmitInvalid)
			return nil
		}
		payload, buildErr = BuildPayload(sess.Wizard.Values, s.loc)
		if buildErr != nil {
			sess.Wizard.Notify(models.NotifyError, MsgSubmitFailed)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if len(sess.Wizard.Errors) > 0 {
		return sess, false, ErrValidation
	}
	if buildErr != nil {
		log.Printf("[WARNING] Building registration payload failed: %v", buildErr)
		return sess, false, buildErr
	}

	created, apiErr := s.api.RegisterComplete(ctx, payload)
	if apiErr == nil && len(created) == 0 {
		apiErr = ErrNoResponse
	}

	sess, err = s.store.Update(ctx, sid, func(sess *models.Session) error {
		w := NewWizard(&sess.Wizard, s.schema)
		if apiErr != nil {
			msg := backend.MessageOf(apiErr)
			switch {
			case errors.Is(apiErr, ErrNoResponse):
				msg = MsgSubmitNoResponse
			case msg == "":
				msg = MsgSubmitFailed
			}
			sess.Wizard.Notify(models.NotifyError, msg)
			return nil
		}
		w.Reset()
		sess.Wizard.Notify(models.NotifySuccess, MsgSubmitSuccess)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if apiErr != nil {
		log.Printf("[WARNING] Visit registration failed: %v", apiErr)
		return sess, false, nil
	}
	return sess, true, nil
}

// firstFailingStep is the earliest step owning one of the failed fields
func firstFailingStep(errs models.FieldErrors, visitType models.VisitType) models.Step {
	for _, step := range []models.Step{models.StepPersonalInfo, models.StepEnterpriseInfo, models.StepVisitInfo} {
		for _, f := range StepFields(step, visitType) {
			if _, ok := errs[f]; ok {
				return step
			}
		}
	}
	return models.StepSummary
}
