package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func completeValues(visitType models.VisitType) models.FormValues {
	values := models.FormValues{
		models.FieldFormType:              string(visitType),
		models.FieldDNIType:               "V",
		models.FieldDNINumber:             "12345678",
		models.FieldFirstName:             "Juan",
		models.FieldLastName:              "Pérez",
		models.FieldContactNumberPrefixID: "2",
		models.FieldPhoneNumber:           "5551234",
		models.FieldEnterpriseName:        "ACME",
		models.FieldEntityID:              "3",
		models.FieldAdministrativeUnitID:  "7",
		models.FieldContact:               "Maria Lopez",
		models.FieldObservation:           "Reunión",
		models.FieldVisitDate:             "2026-03-10",
		models.FieldVisitHour:             "09:30",
		models.FieldVisitorPhoto:          "visitors/photos/abc_1.jpg",
	}
	if visitType == models.VisitTypeVehicle {
		values[models.FieldVehiclePlate] = "abc123"
		values[models.FieldVehicleBrand] = "Toyota"
		values[models.FieldVehicleModel] = "Corolla"
		values[models.FieldVehicleColor] = "Rojo"
	}
	return values
}

func TestBuildPayloadPedestrian(t *testing.T) {
	req, err := BuildPayload(completeValues(models.VisitTypePedestrian), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, int64(3), req.EntityID)
	assert.Equal(t, int64(7), req.AdministrativeUnitID)
	assert.Nil(t, req.DirectionID)
	assert.Nil(t, req.AreaID)
	assert.Equal(t, 1, req.VisitTypeID)
	assert.Equal(t, 1, req.DNITypeID)
	assert.Equal(t, 2, req.ContactNumberPrefixID)
	assert.Equal(t, "Maria Lopez", req.Contact)
	assert.Equal(t, "2026-03-10T00:00:00.000Z", req.VisitDate)
	assert.Equal(t, "2026-03-10T09:30:00.000Z", req.VisitHour)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Contains(t, decoded, "direction_id")
	assert.Nil(t, decoded["direction_id"])
	assert.Contains(t, decoded, "area_id")
	assert.Nil(t, decoded["area_id"])
	for _, key := range []string{"vehicle_plate", "vehicle_brand", "vehicle_model", "vehicle_color", "enterpriseRif"} {
		assert.NotContains(t, decoded, key)
	}
}

func TestBuildPayloadVehicle(t *testing.T) {
	values := completeValues(models.VisitTypeVehicle)
	values[models.FieldDirectionID] = "11"
	values[models.FieldAreaID] = "22"

	req, err := BuildPayload(values, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 2, req.VisitTypeID)
	assert.Equal(t, "vehicle", req.EntryType)
	require.NotNil(t, req.VehiclePlate)
	assert.Equal(t, "ABC123", *req.VehiclePlate)
	require.NotNil(t, req.DirectionID)
	assert.Equal(t, int64(11), *req.DirectionID)
	require.NotNil(t, req.AreaID)
	assert.Equal(t, int64(22), *req.AreaID)
}

func TestBuildPayloadSanitizesFreeText(t *testing.T) {
	values := completeValues(models.VisitTypePedestrian)
	values[models.FieldFirstName] = "<b>Juan</b>"
	values[models.FieldObservation] = `<script>alert(1)</script>Entrega de equipos`
	values[models.FieldEnterpriseName] = "Pérez & Hijos"

	req, err := BuildPayload(values, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Juan", req.FirstName)
	assert.Equal(t, "Entrega de equipos", req.VisitReason)
	assert.Equal(t, "Pérez & Hijos", req.EnterpriseName)
}

func TestBuildPayloadConvertsTimezone(t *testing.T) {
	caracas := time.FixedZone("VET", -4*60*60)
	req, err := BuildPayload(completeValues(models.VisitTypePedestrian), caracas)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10T13:30:00.000Z", req.VisitHour)
}

func TestBuildPayloadRejectsBadIDs(t *testing.T) {
	values := completeValues(models.VisitTypePedestrian)
	values[models.FieldEntityID] = "abc"
	_, err := BuildPayload(values, time.UTC)
	assert.Error(t, err)
}

func prepareSummary(t *testing.T, store SessionStore, sid string, values models.FormValues) {
	_, err := store.Update(context.Background(), sid, func(s *models.Session) error {
		s.Wizard.Step = models.StepSummary
		s.Wizard.VisitType = models.VisitType(values.Get(models.FieldFormType))
		s.Wizard.Values = values
		s.Wizard.Entities = []models.Option{{ID: 3, Name: "Ministerio"}}
		return nil
	})
	require.NoError(t, err)
}

func TestSubmitSuccessResets(t *testing.T) {
	store, sess := newTestSession(t)
	prepareSummary(t, store, sess.ID, completeValues(models.VisitTypePedestrian))

	api := new(MockBackend)
	api.On("RegisterComplete", mock.Anything, mock.MatchedBy(func(r backend.RegisterRequest) bool {
		return r.EntityID == 3 && r.DirectionID == nil
	})).Return(json.RawMessage(`{"id":41}`), nil)

	got, ok, err := NewSubmitter(api, store, NewSchema(true), time.UTC).Submit(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, models.StepFormType, got.Wizard.Step)
	assert.Empty(t, got.Wizard.Values.Get(models.FieldFirstName))
	assert.Len(t, got.Wizard.Entities, 1)
	require.Len(t, got.Wizard.Notifications, 1)
	assert.Equal(t, models.Notification{Level: models.NotifySuccess, Message: MsgSubmitSuccess}, got.Wizard.Notifications[0])
	api.AssertExpectations(t)
}

func TestSubmitBackendFailureKeepsState(t *testing.T) {
	store, sess := newTestSession(t)
	values := completeValues(models.VisitTypePedestrian)
	prepareSummary(t, store, sess.ID, values)

	api := new(MockBackend)
	api.On("RegisterComplete", mock.Anything, mock.Anything).
		Return(nil, &backend.APIError{Status: 409, Message: "El visitante ya tiene una visita activa"})

	got, ok, err := NewSubmitter(api, store, NewSchema(true), time.UTC).Submit(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, models.StepSummary, got.Wizard.Step)
	assert.Equal(t, values, got.Wizard.Values)
	require.Len(t, got.Wizard.Notifications, 1)
	assert.Equal(t, "El visitante ya tiene una visita activa", got.Wizard.Notifications[0].Message)
}

func TestSubmitTransportFailureUsesFallback(t *testing.T) {
	store, sess := newTestSession(t)
	prepareSummary(t, store, sess.ID, completeValues(models.VisitTypePedestrian))

	api := new(MockBackend)
	api.On("RegisterComplete", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	got, ok, err := NewSubmitter(api, store, NewSchema(true), time.UTC).Submit(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, got.Wizard.Notifications, 1)
	assert.Equal(t, MsgSubmitFailed, got.Wizard.Notifications[0].Message)
}

func TestSubmitEmptyResponse(t *testing.T) {
	store, sess := newTestSession(t)
	prepareSummary(t, store, sess.ID, completeValues(models.VisitTypePedestrian))

	api := new(MockBackend)
	api.On("RegisterComplete", mock.Anything, mock.Anything).Return(json.RawMessage(nil), nil)

	got, ok, err := NewSubmitter(api, store, NewSchema(true), time.UTC).Submit(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, got.Wizard.Notifications, 1)
	assert.Equal(t, MsgSubmitNoResponse, got.Wizard.Notifications[0].Message)
}

func TestSubmitInvalidNeverCallsBackend(t *testing.T) {
	store, sess := newTestSession(t)
	values := completeValues(models.VisitTypeVehicle)
	delete(values, models.FieldVehiclePlate)
	prepareSummary(t, store, sess.ID, values)

	api := new(MockBackend)

	got, ok, err := NewSubmitter(api, store, NewSchema(true), time.UTC).Submit(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, ok)
	assert.Equal(t, models.StepPersonalInfo, got.Wizard.Step)
	assert.Equal(t, MsgVehicleRequired, got.Wizard.Errors[models.FieldVehiclePlate])
	api.AssertNotCalled(t, "RegisterComplete", mock.Anything, mock.Anything)
}
