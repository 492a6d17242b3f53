package services

import (
	"testing"
	"time"

	"visitor_access_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWizard() (*Wizard, *models.WizardState) {
	state := models.NewWizardState()
	return NewWizard(&state, NewSchema(true)), &state
}

func fillPersonal(values models.FormValues) {
	values[models.FieldFirstName] = "Juan"
	values[models.FieldLastName] = "Pérez"
	values[models.FieldDNIType] = "V"
	values[models.FieldDNINumber] = "12345678"
	values[models.FieldContactNumberPrefixID] = "2"
	values[models.FieldPhoneNumber] = "5551234"
}

func TestNewWizardDefaults(t *testing.T) {
	var state models.WizardState
	w := NewWizard(&state, NewSchema(true))

	assert.Equal(t, models.StepFormType, w.Step())
	_, err := time.Parse(DateLayout, state.Values.Get(models.FieldVisitDate))
	assert.NoError(t, err)
	_, err = time.Parse(HourLayout, state.Values.Get(models.FieldVisitHour))
	assert.NoError(t, err)
}

func TestSelectVisitType(t *testing.T) {
	w, state := newTestWizard()

	assert.ErrorIs(t, w.SelectVisitType("bicycle"), ErrInvalidVisitType)
	assert.Equal(t, models.StepFormType, w.Step())

	require.NoError(t, w.SelectVisitType(models.VisitTypeVehicle))
	assert.Equal(t, models.StepDNISearch, w.Step())
	assert.Equal(t, models.VisitTypeVehicle, w.VisitType())
	assert.Equal(t, "vehicle", state.Values.Get(models.FieldFormType))
}

func TestSwitchingToPedestrianDropsVehicleValues(t *testing.T) {
	w, state := newTestWizard()
	require.NoError(t, w.SelectVisitType(models.VisitTypeVehicle))
	state.Values.Set(models.FieldVehiclePlate, "ABC")
	state.SetFieldError(models.FieldVehiclePlate, MsgVehiclePlateMin)

	w.Back()
	require.NoError(t, w.SelectVisitType(models.VisitTypePedestrian))
	for _, f := range models.VehicleFields {
		assert.NotContains(t, state.Values, f)
	}
	assert.NotContains(t, state.Errors, models.FieldVehiclePlate)

	for k, v := range completeValues(models.VisitTypePedestrian) {
		state.Values.Set(k, v)
	}
	assert.True(t, w.Validate())
	assert.Empty(t, state.Errors)
}

func TestSetStep(t *testing.T) {
	w, _ := newTestWizard()

	assert.ErrorIs(t, w.SetStep(models.Step(7)), ErrInvalidStep)
	assert.ErrorIs(t, w.SetStep(models.Step(0)), ErrInvalidStep)

	require.NoError(t, w.SetStep(models.StepSummary))
	require.NoError(t, w.SetStep(models.StepFormType))
	assert.Equal(t, models.StepFormType, w.Step())
}

func TestNextBlocksOnInvalidFields(t *testing.T) {
	w, state := newTestWizard()
	require.NoError(t, w.SelectVisitType(models.VisitTypePedestrian))
	require.NoError(t, w.SetStep(models.StepPersonalInfo))

	assert.False(t, w.Next())
	assert.Equal(t, models.StepPersonalInfo, w.Step())
	assert.Equal(t, MsgFirstNameMin, state.Errors[models.FieldFirstName])
	assert.NotContains(t, state.Errors, models.FieldVehiclePlate)

	fillPersonal(state.Values)
	assert.True(t, w.Next())
	assert.Equal(t, models.StepEnterpriseInfo, w.Step())
	assert.Empty(t, state.Errors)
}

func TestNextVehicleNeedsVehicleFields(t *testing.T) {
	w, state := newTestWizard()
	require.NoError(t, w.SelectVisitType(models.VisitTypeVehicle))
	require.NoError(t, w.SetStep(models.StepPersonalInfo))
	fillPersonal(state.Values)

	assert.False(t, w.Next())
	assert.Equal(t, MsgVehicleRequired, state.Errors[models.FieldVehiclePlate])

	w.Apply(map[string]string{
		models.FieldVehiclePlate: "ABC123",
		models.FieldVehicleBrand: "Toyota",
		models.FieldVehicleModel: "Corolla",
		models.FieldVehicleColor: "Rojo",
	})
	assert.True(t, w.Next())
	assert.Equal(t, models.StepEnterpriseInfo, w.Step())
}

func TestNextOnFormTypeWithoutTag(t *testing.T) {
	w, _ := newTestWizard()
	assert.False(t, w.Next())
	assert.Equal(t, models.StepFormType, w.Step())
}

func TestNextOnSummary(t *testing.T) {
	w, _ := newTestWizard()
	require.NoError(t, w.SetStep(models.StepSummary))
	assert.False(t, w.Next())
	assert.Equal(t, models.StepSummary, w.Step())
}

func TestBackNeverValidates(t *testing.T) {
	w, state := newTestWizard()
	require.NoError(t, w.SetStep(models.StepPersonalInfo))

	w.Back()
	assert.Equal(t, models.StepDNISearch, w.Step())
	assert.Empty(t, state.Errors)

	w.Back()
	w.Back()
	assert.Equal(t, models.StepFormType, w.Step())
}

func TestApplyIgnoresOtherSteps(t *testing.T) {
	w, state := newTestWizard()
	require.NoError(t, w.SetStep(models.StepEnterpriseInfo))

	w.Apply(map[string]string{
		models.FieldEnterpriseName: "ACME",
		models.FieldFirstName:      "Intruso",
	})
	assert.Equal(t, "ACME", state.Values.Get(models.FieldEnterpriseName))
	assert.Empty(t, state.Values.Get(models.FieldFirstName))
}

func TestApplyLookup(t *testing.T) {
	t.Run("hit pre-fills", func(t *testing.T) {
		w, state := newTestWizard()
		w.ApplyLookup(&LookupResult{
			DNIType:   models.DNITypeVenezuelan,
			DNINumber: 12345678,
			Source:    LookupFound,
			Visitor: &models.Visitor{
				FirstName:   "Juan",
				LastName:    "Pérez",
				ContactInfo: &models.ContactInfo{Prefix: "+58(414)", Number: "5551234"},
				Company:     &models.Company{Name: "ACME", RIF: "J-12345678-9"},
			},
		})

		assert.Equal(t, models.StepPersonalInfo, w.Step())
		assert.Equal(t, "Juan", state.Values.Get(models.FieldFirstName))
		assert.Equal(t, "2", state.Values.Get(models.FieldContactNumberPrefixID))
		assert.Equal(t, "5551234", state.Values.Get(models.FieldPhoneNumber))
		assert.Equal(t, "ACME", state.Values.Get(models.FieldEnterpriseName))
		assert.Equal(t, "12345678", state.Values.Get(models.FieldDNINumber))
		require.NotNil(t, state.IsNewVisitor)
		assert.False(t, *state.IsNewVisitor)
	})

	t.Run("miss clears stale values", func(t *testing.T) {
		w, state := newTestWizard()
		state.Values[models.FieldFirstName] = "Anterior"
		state.Values[models.FieldEnterpriseName] = "Vieja SA"

		w.ApplyLookup(&LookupResult{DNIType: models.DNITypeForeign, DNINumber: 87654321, IsNewVisitor: true, Source: LookupNotFound})

		assert.Equal(t, "E", state.Values.Get(models.FieldDNIType))
		assert.Equal(t, "87654321", state.Values.Get(models.FieldDNINumber))
		assert.Empty(t, state.Values.Get(models.FieldFirstName))
		assert.Empty(t, state.Values.Get(models.FieldEnterpriseName))
		require.NotNil(t, state.IsNewVisitor)
		assert.True(t, *state.IsNewVisitor)
	})
}

func TestResetKeepsEntities(t *testing.T) {
	w, state := newTestWizard()
	state.Entities = []models.Option{{ID: 3, Name: "Ministerio"}}
	require.NoError(t, w.SelectVisitType(models.VisitTypeVehicle))
	fillPersonal(state.Values)

	w.Reset()

	assert.Equal(t, models.StepFormType, state.Step)
	assert.Equal(t, models.VisitType(""), state.VisitType)
	assert.Empty(t, state.Values.Get(models.FieldFirstName))
	assert.NotEmpty(t, state.Values.Get(models.FieldVisitDate))
	assert.Len(t, state.Entities, 1)
}
