package services

import (
	"testing"

	"visitor_access_go/models"

	"github.com/stretchr/testify/assert"
)

func TestSchemaValidate(t *testing.T) {
	schema := NewSchema(true)
	pedestrian := models.FormValues{models.FieldFormType: string(models.VisitTypePedestrian)}
	vehicle := models.FormValues{models.FieldFormType: string(models.VisitTypeVehicle)}

	tests := []struct {
		name     string
		field    string
		value    string
		siblings models.FormValues
		want     string
	}{
		{"dni too short", models.FieldDNINumber, "1", nil, MsgDNINumberFormat},
		{"dni with letters", models.FieldDNINumber, "12a", nil, MsgDNINumberFormat},
		{"dni ok", models.FieldDNINumber, "12345678", nil, ""},
		{"phone with letters", models.FieldPhoneNumber, "12345ab", nil, MsgPhoneDigits},
		{"phone too short", models.FieldPhoneNumber, "123456", nil, MsgPhoneMin},
		{"phone ok", models.FieldPhoneNumber, "1234567", nil, ""},
		{"first name short", models.FieldFirstName, "J", nil, MsgFirstNameMin},
		{"first name accented", models.FieldFirstName, "Íñ", nil, ""},
		{"dni type missing", models.FieldDNIType, "", nil, MsgDNITypeRequired},
		{"dni type unknown", models.FieldDNIType, "X", nil, MsgDNITypeRequired},
		{"dni type ok", models.FieldDNIType, "E", nil, ""},
		{"prefix by id", models.FieldContactNumberPrefixID, "2", nil, ""},
		{"prefix by label", models.FieldContactNumberPrefixID, "+58(424)", nil, ""},
		{"prefix unknown", models.FieldContactNumberPrefixID, "9", nil, MsgPrefixRequired},
		{"plate empty on foot", models.FieldVehiclePlate, "", pedestrian, ""},
		{"plate short on foot", models.FieldVehiclePlate, "ABC", pedestrian, ""},
		{"brand short on foot", models.FieldVehicleBrand, "X", pedestrian, ""},
		{"plate empty by car", models.FieldVehiclePlate, "", vehicle, MsgVehicleRequired},
		{"plate short", models.FieldVehiclePlate, "AB1", vehicle, MsgVehiclePlateMin},
		{"plate ok", models.FieldVehiclePlate, "ABC123", vehicle, ""},
		{"model short", models.FieldVehicleModel, "Fit", vehicle, MsgVehicleModelMin},
		{"rif empty", models.FieldEnterpriseRIF, "", nil, ""},
		{"rif ok", models.FieldEnterpriseRIF, "J-12345678-9", nil, ""},
		{"rif malformed", models.FieldEnterpriseRIF, "j-1234", nil, MsgRIFFormat},
		{"enterprise missing", models.FieldEnterpriseName, "", nil, MsgEnterpriseRequired},
		{"unit missing", models.FieldAdministrativeUnitID, "", nil, MsgUnitRequired},
		{"entity missing", models.FieldEntityID, "", nil, MsgEntityRequired},
		{"direction optional", models.FieldDirectionID, "", nil, ""},
		{"observation optional", models.FieldObservation, "", nil, ""},
		{"visit hour ok", models.FieldVisitHour, "09:30", nil, ""},
		{"visit hour bad", models.FieldVisitHour, "25:00", nil, MsgVisitHourRequired},
		{"visit date bad", models.FieldVisitDate, "10/03/2026", nil, MsgVisitDateRequired},
		{"photo missing", models.FieldVisitorPhoto, "", nil, MsgPhotoRequired},
		{"unknown field", "nickname", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schema.Validate(tt.field, tt.value, tt.siblings))
		})
	}
}

func TestSchemaPhotoOptional(t *testing.T) {
	schema := NewSchema(false)
	assert.Empty(t, schema.Validate(models.FieldVisitorPhoto, "", nil))
}

func TestValidateFieldsVehicleRequirement(t *testing.T) {
	schema := NewSchema(true)
	base := models.FormValues{
		models.FieldFirstName:             "Juan",
		models.FieldLastName:              "Pérez",
		models.FieldDNIType:               "V",
		models.FieldDNINumber:             "12345678",
		models.FieldContactNumberPrefixID: "1",
		models.FieldPhoneNumber:           "1234567",
	}

	t.Run("pedestrian never fails on vehicle fields", func(t *testing.T) {
		values := models.FormValues{models.FieldFormType: string(models.VisitTypePedestrian)}
		for k, v := range base {
			values[k] = v
		}
		fields := append(StepFields(models.StepPersonalInfo, models.VisitTypeVehicle), models.VehicleFields...)
		errs, ok := schema.ValidateFields(values, fields)
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("vehicle requires every vehicle field", func(t *testing.T) {
		values := models.FormValues{models.FieldFormType: string(models.VisitTypeVehicle)}
		for k, v := range base {
			values[k] = v
		}
		errs, ok := schema.ValidateFields(values, StepFields(models.StepPersonalInfo, models.VisitTypeVehicle))
		assert.False(t, ok)
		for _, f := range models.VehicleFields {
			assert.Equal(t, MsgVehicleRequired, errs[f], f)
		}
		assert.NotContains(t, errs, models.FieldFirstName)
	})

	t.Run("values are trimmed", func(t *testing.T) {
		values := models.FormValues{models.FieldPhoneNumber: "  1234567  "}
		_, ok := schema.ValidateFields(values, []string{models.FieldPhoneNumber})
		assert.True(t, ok)
	})
}

func TestValidateAllIgnoresVehicleValuesOnFoot(t *testing.T) {
	schema := NewSchema(true)
	values := completeValues(models.VisitTypePedestrian)
	values[models.FieldVehiclePlate] = "ABC"
	values[models.FieldVehicleModel] = "Fit"

	errs, ok := schema.ValidateAll(values)
	assert.True(t, ok)
	assert.Empty(t, errs)

	values[models.FieldFormType] = string(models.VisitTypeVehicle)
	errs, ok = schema.ValidateAll(values)
	assert.False(t, ok)
	assert.Equal(t, MsgVehiclePlateMin, errs[models.FieldVehiclePlate])
	assert.Equal(t, MsgVehicleModelMin, errs[models.FieldVehicleModel])
	assert.Equal(t, MsgVehicleRequired, errs[models.FieldVehicleBrand])
}

func TestUnitRequirementIndependentOfDirection(t *testing.T) {
	schema := NewSchema(true)
	values := models.FormValues{
		models.FieldEntityID:    "3",
		models.FieldDirectionID: "11",
		models.FieldAreaID:      "21",
	}
	errs, ok := schema.ValidateFields(values, []string{
		models.FieldEntityID, models.FieldAdministrativeUnitID, models.FieldDirectionID, models.FieldAreaID,
	})
	assert.False(t, ok)
	assert.Equal(t, models.FieldErrors{models.FieldAdministrativeUnitID: MsgUnitRequired}, errs)
}
