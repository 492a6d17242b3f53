package services

import (
	"regexp"
	"sort"
	"strings"

	"visitor_access_go/models"

	"github.com/go-playground/validator/v10"
)

// Validation messages shown next to each field
const (
	MsgFirstNameMin       = "El nombre debe tener al menos 2 caracteres."
	MsgLastNameMin        = "El apellido debe tener al menos 2 caracteres."
	MsgDNITypeRequired    = "Tipo de cédula es requerido"
	MsgDNINumberFormat    = "Ingrese solo números (mínimo 2 dígitos)"
	MsgPhoneDigits        = "Ingrese solo números"
	MsgPhoneMin           = "El número debe tener al menos 7 dígitos"
	MsgPrefixRequired     = "Seleccione un prefijo telefónico"
	MsgContactMin         = "El contacto debe tener al menos 2 caracteres."
	MsgEnterpriseRequired = "El nombre de la empresa es requerido"
	MsgRIFFormat          = "El RIF debe cumplir con el formato J-12345678-9"
	MsgVehiclePlateMin    = "La placa del vehículo debe cumplir con el formato ABC123."
	MsgVehicleBrandMin    = "La marca del vehículo debe tener al menos 3 caracteres"
	MsgVehicleModelMin    = "El modelo del vehículo debe tener al menos 4 caracteres"
	MsgVehicleColorMin    = "El color del vehículo debe tener al menos 3 caracteres"
	MsgVehicleRequired    = "Campo obligatorio para registro vehicular"
	MsgEntityRequired     = "Por favor seleccione un ente para continuar"
	MsgUnitRequired       = "Requiere seleccionar una Unidad Administrativa"
	MsgInvalidSelection   = "Selección inválida"
	MsgObservationMax     = "La observación no puede exceder 500 caracteres"
	MsgVisitDateRequired  = "Seleccione una fecha de visita válida"
	MsgVisitHourRequired  = "Seleccione una hora de visita válida"
	MsgPhotoRequired      = "La foto del visitante es requerida"
)

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	rifPattern    = regexp.MustCompile(`^[A-Z]-\d{8}-\d$`)
)

// fieldRule is one validator tag chain with the message shown when it fails
type fieldRule struct {
	tag     string
	message string
}

// fieldSchema describes how one field is validated. Optional fields skip
// their rules while empty; requiredWhen adds a presence check on top.
type fieldSchema struct {
	optional        bool
	requiredWhen    func(siblings models.FormValues) bool
	requiredMessage string
	rules           []fieldRule
}

// Schema holds the field rules of the registration form
type Schema struct {
	fields   map[string]fieldSchema
	validate *validator.Validate
}

func isVehicle(siblings models.FormValues) bool {
	return models.VisitType(siblings.Get(models.FieldFormType)) == models.VisitTypeVehicle
}

// NewSchema builds the rule set. photoRequired controls whether a captured
// visitor photo is mandatory before submission.
func NewSchema(photoRequired bool) *Schema {
	v := validator.New()
	v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("rif", func(fl validator.FieldLevel) bool {
		return rifPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("phoneprefix", func(fl validator.FieldLevel) bool {
		_, ok := models.FindPhonePrefix(fl.Field().String())
		return ok
	})

	vehicleField := func(tag, message string) fieldSchema {
		return fieldSchema{
			optional:        true,
			requiredWhen:    isVehicle,
			requiredMessage: MsgVehicleRequired,
			rules:           []fieldRule{{tag, message}},
		}
	}

	fields := map[string]fieldSchema{
		models.FieldFirstName: {rules: []fieldRule{{"min=2", MsgFirstNameMin}}},
		models.FieldLastName:  {rules: []fieldRule{{"min=2", MsgLastNameMin}}},
		models.FieldDNIType:   {rules: []fieldRule{{"required,oneof=V E", MsgDNITypeRequired}}},
		models.FieldDNINumber: {rules: []fieldRule{{"digits,min=2", MsgDNINumberFormat}}},
		models.FieldContactNumberPrefixID: {rules: []fieldRule{
			{"required,phoneprefix", MsgPrefixRequired},
		}},
		models.FieldPhoneNumber: {rules: []fieldRule{
			{"digits", MsgPhoneDigits},
			{"min=7", MsgPhoneMin},
		}},
		models.FieldVehiclePlate: vehicleField("min=6", MsgVehiclePlateMin),
		models.FieldVehicleBrand: vehicleField("min=3", MsgVehicleBrandMin),
		models.FieldVehicleModel: vehicleField("min=4", MsgVehicleModelMin),
		models.FieldVehicleColor: vehicleField("min=3", MsgVehicleColorMin),
		models.FieldEnterpriseName: {rules: []fieldRule{
			{"required", MsgEnterpriseRequired},
		}},
		models.FieldEnterpriseRIF: {optional: true, rules: []fieldRule{{"rif", MsgRIFFormat}}},
		models.FieldEntityID: {rules: []fieldRule{
			{"required,digits", MsgEntityRequired},
		}},
		models.FieldAdministrativeUnitID: {rules: []fieldRule{
			{"required,digits", MsgUnitRequired},
		}},
		models.FieldDirectionID: {optional: true, rules: []fieldRule{{"digits", MsgInvalidSelection}}},
		models.FieldAreaID:      {optional: true, rules: []fieldRule{{"digits", MsgInvalidSelection}}},
		models.FieldContact:     {rules: []fieldRule{{"min=2", MsgContactMin}}},
		models.FieldObservation: {optional: true, rules: []fieldRule{{"max=500", MsgObservationMax}}},
		models.FieldVisitDate: {rules: []fieldRule{
			{"required,datetime=2006-01-02", MsgVisitDateRequired},
		}},
		models.FieldVisitHour: {rules: []fieldRule{
			{"required,datetime=15:04", MsgVisitHourRequired},
		}},
		models.FieldVisitorPhoto: {
			optional:        true,
			requiredWhen:    func(models.FormValues) bool { return photoRequired },
			requiredMessage: MsgPhotoRequired,
		},
	}

	return &Schema{fields: fields, validate: v}
}

// Validate checks one field against its rules and returns the first failing
// message, or "" when the value is acceptable. Unknown fields always pass.
func (s *Schema) Validate(field, value string, siblings models.FormValues) string {
	fs, ok := s.fields[field]
	if !ok {
		return ""
	}

	// conditional fields are ignored entirely while their condition is off
	if fs.requiredWhen != nil && !fs.requiredWhen(siblings) {
		return ""
	}
	if value == "" {
		if fs.requiredWhen != nil {
			return fs.requiredMessage
		}
		if fs.optional {
			return ""
		}
	}

	for _, rule := range fs.rules {
		if err := s.validate.Var(value, rule.tag); err != nil {
			return rule.message
		}
	}
	return ""
}

// ValidateFields validates exactly the listed fields and reports whether all
// of them passed.
func (s *Schema) ValidateFields(values models.FormValues, fields []string) (models.FieldErrors, bool) {
	errs := models.FieldErrors{}
	for _, f := range fields {
		if msg := s.Validate(f, strings.TrimSpace(values.Get(f)), values); msg != "" {
			errs[f] = msg
		}
	}
	return errs, len(errs) == 0
}

// ValidateAll validates every known field; used right before submission.
func (s *Schema) ValidateAll(values models.FormValues) (models.FieldErrors, bool) {
	return s.ValidateFields(values, s.FieldNames())
}

// FieldNames lists the fields that carry rules, sorted
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
