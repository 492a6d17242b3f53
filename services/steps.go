package services

import "visitor_access_go/models"

// StepFields returns the fields that must validate before leaving step.
// The personal step includes the vehicle block only for vehicle visits.
func StepFields(step models.Step, visitType models.VisitType) []string {
	switch step {
	case models.StepPersonalInfo:
		fields := []string{
			models.FieldFirstName,
			models.FieldLastName,
			models.FieldDNIType,
			models.FieldDNINumber,
			models.FieldContactNumberPrefixID,
			models.FieldPhoneNumber,
		}
		if visitType == models.VisitTypeVehicle {
			fields = append(fields, models.VehicleFields...)
		}
		return fields
	case models.StepEnterpriseInfo:
		return []string{models.FieldEnterpriseName, models.FieldEnterpriseRIF}
	case models.StepVisitInfo:
		return []string{
			models.FieldEntityID,
			models.FieldAdministrativeUnitID,
			models.FieldContact,
			models.FieldObservation,
			models.FieldVisitDate,
			models.FieldVisitHour,
		}
	default:
		// type selection, lookup and summary have no gated fields
		return nil
	}
}

// StepFieldNames lists the editable inputs rendered by each step, used to
// copy posted form values into the wizard bag.
func StepFieldNames(step models.Step) []string {
	switch step {
	case models.StepPersonalInfo:
		return append([]string{
			models.FieldFirstName,
			models.FieldLastName,
			models.FieldDNIType,
			models.FieldDNINumber,
			models.FieldContactNumberPrefixID,
			models.FieldPhoneNumber,
		}, models.VehicleFields...)
	case models.StepEnterpriseInfo:
		return []string{models.FieldEnterpriseName, models.FieldEnterpriseRIF}
	case models.StepVisitInfo:
		return []string{
			models.FieldContact,
			models.FieldObservation,
			models.FieldVisitDate,
			models.FieldVisitHour,
		}
	default:
		return nil
	}
}
