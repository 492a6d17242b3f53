package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// VisitType is the wizard's visit-type tag
type VisitType string

const (
	VisitTypePedestrian VisitType = "pedestrian"
	VisitTypeVehicle    VisitType = "vehicle"
)

// ID returns the backend identifier (pedestrian=1, vehicle=2)
func (t VisitType) ID() int {
	if t == VisitTypePedestrian {
		return 1
	}
	return 2
}

func (t VisitType) Valid() bool {
	return t == VisitTypePedestrian || t == VisitTypeVehicle
}

// Backend visit type names as returned in visit listings
const (
	BackendVisitPedestrian = "Pedestrian"
	BackendVisitVehicle    = "Vehicle"
)

// Location is the denormalized destination of a visit
type Location struct {
	Entity             string `json:"entity"`
	AdministrativeUnit string `json:"administrativeUnit"`
	Direction          string `json:"direction,omitempty"`
	Area               string `json:"area,omitempty"`
}

// Vehicle describes the car of a vehicular visit
type Vehicle struct {
	Plate string `json:"plate"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Color string `json:"color"`
}

// Visit is one row of the visit table
type Visit struct {
	ID           int64      `json:"id"`
	Visitor      Visitor    `json:"visitor"`
	Location     Location   `json:"location"`
	VisitType    string     `json:"visitType"`
	VisitDate    *time.Time `json:"visitDate"`
	VisitHour    *time.Time `json:"visitHour"`
	ExitDate     *time.Time `json:"exitDate"`
	Reason       string     `json:"visitReason,omitempty"`
	Contact      string     `json:"contact,omitempty"`
	RegisteredBy NameRef    `json:"registeredBy,omitempty"`
	Vehicle      *Vehicle   `json:"vehicle,omitempty"`
}

// IsPedestrian reports whether the backend classified the visit as pedestrian
func (v Visit) IsPedestrian() bool {
	return v.VisitType == BackendVisitPedestrian
}

// HasExited reports whether the backend has recorded an exit
func (v Visit) HasExited() bool {
	return v.ExitDate != nil && !v.ExitDate.IsZero()
}

// EntryTime combines the calendar day of VisitDate with the clock of VisitHour
func (v Visit) EntryTime() (time.Time, bool) {
	if v.VisitDate == nil || v.VisitHour == nil {
		return time.Time{}, false
	}
	d := v.VisitDate.Local()
	h := v.VisitHour.Local()
	return time.Date(d.Year(), d.Month(), d.Day(), h.Hour(), h.Minute(), h.Second(), 0, time.Local), true
}

// RecentVisit is an entry of a visitor's history in the statistics search
type RecentVisit struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	Type          string    `json:"type"`
	Location      Location  `json:"location"`
	VisitedPerson string    `json:"visitedPerson,omitempty"`
	Vehicle       *Vehicle  `json:"vehicle,omitempty"`
}

// NameRef decodes a person reference that the backend may send either as
// a plain string or as an object carrying name/username.
type NameRef string

func (n *NameRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NameRef(s)
		return nil
	}
	var obj struct {
		Name     string `json:"name"`
		FullName string `json:"fullName"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case obj.FullName != "":
		*n = NameRef(obj.FullName)
	case obj.Name != "":
		*n = NameRef(obj.Name)
	default:
		*n = NameRef(obj.Username)
	}
	return nil
}

// Option is one entry of a reference selection list
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OptionName returns the name of the option with the given id, or ""
func OptionName(opts []Option, id int64) string {
	for _, o := range opts {
		if o.ID == id {
			return o.Name
		}
	}
	return ""
}
