package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DNIType is the issuing-authority letter of a national document
type DNIType string

const (
	DNITypeVenezuelan DNIType = "V"
	DNITypeForeign    DNIType = "E"
)

// DNITypes lists the accepted document types in display order
var DNITypes = []DNIType{DNITypeVenezuelan, DNITypeForeign}

// ID returns the backend identifier for the document type (V=1, E=2)
func (t DNIType) ID() int {
	if t == DNITypeVenezuelan {
		return 1
	}
	return 2
}

// Valid reports whether t belongs to the closed set of document types
func (t DNIType) Valid() bool {
	return t == DNITypeVenezuelan || t == DNITypeForeign
}

// ParseDNIType normalizes a letter such as "v" into a DNIType
func ParseDNIType(s string) (DNIType, bool) {
	t := DNIType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// DNITypeRef decodes the document type as sent by the backend, which is a
// bare string in visit listings and {"abbreviation": "V"} in lookups.
type DNITypeRef struct {
	Abbreviation string `json:"abbreviation"`
}

func (r *DNITypeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.Abbreviation)
	}
	type plain DNITypeRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = DNITypeRef(p)
	return nil
}

// ContactInfo is the visitor's phone number as stored by the backend
type ContactInfo struct {
	Prefix     string `json:"prefix"`
	Number     string `json:"number"`
	FullNumber string `json:"fullNumber,omitempty"`
}

// Company is the visitor's employer
type Company struct {
	Name string `json:"name"`
	RIF  string `json:"rif,omitempty"`
}

// Visitor is a person identified by document type and number
type Visitor struct {
	ID            int64         `json:"id,omitempty"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	FullName      string        `json:"fullName,omitempty"`
	DNIType       DNITypeRef    `json:"dniType"`
	DNINumber     int64         `json:"dniNumber"`
	ContactNumber string        `json:"contactNumber,omitempty"`
	ContactInfo   *ContactInfo  `json:"contactInfo,omitempty"`
	Company       *Company      `json:"company,omitempty"`
	RecentVisits  []RecentVisit `json:"recentVisits,omitempty"`
}

// DisplayName prefers the backend's full name and falls back to first + last
func (v Visitor) DisplayName() string {
	if v.FullName != "" {
		return v.FullName
	}
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// Phone returns whichever phone representation the backend supplied
func (v Visitor) Phone() string {
	if v.ContactNumber != "" {
		return v.ContactNumber
	}
	if v.ContactInfo != nil {
		if v.ContactInfo.FullNumber != "" {
			return v.ContactInfo.FullNumber
		}
		return strings.TrimSpace(v.ContactInfo.Prefix + " " + v.ContactInfo.Number)
	}
	return ""
}

// PhonePrefix is one of the mobile carrier prefixes accepted by the backend
type PhonePrefix struct {
	ID    int
	Label string
}

// PhonePrefixes is the closed list of contact number prefixes
var PhonePrefixes = []PhonePrefix{
	{ID: 1, Label: "+58(412)"},
	{ID: 2, Label: "+58(414)"},
	{ID: 3, Label: "+58(424)"},
	{ID: 4, Label: "+58(416)"},
	{ID: 5, Label: "+58(426)"},
}

// FindPhonePrefix resolves either a numeric id ("2") or a label ("+58(414)")
func FindPhonePrefix(value string) (PhonePrefix, bool) {
	value = strings.TrimSpace(value)
	for _, p := range PhonePrefixes {
		if value == p.Label || value == strconv.Itoa(p.ID) {
			return p, true
		}
	}
	return PhonePrefix{}, false
}
