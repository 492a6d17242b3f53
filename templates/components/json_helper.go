package components

import (
	"encoding/json"
	"log"
)

// JSON marshals v for use in hx-vals and hx-headers attributes, returning
// "{}" on error
func JSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARNING] Marshaling attribute JSON: %v", err)
		return "{}"
	}
	return string(b)
}

// HXHeaders returns the hx-headers value carrying the CSRF token
func HXHeaders(csrfToken string) string {
	return JSON(map[string]string{"X-CSRF-Token": csrfToken})
}
