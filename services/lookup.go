package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"
)

var (
	ErrEmptyDocument   = errors.New("document number is empty")
	ErrInvalidDocument = errors.New("invalid document format")
)

const (
	MsgEmptyDocument   = "Por favor, ingrese un número de cédula para continuar."
	MsgInvalidDocument = "Formato de cédula inválido. Use V-12345678 o E-12345678"
)

// DocumentErrorMessage maps a ParseDocument error to the toast shown to the user
func DocumentErrorMessage(err error) string {
	if errors.Is(err, ErrEmptyDocument) {
		return MsgEmptyDocument
	}
	return MsgInvalidDocument
}

var documentPattern = regexp.MustCompile(`(?i)^([VE])-?(\d+)$`)

// ParseDocument splits an input such as "V-12345678" or "e87654321" into
// its document type and number.
func ParseDocument(input string) (models.DNIType, int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", 0, ErrEmptyDocument
	}
	m := documentPattern.FindStringSubmatch(input)
	if m == nil {
		return "", 0, ErrInvalidDocument
	}
	number, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || number <= 0 {
		return "", 0, ErrInvalidDocument
	}
	return models.DNIType(strings.ToUpper(m[1])), number, nil
}

// LookupSource tells how a lookup result was obtained
type LookupSource string

const (
	LookupFound    LookupSource = "found"
	LookupNotFound LookupSource = "not_found"
	// LookupFallback means the backend could not be reached; the result is
	// treated exactly like a miss.
	LookupFallback LookupSource = "fallback"
)

// LookupResult is the normalized outcome of a document lookup
type LookupResult struct {
	DNIType      models.DNIType
	DNINumber    int64
	IsNewVisitor bool
	Visitor      *models.Visitor
	Source       LookupSource
	Err          error
}

// Message is the toast shown after the lookup
func (r *LookupResult) Message() (level, message string) {
	switch r.Source {
	case LookupFound:
		return models.NotifySuccess, "Datos del visitante cargados"
	case LookupNotFound:
		return models.NotifyInfo, "Visitante no encontrado. Complete el formulario para nuevo registro."
	default:
		return models.NotifyInfo, "Iniciando registro de nuevo visitante"
	}
}

// VisitorSearcher is the backend call used by VisitorLookup
type VisitorSearcher interface {
	SearchVisitor(ctx context.Context, dniNumber int64) (*backend.SearchVisitorResponse, error)
}

type VisitorLookup struct {
	api VisitorSearcher
}

func NewVisitorLookup(api VisitorSearcher) *VisitorLookup {
	return &VisitorLookup{api: api}
}

// Lookup never fails: a miss and a network error both yield a new-visitor
// record echoing the typed document.
func (l *VisitorLookup) Lookup(ctx context.Context, dniType models.DNIType, dniNumber int64) *LookupResult {
	result := &LookupResult{DNIType: dniType, DNINumber: dniNumber, IsNewVisitor: true}

	resp, err := l.api.SearchVisitor(ctx, dniNumber)
	if err != nil {
		log.Printf("[WARNING] Visitor lookup for %s-%d failed, continuing as new visitor: %v", dniType, dniNumber, err)
		result.Source = LookupFallback
		result.Err = err
		return result
	}

	if resp == nil || !resp.Exists || resp.Visitor == nil {
		result.Source = LookupNotFound
		return result
	}

	visitor := *resp.Visitor
	if t, ok := models.ParseDNIType(visitor.DNIType.Abbreviation); ok {
		result.DNIType = t
	}
	visitor.DNIType.Abbreviation = string(result.DNIType)
	visitor.DNINumber = dniNumber

	result.IsNewVisitor = false
	result.Visitor = &visitor
	result.Source = LookupFound
	return result
}
