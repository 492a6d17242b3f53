package services

import (
	"context"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"
)

const (
	MsgStatsNotFound = "No se encontró ningún visitante con ese número de cédula."
	MsgStatsFailed   = "Error al buscar las estadísticas del visitante"
)

type VisitorStatsSource interface {
	VisitorStats(ctx context.Context, dniNumber int64) (*models.VisitorStats, error)
}

// StatsResult is the outcome of a statistics search. Error holds a message
// for the user; Stats is nil whenever Error is set.
type StatsResult struct {
	Query string
	Stats *models.VisitorStats
	Error string
}

// Found reports whether the search returned a visitor
func (r StatsResult) Found() bool {
	return r.Stats != nil && r.Stats.Exists && r.Stats.Visitor != nil
}

type VisitorStatsService struct {
	api VisitorStatsSource
}

func NewVisitorStatsService(api VisitorStatsSource) *VisitorStatsService {
	return &VisitorStatsService{api: api}
}

// Search parses a document such as "V-12345678" and fetches that visitor's
// history. The document type typed by the user is shown on the result.
func (s *VisitorStatsService) Search(ctx context.Context, input string) StatsResult {
	result := StatsResult{Query: input}

	dniType, number, err := ParseDocument(input)
	if err != nil {
		result.Error = MsgInvalidDocument
		return result
	}

	stats, err := s.api.VisitorStats(ctx, number)
	if err != nil {
		if msg := backend.MessageOf(err); msg != "" {
			result.Error = msg
		} else {
			result.Error = MsgStatsFailed
		}
		return result
	}

	if !stats.Exists || stats.Visitor == nil {
		result.Error = MsgStatsNotFound
		return result
	}

	stats.Visitor.DNIType.Abbreviation = string(dniType)
	if stats.Visitor.DNINumber == 0 {
		stats.Visitor.DNINumber = number
	}
	result.Stats = stats
	return result
}
