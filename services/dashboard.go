package services

import (
	"context"
	"log"

	"visitor_access_go/models"
)

const MsgDashboardFailed = "Error al cargar los datos del dashboard"

// TimeRangeLabels are the selector labels of each dashboard range
var TimeRangeLabels = map[string]string{
	models.TimeRangeDay:   "Último día",
	models.TimeRangeWeek:  "Última semana",
	models.TimeRangeMonth: "Último mes",
	models.TimeRangeAll:   "Todo",
}

var MetricLabels = map[string]string{
	models.MetricVisits:      "Visitas",
	models.MetricEntities:    "Entidades",
	models.MetricDirections:  "Direcciones",
	models.MetricDepartments: "Departamentos",
	models.MetricAreas:       "Áreas",
}

// MetricDescriptions caption the main chart
var MetricDescriptions = map[string]string{
	models.MetricVisits:      "visitas por día",
	models.MetricEntities:    "visitas por entidad",
	models.MetricDirections:  "visitas por dirección",
	models.MetricDepartments: "visitas por departamento",
	models.MetricAreas:       "visitas por área",
}

// NormalizeTimeRange falls back to the weekly view for unknown ranges
func NormalizeTimeRange(r string) string {
	if _, ok := TimeRangeLabels[r]; ok {
		return r
	}
	return models.TimeRangeWeek
}

// NormalizeMetric falls back to plain visit counts for unknown metrics
func NormalizeMetric(m string) string {
	if _, ok := MetricLabels[m]; ok {
		return m
	}
	return models.MetricVisits
}

type DashboardSource interface {
	DashboardStats(ctx context.Context, timeRange, metric string) (*models.DashboardStats, error)
}

// DashboardView is what the dashboard page renders
type DashboardView struct {
	TimeRange string
	Metric    string
	Stats     *models.DashboardStats
	Error     string
}

func (v DashboardView) MetricLabel() string       { return MetricLabels[v.Metric] }
func (v DashboardView) MetricDescription() string { return MetricDescriptions[v.Metric] }

// MaxMainValue is the largest value of the main chart, used to scale bars
func (v DashboardView) MaxMainValue() float64 {
	top := 0.0
	if v.Stats == nil {
		return top
	}
	for _, p := range v.Stats.Charts.MainChart {
		if p.Value > top {
			top = p.Value
		}
	}
	return top
}

type DashboardService struct {
	api DashboardSource
}

func NewDashboardService(api DashboardSource) *DashboardService {
	return &DashboardService{api: api}
}

// Load fetches the statistics for the normalized range and metric. A
// backend failure is reported in the view, not as an error.
func (s *DashboardService) Load(ctx context.Context, timeRange, metric string) DashboardView {
	view := DashboardView{
		TimeRange: NormalizeTimeRange(timeRange),
		Metric:    NormalizeMetric(metric),
	}
	stats, err := s.api.DashboardStats(ctx, view.TimeRange, view.Metric)
	if err != nil {
		log.Printf("[WARNING] Loading dashboard (%s/%s) failed: %v", view.TimeRange, view.Metric, err)
		view.Error = MsgDashboardFailed
		return view
	}
	view.Stats = stats
	return view
}
