package services

import (
	"context"
	"errors"
	"testing"

	"visitor_access_go/models"
	"visitor_access_go/services/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDashboardParams(t *testing.T) {
	assert.Equal(t, models.TimeRangeMonth, NormalizeTimeRange("month"))
	assert.Equal(t, models.TimeRangeWeek, NormalizeTimeRange("year"))
	assert.Equal(t, models.TimeRangeWeek, NormalizeTimeRange(""))
	assert.Equal(t, models.MetricAreas, NormalizeMetric("areas"))
	assert.Equal(t, models.MetricVisits, NormalizeMetric("DROP TABLE"))
}

func TestDashboardLoad(t *testing.T) {
	stats := &models.DashboardStats{
		Stats: models.DashboardTotals{TotalVisits: 12, ActiveVisits: 3, UniqueVisitors: 9},
		Charts: models.DashboardCharts{
			MainChart: []models.ChartPoint{{Name: "lun", Value: 4}, {Name: "mar", Value: 8}},
		},
	}
	api := new(MockBackend)
	api.On("DashboardStats", mock.Anything, "week", "visits").Return(stats, nil)

	view := NewDashboardService(api).Load(context.Background(), "decade", "")

	assert.Equal(t, "week", view.TimeRange)
	assert.Equal(t, "Visitas", view.MetricLabel())
	assert.Equal(t, "visitas por día", view.MetricDescription())
	assert.Equal(t, 8.0, view.MaxMainValue())
	assert.Empty(t, view.Error)
	api.AssertExpectations(t)
}

func TestDashboardLoadFailure(t *testing.T) {
	api := new(MockBackend)
	api.On("DashboardStats", mock.Anything, "day", "entities").Return(nil, errors.New("timeout"))

	view := NewDashboardService(api).Load(context.Background(), "day", "entities")
	assert.Equal(t, MsgDashboardFailed, view.Error)
	assert.Nil(t, view.Stats)
	assert.Zero(t, view.MaxMainValue())
}

func TestVisitorStatsSearch(t *testing.T) {
	api := new(MockBackend)
	api.On("VisitorStats", mock.Anything, int64(12345678)).Return(&models.VisitorStats{
		Exists:  true,
		Visitor: &models.Visitor{FirstName: "Juan", DNIType: models.DNITypeRef{Abbreviation: "V"}},
	}, nil)
	api.On("VisitorStats", mock.Anything, int64(999)).Return(&models.VisitorStats{Exists: false}, nil)
	api.On("VisitorStats", mock.Anything, int64(500)).Return(nil, &backend.APIError{Status: 500, Message: "Fallo interno"})
	svc := NewVisitorStatsService(api)
	ctx := context.Background()

	res := svc.Search(ctx, "e-12345678")
	require.True(t, res.Found())
	assert.Equal(t, "E", res.Stats.Visitor.DNIType.Abbreviation)
	assert.Equal(t, int64(12345678), res.Stats.Visitor.DNINumber)

	res = svc.Search(ctx, "V-999")
	assert.False(t, res.Found())
	assert.Nil(t, res.Stats)
	assert.Equal(t, MsgStatsNotFound, res.Error)

	res = svc.Search(ctx, "12345678")
	assert.Equal(t, MsgInvalidDocument, res.Error)

	res = svc.Search(ctx, "V-500")
	assert.Equal(t, "Fallo interno", res.Error)
}
