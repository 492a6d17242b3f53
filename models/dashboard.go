package models

// Dashboard time ranges accepted by the backend
const (
	TimeRangeDay   = "day"
	TimeRangeWeek  = "week"
	TimeRangeMonth = "month"
	TimeRangeAll   = "all"
)

// TimeRanges lists the ranges in selector order
var TimeRanges = []string{TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeAll}

// Dashboard metrics used to group the main chart
const (
	MetricVisits      = "visits"
	MetricEntities    = "entities"
	MetricDirections  = "directions"
	MetricDepartments = "departments"
	MetricAreas       = "areas"
)

var Metrics = []string{MetricVisits, MetricEntities, MetricDirections, MetricDepartments, MetricAreas}

type DashboardStats struct {
	Stats  DashboardTotals `json:"stats"`
	Charts DashboardCharts `json:"charts"`
}

type DashboardTotals struct {
	TotalVisits    int `json:"totalVisits"`
	ActiveVisits   int `json:"activeVisits"`
	UniqueVisitors int `json:"uniqueVisitors"`
}

type DashboardCharts struct {
	MainChart              []ChartPoint      `json:"mainChart"`
	EntityDistribution     []ChartPoint      `json:"entityDistribution"`
	DepartmentDistribution []ChartPoint      `json:"departmentDistribution"`
	FrequentVisitors       []FrequentVisitor `json:"frequentVisitors"`
}

// ChartPoint is a named value of a bar or pie chart
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type FrequentVisitor struct {
	Name   string `json:"name"`
	Visits int    `json:"visits"`
}

// VisitorStats is the backend answer to a statistics search by document
type VisitorStats struct {
	Exists  bool     `json:"exists"`
	Visitor *Visitor `json:"visitor,omitempty"`
}
