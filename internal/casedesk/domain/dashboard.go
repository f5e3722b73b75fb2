package domain

type DashboardSummary struct {
	OpenCases              int
	ClosedCases            int
	AvgResolutionTimeHours float64
	AgentsOnline           int
}
