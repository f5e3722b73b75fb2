package casesdk

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterWithRoleRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Case struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedByID string     `json:"createdById"`
	CreatedAt   time.Time  `json:"createdAt"`
	ClosedAt    *time.Time `json:"closedAt"`
}

type CreateCaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

type UpdateCaseStatusRequest struct {
	Status string `json:"status"`
}

// ListCasesOptions are the optional refinements of a case listing.
type ListCasesOptions struct {
	Status string
	Search string
}

type DashboardSummary struct {
	OpenCases              int     `json:"openCases"`
	ClosedCases            int     `json:"closedCases"`
	AvgResolutionTimeHours float64 `json:"avgResolutionTimeHours"`
	AgentsOnline           int     `json:"agentsOnline"`
}

type AuditEntry struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actorId"`
	ActorRole    string    `json:"actorRole"`
	Action       string    `json:"action"`
	TargetCaseID *string   `json:"targetCaseId"`
	Timestamp    time.Time `json:"timestamp"`
	Detail       string    `json:"detail"`
}

type WhoAmIResponse struct {
	SubjectID     string `json:"subjectId"`
	Role          string `json:"role"`
	Authenticated bool   `json:"authenticated"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
