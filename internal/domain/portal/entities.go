package portal

import "time"

// RequestStatus tracks an internship request through its review lifecycle.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestWithdrawn RequestStatus = "withdrawn"
)

// InternshipRequest is a student's application to take up an internship,
// reviewed by their mentor.
type InternshipRequest struct {
	ID             string        `json:"id"`
	StudentID      string        `json:"studentId"`
	MentorID       string        `json:"mentorId,omitempty"`
	CompanyName    string        `json:"companyName"`
	RoleTitle      string        `json:"roleTitle"`
	Stipend        int           `json:"stipend"`
	DurationWeeks  int           `json:"durationWeeks"`
	OfferLetterURL string        `json:"offerLetterUrl,omitempty"`
	Status         RequestStatus `json:"status"`
	ReviewNote     string        `json:"reviewNote,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// Certificate is a completion record issued after an approved internship
// concludes and the report is accepted.
type Certificate struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	RequestID   string    `json:"requestId,omitempty"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	FileURL     string    `json:"fileUrl,omitempty"`
	IssuedBy    string    `json:"issuedBy,omitempty"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// Opportunity is an internship or placement listing posted by a placement
// officer.
type Opportunity struct {
	ID            string    `json:"id"`
	PostedBy      string    `json:"postedBy,omitempty"`
	CompanyName   string    `json:"companyName"`
	RoleTitle     string    `json:"roleTitle"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	StipendMin    int       `json:"stipendMin"`
	StipendMax    int       `json:"stipendMax"`
	Deadline      time.Time `json:"deadline"`
	EligibleDepts []string  `json:"eligibleDepts,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DashboardStats is the aggregate counters block rendered at the top of every
// role's dashboard.
type DashboardStats struct {
	TotalStudents       int       `json:"totalStudents"`
	ActiveInternships   int       `json:"activeInternships"`
	PendingRequests     int       `json:"pendingRequests"`
	CertificatesIssued  int       `json:"certificatesIssued"`
	OpenOpportunities   int       `json:"openOpportunities"`
	PlacementRatePct    float64   `json:"placementRatePct"`
	AverageStipend      int       `json:"averageStipend"`
	GeneratedAt         time.Time `json:"generatedAt"`
}
