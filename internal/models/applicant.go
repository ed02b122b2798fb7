package models

import "time"

// Applicant is the Firestore record for one admissions or hiring applicant.
// Status holds the raw stored string; use progress.Normalize to read it.
type Applicant struct {
	ID            string                 `firestore:"-" json:"id"`
	Kind          string                 `firestore:"kind,omitempty" json:"kind"`
	FirstName     string                 `firestore:"firstName,omitempty" json:"firstName"`
	LastName      string                 `firestore:"lastName,omitempty" json:"lastName"`
	Email         string                 `firestore:"email,omitempty" json:"email"`
	Phone         string                 `firestore:"phone,omitempty" json:"phone,omitempty"`
	Position      string                 `firestore:"position,omitempty" json:"position,omitempty"`
	GradeLevel    string                 `firestore:"gradeLevel,omitempty" json:"gradeLevel,omitempty"`
	Status        string                 `firestore:"status,omitempty" json:"status"`
	Interview     *Schedule              `firestore:"interview,omitempty" json:"interview,omitempty"`
	DemoTeaching  *Schedule              `firestore:"demoTeaching,omitempty" json:"demoTeaching,omitempty"`
	FinalDecision string                 `firestore:"finalDecision,omitempty" json:"finalDecision,omitempty"`
	Archived      bool                   `firestore:"archived" json:"archived"`
	EmailVerified bool                   `firestore:"emailVerified" json:"emailVerified"`
	Requirements  map[string]Requirement `firestore:"requirements,omitempty" json:"requirements,omitempty"`
	CreatedAt     time.Time              `firestore:"createdAt,omitempty" json:"createdAt"`
	DecidedAt     time.Time              `firestore:"decidedAt,omitempty" json:"decidedAt,omitempty"`

	// UpdatedAt mirrors the document's server update time and is the
	// precondition used for optimistic writes.
	UpdatedAt time.Time `firestore:"-" json:"updatedAt"`
}

// FullName joins first and last name for display and email greetings.
func (a Applicant) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Schedule is an interview or demo-teaching appointment.
type Schedule struct {
	Date      string `firestore:"date" json:"date"`
	Time      string `firestore:"time" json:"time"`
	Location  string `firestore:"location,omitempty" json:"location,omitempty"`
	Mode      string `firestore:"mode,omitempty" json:"mode,omitempty"`
	Notes     string `firestore:"notes,omitempty" json:"notes,omitempty"`
	Completed bool   `firestore:"completed" json:"completed"`
}

// Requirement is one document the applicant must submit, e.g. a transcript.
type Requirement struct {
	Label       string    `firestore:"label" json:"label"`
	Checked     bool      `firestore:"checked" json:"checked"`
	File        string    `firestore:"file,omitempty" json:"file,omitempty"`
	ContentType string    `firestore:"contentType,omitempty" json:"contentType,omitempty"`
	PageCount   int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	Summary     string    `firestore:"summary,omitempty" json:"summary,omitempty"`
	UploadedAt  time.Time `firestore:"uploadedAt,omitempty" json:"uploadedAt,omitempty"`
}

// Notification is a delivery attempt logged under applicants/{id}/notifications.
type Notification struct {
	Step      string    `firestore:"step"`
	Channel   string    `firestore:"channel"`
	Recipient string    `firestore:"recipient,omitempty"`
	Status    string    `firestore:"status"`
	Error     string    `firestore:"error,omitempty"`
	SentAt    time.Time `firestore:"sentAt"`
}

// Applicant kinds accepted by the submission forms.
const (
	KindTeacher    = "teacher"
	KindJuniorHigh = "junior_high"
	KindSeniorHigh = "senior_high"
)

// Final decisions.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// DefaultRequirements returns the requirement checklist seeded for a new
// applicant of the given kind. Unknown kinds get an empty checklist.
func DefaultRequirements(kind string) map[string]Requirement {
	var labels map[string]string
	switch kind {
	case KindTeacher:
		labels = map[string]string{
			"resume":     "Resume / Curriculum Vitae",
			"license":    "PRC License",
			"transcript": "Transcript of Records",
			"nbi":        "NBI Clearance",
			"medical":    "Medical Certificate",
		}
	case KindJuniorHigh:
		labels = map[string]string{
			"birthCertificate": "PSA Birth Certificate",
			"reportCard":       "Report Card (Form 138)",
			"goodMoral":        "Certificate of Good Moral Character",
			"idPhoto":          "2x2 ID Photo",
		}
	case KindSeniorHigh:
		labels = map[string]string{
			"birthCertificate": "PSA Birth Certificate",
			"reportCard":       "Report Card (Form 138)",
			"goodMoral":        "Certificate of Good Moral Character",
			"idPhoto":          "2x2 ID Photo",
			"completion":       "Junior High School Completion Certificate",
		}
	}
	reqs := make(map[string]Requirement, len(labels))
	for key, label := range labels {
		reqs[key] = Requirement{Label: label}
	}
	return reqs
}
