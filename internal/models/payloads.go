package models

// These structs define the JSON payloads exchanged between the admissions
// front ends and the Cloud Functions.

// SubmitApplicationRequest is the input for the application-submit function.
type SubmitApplicationRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=teacher junior_high senior_high"`
	FirstName  string `json:"firstName" validate:"required,max=80"`
	LastName   string `json:"lastName" validate:"required,max=80"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Position   string `json:"position" validate:"required_if=Kind teacher,max=120"`
	GradeLevel string `json:"gradeLevel" validate:"required_unless=Kind teacher,max=20"`
}

// SubmitApplicationResponse is the output of the application-submit function.
type SubmitApplicationResponse struct {
	Status      string `json:"status"`
	ApplicantID string `json:"applicantId"`
}

// AdvanceRequest is the input for the progress-advance function. With
// Preview set the function only returns the checklist. TargetStage
// defaults to the stage after the current one.
type AdvanceRequest struct {
	ApplicantID string `json:"applicantId" validate:"required"`
	TargetStage string `json:"targetStage"`
	Preview     bool   `json:"preview"`
}

// ChecklistStep is one row of the progress checklist.
type ChecklistStep struct {
	Stage string `json:"stage"`
	State string `json:"state"`
}

// AdvanceResponse is the output of the progress-advance function.
type AdvanceResponse struct {
	Status           string          `json:"status"`
	CurrentStage     string          `json:"currentStage"`
	CurrentIndex     int             `json:"currentIndex"`
	NoOp             bool            `json:"noop,omitempty"`
	Message          string          `json:"message,omitempty"`
	Warning          string          `json:"warning,omitempty"`
	Checklist        []ChecklistStep `json:"checklist"`
	DecisionControls bool            `json:"decisionControls"`
}

// DecisionRequest is the input for the applicant-decision function.
type DecisionRequest struct {
	ApplicantID string `json:"applicantId" validate:"required"`
	Decision    string `json:"decision" validate:"required,oneof=approved rejected"`
}

// DecisionResponse is the output of the applicant-decision function.
type DecisionResponse struct {
	Status        string `json:"status"`
	FinalDecision string `json:"finalDecision"`
	CurrentStage  string `json:"currentStage"`
	Replayed      bool   `json:"replayed,omitempty"`
	Warning       string `json:"warning,omitempty"`
}

// ScheduleRequest is the input for the schedule-manager function.
type ScheduleRequest struct {
	ApplicantID string `json:"applicantId" validate:"required"`
	Kind        string `json:"kind" validate:"required,oneof=interview demo"`
	Action      string `json:"action" validate:"required,oneof=schedule cancel"`
	Date        string `json:"date" validate:"required_if=Action schedule,omitempty,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required_if=Action schedule,omitempty,datetime=15:04"`
	Location    string `json:"location" validate:"max=200"`
	Mode        string `json:"mode" validate:"omitempty,oneof=onsite online"`
	Notes       string `json:"notes" validate:"max=2000"`
}

// ScheduleResponse is the output of the schedule-manager function.
type ScheduleResponse struct {
	Status       string    `json:"status"`
	CurrentStage string    `json:"currentStage"`
	Schedule     *Schedule `json:"schedule,omitempty"`
}

// RecordUpdateRequest is the input for the applicant-records function.
type RecordUpdateRequest struct {
	ApplicantID    string `json:"applicantId" validate:"required"`
	Action         string `json:"action" validate:"required,oneof=archive unarchive verify_email check_requirement uncheck_requirement"`
	RequirementKey string `json:"requirementKey" validate:"required_if=Action check_requirement,required_if=Action uncheck_requirement"`
}

// RecordUpdateResponse is the output of the applicant-records function.
type RecordUpdateResponse struct {
	Status   string `json:"status"`
	Archived bool   `json:"archived"`
}

// ListApplicantsRequest is the input for the applicant-list function.
type ListApplicantsRequest struct {
	Statuses        []string `json:"statuses" validate:"omitempty,dive,required"`
	InterviewDate   string   `json:"interviewDate" validate:"omitempty,datetime=2006-01-02"`
	IncludeArchived bool     `json:"includeArchived"`
}

// ListApplicantsResponse is the output of the applicant-list function.
type ListApplicantsResponse struct {
	Applicants []Applicant `json:"applicants"`
	Count      int         `json:"count"`
	// Source is "mirror" when served from the synced in-memory copy and
	// "store" when the collection was queried.
	Source string `json:"source"`
}

// NotifyRequest is the input for the step-notifier function.
type NotifyRequest struct {
	ApplicantID string `json:"applicantId" validate:"required"`
	Step        string `json:"step" validate:"required"`
}

// NotifyResponse is the output of the step-notifier function.
type NotifyResponse struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient,omitempty"`
}

// SignAttachmentRequest is the input for the attachment-signer function.
type SignAttachmentRequest struct {
	ApplicantID    string `json:"applicantId" validate:"required"`
	Method         string `json:"method" validate:"required,oneof=upload download download_all"`
	RequirementKey string `json:"requirementKey" validate:"required_unless=Method download_all"`
	Filename       string `json:"filename" validate:"required_if=Method upload,max=200"`
	ContentType    string `json:"contentType" validate:"required_if=Method upload,omitempty,oneof=application/pdf image/jpeg image/png"`
}

// SignedURL is one signed object URL.
type SignedURL struct {
	RequirementKey string `json:"requirementKey"`
	Object         string `json:"object"`
	URL            string `json:"url"`
}

// SignAttachmentResponse is the output of the attachment-signer function.
type SignAttachmentResponse struct {
	Status    string      `json:"status"`
	ExpiresIn int         `json:"expiresInSeconds"`
	URLs      []SignedURL `json:"urls"`
}

// GCSEvent is the payload of a storage object finalize event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        string `json:"size"`
}
