package types

// OrganizationalContext carries employer-wide settings merged into every
// generation prompt. Loaded from configuration, not from user input.
type OrganizationalContext struct {
	OrganizationName string `json:"organization_name" validate:"required"`
	Industry         string `json:"industry"`
	Location         string `json:"location"`
}

// JobDescriptionRequest is the intake questionnaire for the job-description
// generator.
type JobDescriptionRequest struct {
	JobTitle                 string `json:"job_title" validate:"required"`
	Department               string `json:"department" validate:"required"`
	ReportsTo                string `json:"reports_to"`
	PrimaryResponsibilities  string `json:"primary_responsibilities" validate:"required"`
	KeyDeliverables          string `json:"key_deliverables"`
	UniqueAspects            string `json:"unique_aspects"`
	ManagesPeople            bool   `json:"manages_people"`
	DirectReports            string `json:"direct_reports,omitempty"`
	KeyContacts              string `json:"key_contacts"`
	DecisionAuthority        string `json:"decision_authority"`
	InnovationProblemSolving string `json:"innovation_problem_solving"`
	ImpactOfResults          string `json:"impact_of_results"`
}

// JobDescription is the structured document produced by one generator provider.
type JobDescription struct {
	JobWorkingTitle     string   `json:"job_working_title"`
	Department          string   `json:"department"`
	ReportsTo           string   `json:"reports_to"`
	OverallPurpose      string   `json:"overall_purpose"`
	KeyResponsibilities []string `json:"key_responsibilities"`
	PeopleManagement    string   `json:"people_management,omitempty"`
	ContactsTypical     string   `json:"contacts_typical"`
	Innovation          string   `json:"innovation"`
	DecisionMaking      string   `json:"decision_making"`
	ImpactOfResults     string   `json:"impact_of_results"`
	WorkingConditions   string   `json:"working_conditions,omitempty"`
	Boilerplate         string   `json:"boilerplate,omitempty"`
}
