package review

// Verdict is the terminal outcome of a document review. APPROVED is only
// ever produced by parsing generation output; pipeline code asserts the
// other two.
type Verdict string

const (
	VerdictApproved      Verdict = "APPROVED"
	VerdictNeedsRevision Verdict = "NEEDS-REVISION"
	VerdictRejected      Verdict = "REJECTED"
)

// Stage is a step of the review state machine, in strict order.
type Stage string

const (
	StageUploaded   Stage = "uploaded"
	StageExtracting Stage = "extracting"
	StageAnalyzing  Stage = "analyzing"
	StageScopeGate  Stage = "scope_gate"
	StageRetrieving Stage = "retrieving"
	StageDrafting   Stage = "drafting"
)

// DocumentAnalysis is the structured extraction of an uploaded document,
// produced once per review by the analysis collaborator. A nil analysis is a
// valid degraded state.
type DocumentAnalysis struct {
	DocumentType      string   `json:"document_type" jsonschema_description:"Document kind, e.g. work_instruction, test_report, bonding_plan, certificate, drawing, other"`
	Title             string   `json:"title" jsonschema_description:"Document title as stated, or empty"`
	Materials         []string `json:"materials" jsonschema_description:"Adhesives and substrates the document names"`
	StandardsCited    []string `json:"standards_cited" jsonschema_description:"Standards cited, with version or year where stated"`
	Certificates      []string `json:"certificates" jsonschema_description:"Certificates the document names"`
	TestResults       []string `json:"test_results" jsonschema_description:"Test results the document reports"`
	DRSItems          []string `json:"drs_items" jsonschema_description:"Design requirement specification items referenced"`
	ExistingApprovals []string `json:"existing_approvals" jsonschema_description:"Approvals the document claims to already hold"`
	SuggestedQueries  []string `json:"suggested_queries" jsonschema_description:"Up to five corpus retrieval queries specific to this document"`
	Flags             []string `json:"flags" jsonschema_description:"Anything unusual: missing signatures, superseded standards, safety-critical scope, inconsistent values"`
}

// Event is a progress signal emitted while a review runs.
//
// Type is one of:
//   - "stage"    → Stage carries the stage just entered
//   - "content"  → Content carries a report token
//   - "citation" → Content carries one formatted citation line
//   - "verdict"  → Content carries the final verdict
type Event struct {
	Type    string `json:"type"`
	Stage   Stage  `json:"stage,omitempty"`
	Content string `json:"content,omitempty"`
}

// Result is the final outcome of a review.
type Result struct {
	Verdict         Verdict  `json:"verdict"`
	Report          string   `json:"report"`
	Citations       []string `json:"citations,omitempty"`
	CriticalReasons []string `json:"critical_reasons,omitempty"`
}
