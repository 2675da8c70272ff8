package workflow

// Stage is one step of the resume enhancement workflow.
type Stage string

const (
	StageUpload       Stage = "upload"
	StageAnalysis     Stage = "analysis"
	StageInterview    Stage = "interview"
	StageEnhancement  Stage = "enhancement"
	StageVerification Stage = "verification"
	StageDownload     Stage = "download"

	// StageDone is the terminal stage; the final resume is ready to download.
	StageDone = StageDownload
)

var orderedStages = []Stage{
	StageUpload,
	StageAnalysis,
	StageInterview,
	StageEnhancement,
	StageVerification,
	StageDownload,
}

var stageLabels = map[Stage]string{
	StageUpload:       "Resume Upload",
	StageAnalysis:     "Analysis",
	StageInterview:    "Interview",
	StageEnhancement:  "Enhancement",
	StageVerification: "Verification",
	StageDownload:     "Download",
}

// Stages returns the stages in workflow order.
func Stages() []Stage {
	out := make([]Stage, len(orderedStages))
	copy(out, orderedStages)
	return out
}

// Index reports the position of s in the workflow, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range orderedStages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Label is the human readable name shown in progress trackers.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage converts a stored stage name back into a Stage.
func ParseStage(v string) (Stage, bool) {
	s := Stage(v)
	return s, s.Valid()
}

type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepCurrent StepStatus = "current"
	StepPending StepStatus = "pending"
)

type Step struct {
	Stage  Stage      `json:"stage"`
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
}

// Progress marks every stage before current as done, current as current and the rest as pending.
func Progress(current Stage) []Step {
	idx := current.Index()
	steps := make([]Step, 0, len(orderedStages))
	for i, st := range orderedStages {
		status := StepPending
		switch {
		case i < idx:
			status = StepDone
		case i == idx:
			status = StepCurrent
		}
		steps = append(steps, Step{Stage: st, Label: st.Label(), Status: status})
	}
	return steps
}
