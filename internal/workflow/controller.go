package workflow

// NextStage derives the stage a session belongs in from which artifacts exist.
// It only looks at presence, so adding artifacts never moves the result backwards.
func NextStage(a Artifacts, t Transcript) Stage {
	switch {
	case a.ResumeText == "":
		return StageUpload
	case a.Analysis == "":
		return StageAnalysis
	case a.Questions == "":
		return StageAnalysis
	case len(t) <= MinTranscriptTurns:
		return StageInterview
	case a.Insights == "":
		return StageEnhancement
	case a.EnhancedResume == "":
		return StageEnhancement
	case a.Verification == "":
		return StageVerification
	default:
		return StageDone
	}
}
