package workflow

import "strings"

// CorrectionWordThreshold is the word count above which a verifier response is
// treated as a corrected resume instead of a short confirmation.
const CorrectionWordThreshold = 200

// VerifiedMessage replaces the verification text when the verifier returned a corrected resume.
const VerifiedMessage = "The enhanced resume has been verified and corrected for accuracy."

// ApplyVerification decides what the verifier response means for the enhanced resume.
// A long response replaces the enhanced resume; a short one is kept as the verification note.
func ApplyVerification(enhanced, response string) (string, string) {
	if len(strings.Fields(response)) > CorrectionWordThreshold {
		return response, VerifiedMessage
	}
	return enhanced, response
}
