package validate

import (
	"regexp"
	"strings"
)

// Actor tag ids implied by swimlane lane labels.
const (
	ActorSystem    = "actor-system"
	ActorStaff     = "actor-staff"
	ActorPartner   = "actor-partner"
	ActorApplicant = "actor-applicant"
)

var (
	actorPrefixRe = regexp.MustCompile(`(?i)^(system|staff|applicant|partner)\s*:\s*`)
	staffLaneRe   = regexp.MustCompile(`\b(staff|admin|reviewer|operator|agent)\b`)
	applicantRe   = regexp.MustCompile(`\b(applicant|customer|user|visitor|student)\b`)
	timeframeRe   = regexp.MustCompile(`(?i)\b(await|waiting|wait|queued|queue|2-4\s*weeks|weeks?|months?|within\s+one\s+month|mail|postal|partner\s+assessment|assessment|ica)\b`)
)

// ExpectedActor returns the actor tag a lane label implies, if any.
func ExpectedActor(label string) (string, bool) {
	s := strings.ToLower(label)
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "system"):
		return ActorSystem, true
	case staffLaneRe.MatchString(s):
		return ActorStaff, true
	case strings.Contains(s, "partner"):
		return ActorPartner, true
	case applicantRe.MatchString(s):
		return ActorApplicant, true
	}
	return "", false
}
