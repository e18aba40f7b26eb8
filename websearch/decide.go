package websearch

import (
	"strings"

	"github.com/voxhire/interviewd/retrieval"
)

// lowRelevance is the similarity floor below which bank hits are considered
// too weak to ground a question on.
const lowRelevance = 0.5

// Technologies that move fast enough that bank questions may be stale. A
// resume mentioning one of these during project deep dive triggers a search
// even when the bank has decent hits.
var freshTechKeywords = []string{
	"kubernetes",
	"kafka",
	"elasticsearch",
	"tensorflow",
	"pytorch",
}

// ShouldSearch decides whether a web search is needed to supplement the
// question bank for the current turn.
//
// Contract:
//   - empty bank results always trigger a search
//   - results whose scores are all below the relevance floor trigger a search
//   - during project deep dive, fresh-tech mentions in the resume trigger a
//     search regardless of bank quality
func ShouldSearch(bankResults []retrieval.Result, stage string, resumeText string) bool {
	if len(bankResults) == 0 {
		return true
	}

	allLow := true
	for _, r := range bankResults {
		if r.Score >= lowRelevance {
			allLow = false
			break
		}
	}
	if allLow {
		return true
	}

	if stage == "project_deep_dive" {
		resume := strings.ToLower(resumeText)
		for _, kw := range freshTechKeywords {
			if strings.Contains(resume, kw) {
				return true
			}
		}
	}
	return false
}
