package council

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
)

const primeMinisterName = "Prime Minister"

const tieBreakSystemPrompt = "You are the Prime Minister and there is a TIE in the council voting. You must cast the deciding vote."

func memberSystemPrompt(c *domain.Council, m domain.Member) string {
	var b strings.Builder
	if c.UniversalPrompt != "" {
		b.WriteString(c.UniversalPrompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Your specific role and personality:\n")
	b.WriteString(m.Personality)
	return b.String()
}

func userContext(c *domain.Council) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User attributes: %s\n", strings.Join(c.User.Attributes, ", "))
	if c.User.Goal != "" {
		fmt.Fprintf(&b, "User goal: %s\n", c.User.Goal)
	}
	return b.String()
}

func respondPrompt(c *domain.Council, question string) string {
	return fmt.Sprintf(`User context:
%s
User's question/problem:
%s

Provide your advice based on your unique perspective and expertise.`, userContext(c), question)
}

// votePrompt shows the ballot without authorship.
func votePrompt(c *domain.Council, voter domain.Member, question string, s *domain.Session, ballot Ballot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User context:\n%s\n", userContext(c))
	b.WriteString("You are now voting on the best response to the user's question. ")
	b.WriteString("Evaluate all the responses below and choose the ONE that best addresses the question from your unique perspective.\n\n")
	b.WriteString("IMPORTANT: The responses are presented anonymously. Focus only on content quality and relevance to the user's needs.\n\n")
	fmt.Fprintf(&b, "Original user question:\n%s\n\nHere are the responses to evaluate:\n", question)
	writeOptions(&b, s, ballot)
	fmt.Fprintf(&b, "\nBased on your evaluation criteria as %s, which response is best?\n\n", voter.Name)
	fmt.Fprintf(&b, "Respond with ONLY the number of your choice (1-%d) followed by your detailed reasoning.\n", ballot.Len())
	b.WriteString(`Example: "3 - I choose this response because it provides concrete, actionable steps."`)
	b.WriteString("\n\nYour reasoning will be logged for transparency and audit purposes.")
	return b.String()
}

func tieBreakPrompt(question string, s *domain.Session, tied Ballot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original user question:\n%s\n\n", question)
	fmt.Fprintf(&b, "The following responses are tied with %d vote(s) each:\n", s.Tally[tied.ids[0]])
	writeOptions(&b, s, tied)
	b.WriteString("\nAs Prime Minister, you must choose which response best addresses the user's question.\n\n")
	fmt.Fprintf(&b, "Respond with ONLY the number of your choice (1-%d) followed by a brief explanation of your reasoning.\n", tied.Len())
	b.WriteString(`Example: "2 - I choose this response because..."`)
	return b.String()
}

func writeOptions(b *strings.Builder, s *domain.Session, ballot Ballot) {
	for i, id := range ballot.ids {
		r, _ := s.Response(id)
		fmt.Fprintf(b, "\nOption %d:\n%s\n\n---\n", i+1, r.Text)
	}
}

func decisionPrompt(question string, s *domain.Session) string {
	votersFor := make(map[uuid.UUID][]string)
	for _, v := range s.Votes {
		votersFor[v.ChosenResponseID] = append(votersFor[v.ChosenResponseID], v.Voter)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Original user question:\n%s\n\nCouncil responses and voting results:\n", question)
	for _, r := range s.Successful() {
		voters := votersFor[r.ID]
		fmt.Fprintf(&b, "\nResponse from %s:\n%s\nVotes received: %d", r.Author, r.Text, len(voters))
		if len(voters) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(voters, ", "))
		}
		b.WriteString("\n")
		for _, v := range s.Votes {
			if v.ChosenResponseID == r.ID {
				fmt.Fprintf(&b, "  Reasoning from %s: %s\n", v.Voter, v.Reasoning)
			}
		}
		b.WriteString("\n---\n")
	}

	if s.Winner != nil {
		w, _ := s.Response(*s.Winner)
		fmt.Fprintf(&b, "\nWinning response: %s", w.Author)
		if s.TieBreak != nil {
			b.WriteString(" (tie broken by the Prime Minister)")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\nNo valid votes were cast.\n")
	}

	b.WriteString("\nBased on the council's advice and the voting results, provide your final decision and reasoning.")
	return b.String()
}

func opinionPrompt(question string, reviewer domain.Member, target domain.Response) string {
	return fmt.Sprintf(`Original user question:
%s

Response from %s:
%s

As %s, provide your professional opinion on this response. Consider:
- Strengths and weaknesses of the approach
- Missing considerations or perspectives
- How it could be improved or extended
- Whether you agree or disagree and why

Be constructive and specific in your feedback.`, question, target.Author, target.Text, reviewer.Name)
}

func refinePrompt(question string, author domain.Member, original domain.Response, opinions []domain.Opinion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original user question:\n%s\n\nYour original response:\n%s\n\nColleagues' opinions on your response:\n", question, original.Text)
	if len(opinions) == 0 {
		b.WriteString("\n(No colleague opinions were received.)\n")
	}
	for _, op := range opinions {
		fmt.Fprintf(&b, "\nOpinion from %s:\n%s\n\n---\n", op.Reviewer, op.Text)
	}
	fmt.Fprintf(&b, `
As %s, please provide a thoughtful response to these opinions. You may:
- Acknowledge valid points and incorporate them
- Clarify or defend aspects of your original response
- Expand on areas that colleagues highlighted
- Adjust your recommendations based on the feedback

Provide a refined perspective that takes the opinions into account.`, author.Name)
	return b.String()
}

func synthesisPrompt(question string, s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original user question:\n%s\n\nROUND 1 - Initial Council Responses:\n", question)
	for _, r := range s.Successful() {
		fmt.Fprintf(&b, "\n%s:\n%s\n\n---\n", r.Author, r.Text)
	}

	b.WriteString("\nROUND 2 - Peer Opinions on Initial Responses:\n")
	for _, r := range s.Successful() {
		first := true
		for _, op := range s.Opinions {
			if op.TargetResponseID != r.ID || op.HasError {
				continue
			}
			if first {
				fmt.Fprintf(&b, "\nOpinions on %s's response:\n", r.Author)
				first = false
			}
			fmt.Fprintf(&b, "\n  Opinion from %s:\n  %s\n", op.Reviewer, op.Text)
		}
	}

	b.WriteString("\nROUND 3 - Original Advisors' Responses to Opinions:\n")
	for _, rr := range s.Refined {
		if rr.HasError {
			continue
		}
		fmt.Fprintf(&b, "\n%s's response to colleague opinions:\n%s\n\n---\n", rr.Author, rr.Text)
	}

	b.WriteString(`
Based on this three-round advisory process, synthesize the collective wisdom into the most helpful and well-reasoned response for the user. Consider:
- The initial diverse perspectives and their individual strengths
- The constructive peer feedback and critical analysis
- How the original advisors refined their thinking based on colleague input
- Areas of consensus and productive disagreement

Provide a final recommendation that represents the best of the collective advisory process.`)
	return b.String()
}
