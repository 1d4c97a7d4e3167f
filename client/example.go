package client

import (
	"context"
	"fmt"
	"time"
)

// ExampleUsage demonstrates the complete usage flow of the recommendation
// client: starting a session, answering its questions in order, refining
// the result with feedback, and applying a named quick adjustment.
func ExampleUsage() {
	ctx := context.Background()
	apiClient := NewClient(
		"http://localhost:8080",
		WithToken("your-auth-token"),
		WithTimeout(30*time.Second),
	)

	// 1. Start a session.
	start, err := apiClient.StartSession(ctx, &StartRequest{Domain: "movies"})
	if err != nil {
		fmt.Printf("start session failed: %v\n", err)
		return
	}
	fmt.Printf("started session %s, first question: %s\n", start.SessionID, start.Question.Prompt)

	// 2. Answer every question the planned flow asks for.
	sessionID := start.SessionID
	question := start.Question
	var recs []RecommendationItem
	for {
		if len(question.Options) == 0 {
			break
		}
		answer, err := apiClient.SubmitAnswer(ctx, sessionID, &AnswerRequest{
			QuestionID: question.ID,
			Answer:     question.Options[0].ID,
		})
		if err != nil {
			fmt.Printf("submit answer failed: %v\n", err)
			return
		}
		if answer.Complete() {
			recs = answer.Recommendations
			break
		}
		question = answer.Question
	}
	fmt.Printf("got %d recommendations\n", len(recs))

	// 3. Refine with feedback on the first couple of items.
	if len(recs) >= 2 {
		refined, err := apiClient.Refine(ctx, sessionID, &RefineRequest{
			Feedback: []Feedback{
				{MovieID: recs[0].ID, Reaction: ReactionDislike},
				{MovieID: recs[1].ID, Reaction: ReactionLike},
			},
		})
		if err != nil {
			fmt.Printf("refine failed: %v\n", err)
			return
		}
		fmt.Printf("refined via strategy %q, %d recommendations\n", refined.Strategy, len(refined.Recommendations))
	}

	// 4. Apply a named quick adjustment.
	adjusted, err := apiClient.Adjust(ctx, sessionID, "shorter")
	if err != nil {
		fmt.Printf("adjust failed: %v\n", err)
		return
	}
	fmt.Printf("applied adjustment %q, %d recommendations\n", adjusted.AdjustmentApplied, len(adjusted.Recommendations))

	// 5. Fetch the moment summary.
	moment, err := apiClient.GetMoment(ctx, sessionID)
	if err != nil {
		fmt.Printf("get moment failed: %v\n", err)
		return
	}
	fmt.Printf("moment: %s %s\n", moment.Emoji, moment.Description)
}
