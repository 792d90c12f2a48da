package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/vigil/internal/adapters/llm"
	"github.com/okian/vigil/internal/domain/tier"
	"github.com/okian/vigil/internal/domain/warning"
	"github.com/okian/vigil/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// scriptedCompleter replays canned replies, one per call.
type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

func validReply() string {
	body := map[string]any{
		"message":              strings.Repeat("You have shown real potential in this program and we want to see you succeed. ", 4),
		"tone":                 "firm_supportive",
		"key_points":           []string{"check-in compliance", "milestone progress"},
		"requirements":         []string{"Submit weekly check-ins on time", "Meet with your mentor"},
		"timeline":             "2 weeks",
		"recommended_followup": "Schedule 1-on-1 check-in in 1 week",
	}
	out, _ := json.Marshal(body)
	return string(out)
}

func draftRequest() Request {
	return Request{
		FellowID:   "f-1",
		FellowName: "Jordan",
		Role:       "Backend Engineer",
		Week:       6,
		Level:      warning.LevelFirst,
		Tier:       tier.AtRisk,
		Score:      0.58,
		Concerns:   []string{"Low check-in rate: 30%", "Negative sentiment: -0.40"},
	}
}

func TestDraft(t *testing.T) {
	Convey("Given a drafter over a scripted completer", t, func() {
		Convey("When the model replies with valid JSON", func() {
			c := &scriptedCompleter{replies: []string{validReply()}}
			d, err := NewDrafter(c)
			So(err, ShouldBeNil)

			draft, err := d.Draft(context.Background(), draftRequest())

			Convey("Then the draft is returned in one call", func() {
				So(err, ShouldBeNil)
				So(c.calls, ShouldEqual, 1)
				So(draft.Tone, ShouldEqual, "firm_supportive")
				So(len(draft.Requirements), ShouldEqual, 2)
				So(draft.Timeline, ShouldEqual, "2 weeks")
			})
		})

		Convey("When the model wraps the JSON in a fenced block", func() {
			c := &scriptedCompleter{replies: []string{"```json\n" + validReply() + "\n```"}}
			d, _ := NewDrafter(c)

			_, err := d.Draft(context.Background(), draftRequest())

			Convey("Then the fence is tolerated", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the reply is missing requirements", func() {
			bad := `{"message": "` + strings.Repeat("x", 250) + `", "tone": "serious", "key_points": ["a"], "timeline": "1 week"}`

			Convey("And a retry produces a valid reply", func() {
				c := &scriptedCompleter{replies: []string{bad, validReply()}}
				d, _ := NewDrafter(c)

				_, err := d.Draft(context.Background(), draftRequest())

				Convey("Then the draft succeeds on the second call", func() {
					So(err, ShouldBeNil)
					So(c.calls, ShouldEqual, 2)
				})
			})

			Convey("And every retry stays malformed", func() {
				c := &scriptedCompleter{replies: []string{bad}}
				d, _ := NewDrafter(c, WithParseRetries(2))

				_, err := d.Draft(context.Background(), draftRequest())

				Convey("Then the calls stop at the bound and the raw reply is attached", func() {
					So(c.calls, ShouldEqual, 3)
					var perr *ParseError
					So(errors.As(err, &perr), ShouldBeTrue)
					So(perr.Reason, ShouldContainSubstring, "requirements")
					So(perr.Raw, ShouldEqual, bad)
				})
			})
		})

		Convey("When the model call times out", func() {
			c := &scriptedCompleter{err: fmt.Errorf("wrapped: %w", llm.ErrTimeout)}
			d, _ := NewDrafter(c)

			_, err := d.Draft(context.Background(), draftRequest())

			Convey("Then the draft is abandoned with ErrDraftTimeout", func() {
				So(errors.Is(err, ErrDraftTimeout), ShouldBeTrue)
				So(c.calls, ShouldEqual, 1)
			})
		})

		Convey("When the request has no concerns", func() {
			c := &scriptedCompleter{replies: []string{validReply()}}
			d, _ := NewDrafter(c)
			req := draftRequest()
			req.Concerns = nil

			_, err := d.Draft(context.Background(), req)

			Convey("Then the model is never called", func() {
				So(errors.Is(err, ErrEmptyConcerns), ShouldBeTrue)
				So(c.calls, ShouldEqual, 0)
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given raw model replies", t, func() {
		Convey("When the message is too short", func() {
			short := `{"message": "do better", "tone": "serious", "key_points": ["a"], "requirements": ["b"], "timeline": "1 week"}`
			_, err := Parse(short, 200)

			var perr *ParseError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Reason, ShouldContainSubstring, "too short")
		})

		Convey("When the tone is not a known value", func() {
			bad := `{"message": "` + strings.Repeat("x", 250) + `", "tone": "angry", "key_points": ["a"], "requirements": ["b"], "timeline": "1 week"}`
			_, err := Parse(bad, 200)

			var perr *ParseError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Reason, ShouldContainSubstring, "tone")
		})

		Convey("When the reply has no JSON at all", func() {
			_, err := Parse("I cannot help with that.", 200)

			var perr *ParseError
			So(errors.As(err, &perr), ShouldBeTrue)
			So(perr.Raw, ShouldEqual, "I cannot help with that.")
		})

		Convey("When prose surrounds the object", func() {
			wrapped := "Here is the draft:\n" + validReply() + "\nLet me know."
			_, err := Parse(wrapped, 200)
			So(err, ShouldBeNil)
		})
	})
}
