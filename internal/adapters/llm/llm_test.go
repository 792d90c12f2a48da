package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/genai"

	"github.com/okian/vigil/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewGemini(t *testing.T) {
	Convey("Given a Gemini completer constructor", t, func() {
		Convey("When the API key is empty", func() {
			_, err := NewGemini(context.Background(), "")

			Convey("Then construction fails up front", func() {
				So(errors.Is(err, ErrMissingAPIKey), ShouldBeTrue)
			})
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given completer options", t, func() {
		g := &Gemini{
			model:      "gemini-2.5-flash",
			timeout:    30 * time.Second,
			maxRetries: 3,
		}

		Convey("When options are applied", func() {
			for _, opt := range []Option{
				WithModel("gemini-2.5-pro"),
				WithTimeout(5 * time.Second),
				WithMaxRetries(1),
				WithTemperature(0.7),
			} {
				opt(g)
			}

			Convey("Then the completer reflects them", func() {
				So(g.model, ShouldEqual, "gemini-2.5-pro")
				So(g.timeout, ShouldEqual, 5*time.Second)
				So(g.maxRetries, ShouldEqual, 1)
				So(g.temperature, ShouldEqual, float32(0.7))
			})
		})

		Convey("When options carry zero values", func() {
			for _, opt := range []Option{
				WithModel(""),
				WithTimeout(0),
				WithMaxRetries(-1),
			} {
				opt(g)
			}

			Convey("Then the defaults survive", func() {
				So(g.model, ShouldEqual, "gemini-2.5-flash")
				So(g.timeout, ShouldEqual, 30*time.Second)
				So(g.maxRetries, ShouldEqual, 3)
			})
		})
	})
}

func TestIsRateLimited(t *testing.T) {
	Convey("Given provider errors", t, func() {
		Convey("Then a 429 API error is recognized", func() {
			err := fmt.Errorf("call failed: %w", genai.APIError{Code: 429, Message: "quota"})
			So(isRateLimited(err), ShouldBeTrue)
		})

		Convey("Then other API errors are not", func() {
			err := genai.APIError{Code: 500, Message: "internal"}
			So(isRateLimited(err), ShouldBeFalse)
		})

		Convey("Then plain errors are not", func() {
			So(isRateLimited(errors.New("boom")), ShouldBeFalse)
		})
	})
}
