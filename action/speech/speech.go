// Package speech implements the text to speech action.
package speech

import (
	"context"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/joyremap/joyremap/action"
	"github.com/joyremap/joyremap/input"
)

// Tag is the XML tag claimed by this plugin.
const Tag = "text-to-speech"

func init() {
	action.Register(action.Registration{
		Name: "Text to Speech",
		Tag:  Tag,
		InputKinds: []input.Kind{
			input.KindAxis, input.KindButton, input.KindHat, input.KindKeyboard,
		},
		Constructor: func() action.Action { return &Action{} },
	})
}

// Action voices a text when triggered. The text may reference
// {{.CurrentMode}}, substituted at execution time.
type Action struct {
	Text string `xml:"text,attr"`
}

// Tag implements action.Action.
func (a *Action) Tag() string { return Tag }

// Validate implements action.Action.
func (a *Action) Validate() error {
	if len(a.Text) == 0 {
		return errors.New("text to speech action requires a text")
	}
	if _, err := a.render("Default"); err != nil {
		return errors.Wrap(err, "invalid text substitution")
	}
	return nil
}

func (a *Action) render(currentMode string) (string, error) {
	tpl, err := template.New("speech").Parse(a.Text)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	err = tpl.Execute(&out, struct{ CurrentMode string }{CurrentMode: currentMode})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// Execute implements action.Action.
func (a *Action) Execute(ctx context.Context, env action.Env, ev input.Event) error {
	if ev.Event == input.ButtonRelease {
		return nil
	}
	text, err := a.render(env.CurrentMode())
	if err != nil {
		return errors.Wrap(err, "failed to substitute speech text")
	}
	return env.Speak(ctx, text)
}

// Code implements action.Action.
func (a *Action) Code(idx int) (string, interface{}) {
	return Tag, struct{ Text string }{Text: a.Text}
}
