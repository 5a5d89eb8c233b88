package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/offlinefirst/robodesk/pkg/input"
	"github.com/offlinefirst/robodesk/pkg/macro"
)

// PromptKind selects which characters a prompt accepts.
type PromptKind int

const (
	// PromptName accepts letters, digits and underscores, not starting with a digit.
	PromptName PromptKind = iota
	// PromptValue accepts any printable character.
	PromptValue
)

// PromptRequest describes one prompt. Held lists keys that were down when
// the prompt opened, typically the hotkey chord that triggered it.
type PromptRequest struct {
	Label string
	Kind  PromptKind
	Held  []macro.Key
}

// Prompter asks the operator for a line of text. An empty result means the
// operator cancelled.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (string, error)
}

// PrompterFunc adapts a function literal to the Prompter interface.
type PrompterFunc func(ctx context.Context, req PromptRequest) (string, error)

// Prompt calls the underlying function.
func (f PrompterFunc) Prompt(ctx context.Context, req PromptRequest) (string, error) {
	return f(ctx, req)
}

var errPromptListenerClosed = errors.New("prompt listener closed unexpectedly")

// HookPrompter reads text from the global input hook, so the operator can
// answer without focusing the terminal. Accepted characters are echoed to Out.
type HookPrompter struct {
	Hook input.Hook
	Out  io.Writer
}

// Prompt reads until Enter (with at least one character) or until Esc is
// pressed and released. Releases of keys held before the prompt opened are
// ignored, so the Esc of a hotkey chord does not cancel it. Keys in req.Held
// are also ignored while they auto-repeat, until their release arrives.
func (p *HookPrompter) Prompt(ctx context.Context, req PromptRequest) (string, error) {
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	kind := req.Kind
	fmt.Fprintf(out, "%s (ESC to cancel): ", req.Label)

	listener, err := p.Hook.Listen(ctx)
	if err != nil {
		fmt.Fprintln(out)
		return "", fmt.Errorf("open prompt listener: %w", err)
	}
	defer listener.Stop()

	seeded := make(map[macro.Key]bool, len(req.Held))
	for _, key := range req.Held {
		seeded[key.Canonical()] = true
	}
	held := make(map[macro.Key]bool)
	var chars []rune
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return "", ctx.Err()
		case ev, ok := <-listener.Events():
			if !ok {
				fmt.Fprintln(out)
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", errPromptListenerClosed
			}
			key := ev.Key.Canonical()

			switch ev.Kind {
			case macro.KindKeyPress:
				if seeded[key] {
					continue
				}
				held[key] = true
				switch key {
				case macro.KeyEnter:
					if len(chars) > 0 {
						fmt.Fprintln(out)
						return string(chars), nil
					}
				case macro.KeyBackspace:
					if len(chars) > 0 {
						chars = chars[:len(chars)-1]
						fmt.Fprint(out, "\b \b")
					}
				default:
					r, ok := typedRune(ev.Key, held[macro.KeyShift])
					if ok && accepts(kind, r, len(chars) == 0) {
						chars = append(chars, r)
						fmt.Fprint(out, string(r))
					}
				}
			case macro.KindKeyRelease:
				if seeded[key] {
					delete(seeded, key)
					continue
				}
				if !held[key] {
					continue
				}
				delete(held, key)
				if key == macro.KeyEsc {
					fmt.Fprintln(out)
					return "", nil
				}
			}
		}
	}
}

func typedRune(key macro.Key, shift bool) (rune, bool) {
	if key.Canonical() == macro.KeySpace {
		return ' ', true
	}
	r, ok := key.Char()
	if !ok {
		return 0, false
	}
	if shift {
		r = unicode.ToUpper(r)
	}
	return r, true
}

func accepts(kind PromptKind, r rune, first bool) bool {
	if kind == PromptValue {
		return unicode.IsPrint(r)
	}
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return unicode.IsDigit(r) && !first
}
