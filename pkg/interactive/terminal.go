package interactive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
)

// TerminalPrompter is a LinePrompter backed by readline, giving line editing
// on a real terminal.
type TerminalPrompter struct {
	*LinePrompter
	rl *readline.Instance
}

func NewTerminalPrompter() (*TerminalPrompter, error) {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}

	return &TerminalPrompter{
		LinePrompter: &LinePrompter{source: &readlineSource{rl: rl}, out: os.Stdout},
		rl:           rl,
	}, nil
}

func (t *TerminalPrompter) Close() error {
	return t.rl.Close()
}

type readlineSource struct {
	rl *readline.Instance
}

func (s *readlineSource) readLine(prompt string) (string, error) {
	s.rl.SetPrompt(prompt)
	line, err := s.rl.ReadLine()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", ErrAborted
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
