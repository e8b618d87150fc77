// Package interactive asks the user for tables, types, columns and
// confirmations, either line by line or with a small console UI.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrAborted is returned when the user cancels a prompt (Ctrl+C, Esc).
var ErrAborted = errors.New("aborted by user")

type Prompter interface {
	// Ask returns the entered text or def for an empty answer.
	Ask(label, def string) (string, error)
	// Choose returns one of options. defaultIndex < 0 means an answer is required.
	Choose(label string, options []string, defaultIndex int) (string, error)
	// ChooseMany returns the picked options in list order; an empty answer picks nothing.
	ChooseMany(label string, options []string) ([]string, error)
	Confirm(question string, def bool) (bool, error)
}

// Quit reports whether err means the user wants to stop rather than a failure.
func Quit(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrAborted)
}

type lineSource interface {
	readLine(prompt string) (string, error)
}

type LinePrompter struct {
	source lineSource
	out    io.Writer
}

// NewLinePrompter reads answers from r and writes prompts to out.
func NewLinePrompter(r io.Reader, out io.Writer) *LinePrompter {
	if r == nil {
		r = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	var reader *bufio.Reader
	if br, ok := r.(*bufio.Reader); ok {
		reader = br
	} else {
		reader = bufio.NewReader(r)
	}

	return &LinePrompter{
		source: &readerSource{reader: reader, out: out},
		out:    out,
	}
}

func (p *LinePrompter) Ask(label, def string) (string, error) {
	prompt := fmt.Sprintf("%s: ", label)
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, def)
	}

	input, err := p.source.readLine(prompt)
	if err != nil {
		return "", err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

func (p *LinePrompter) Choose(label string, options []string, defaultIndex int) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from for %q", label)
	}
	if defaultIndex >= len(options) {
		defaultIndex = -1
	}

	for {
		p.printOptions(label, options)

		prompt := fmt.Sprintf("Select (1-%d): ", len(options))
		if defaultIndex >= 0 {
			prompt = fmt.Sprintf("Select (1-%d) [%s]: ", len(options), options[defaultIndex])
		}
		input, err := p.source.readLine(prompt)
		if err != nil {
			return "", err
		}

		if input == "" {
			if defaultIndex >= 0 {
				return options[defaultIndex], nil
			}
			fmt.Fprintln(p.out, "Please choose an option.")
			continue
		}

		if index, ok := matchOption(input, options); ok {
			return options[index], nil
		}
		fmt.Fprintf(p.out, "Please select a number between 1 and %d.\n", len(options))
	}
}

func (p *LinePrompter) ChooseMany(label string, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}

	for {
		p.printOptions(label, options)

		input, err := p.source.readLine("Select one or more, separated by commas (empty for defaults): ")
		if err != nil {
			return nil, err
		}
		if input == "" {
			return nil, nil
		}

		picked, bad := pickMany(input, options)
		if bad != "" {
			fmt.Fprintf(p.out, "Unknown option %q.\n", bad)
			continue
		}
		return picked, nil
	}
}

func (p *LinePrompter) Confirm(question string, def bool) (bool, error) {
	suffix := "(y/N)"
	if def {
		suffix = "(Y/n)"
	}

	for {
		input, err := p.source.readLine(fmt.Sprintf("%s %s ", question, suffix))
		if err != nil {
			return false, err
		}

		if input == "" {
			return def, nil
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(p.out, "Please answer with y or n.")
		}
	}
}

func (p *LinePrompter) printOptions(label string, options []string) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "%s:\n", label)
	for i, option := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, option)
	}
}

// matchOption accepts a 1-based number or the option text itself.
func matchOption(input string, options []string) (int, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}
	for i, option := range options {
		if option == input {
			return i, true
		}
	}
	return 0, false
}

func pickMany(input string, options []string) ([]string, string) {
	selected := make(map[int]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		index, ok := matchOption(part, options)
		if !ok {
			return nil, part
		}
		selected[index] = true
	}

	var picked []string
	for i, option := range options {
		if selected[i] {
			picked = append(picked, option)
		}
	}
	return picked, ""
}

type readerSource struct {
	reader *bufio.Reader
	out    io.Writer
}

func (s *readerSource) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
