package interactive

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const doneLabel = "Done"

// TUIPrompter shows each question as a small full-screen dialog. Esc cancels.
type TUIPrompter struct{}

func NewTUIPrompter() *TUIPrompter {
	return &TUIPrompter{}
}

func (t *TUIPrompter) Ask(label, def string) (string, error) {
	var (
		result  = def
		aborted bool
	)

	app := tview.NewApplication()
	input := tview.NewInputField().
		SetLabel(label + ": ").
		SetText(def).
		SetFieldWidth(60)
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if text := strings.TrimSpace(input.GetText()); text != "" {
				result = text
			}
		case tcell.KeyEscape:
			aborted = true
		default:
			return
		}
		app.Stop()
	})
	input.SetBorder(true).SetTitle(" Enter a value ")

	if err := app.SetRoot(centered(input, 80, 3), true).Run(); err != nil {
		return "", fmt.Errorf("TUI error: %w", err)
	}
	if aborted {
		return "", ErrAborted
	}
	return result, nil
}

func (t *TUIPrompter) Choose(label string, options []string, defaultIndex int) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options to choose from for %q", label)
	}

	var (
		result  string
		aborted bool
	)

	app := tview.NewApplication()
	list := tview.NewList().ShowSecondaryText(false)
	for _, option := range options {
		list.AddItem(tview.Escape(option), "", 0, nil)
	}
	if defaultIndex >= 0 && defaultIndex < len(options) {
		list.SetCurrentItem(defaultIndex)
	}
	list.SetSelectedFunc(func(index int, main, secondary string, shortcut rune) {
		result = options[index]
		app.Stop()
	})
	list.SetDoneFunc(func() {
		aborted = true
		app.Stop()
	})
	list.SetBorder(true).SetTitle(" " + label + " ")

	if err := app.SetRoot(centered(list, 60, listHeight(len(options))), true).Run(); err != nil {
		return "", fmt.Errorf("TUI error: %w", err)
	}
	if aborted {
		return "", ErrAborted
	}
	return result, nil
}

func (t *TUIPrompter) ChooseMany(label string, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}

	var aborted bool
	marked := make([]bool, len(options))

	app := tview.NewApplication()
	list := tview.NewList().ShowSecondaryText(false)
	for _, option := range options {
		list.AddItem(tview.Escape(checkboxLabel(option, false)), "", 0, nil)
	}
	list.AddItem(doneLabel, "", 0, nil)
	list.SetSelectedFunc(func(index int, main, secondary string, shortcut rune) {
		if index >= len(options) {
			app.Stop()
			return
		}
		marked[index] = !marked[index]
		list.SetItemText(index, tview.Escape(checkboxLabel(options[index], marked[index])), "")
	})
	list.SetDoneFunc(func() {
		aborted = true
		app.Stop()
	})
	list.SetBorder(true).SetTitle(" " + label + " (Enter toggles) ")

	if err := app.SetRoot(centered(list, 60, listHeight(len(options)+1)), true).Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	if aborted {
		return nil, ErrAborted
	}
	return markedOptions(options, marked), nil
}

func (t *TUIPrompter) Confirm(question string, def bool) (bool, error) {
	var (
		result  = def
		aborted bool
	)

	focus := 1
	if def {
		focus = 0
	}

	app := tview.NewApplication()
	modal := tview.NewModal().
		SetText(question).
		AddButtons([]string{"Yes", "No"}).
		SetFocus(focus).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			switch buttonIndex {
			case 0:
				result = true
			case 1:
				result = false
			default:
				aborted = true
			}
			app.Stop()
		})

	if err := app.SetRoot(modal, false).Run(); err != nil {
		return false, fmt.Errorf("TUI error: %w", err)
	}
	if aborted {
		return false, ErrAborted
	}
	return result, nil
}

func centered(content tview.Primitive, width, height int) tview.Primitive {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 10
	}

	return tview.NewGrid().
		SetRows(0, height, 0).
		SetColumns(0, width, 0).
		AddItem(content, 1, 1, 1, 1, 0, 0, true)
}

func listHeight(items int) int {
	// two rows of border
	height := items + 2
	if height > 20 {
		return 20
	}
	return height
}

func checkboxLabel(option string, marked bool) string {
	if marked {
		return "(*) " + option
	}
	return "( ) " + option
}

func markedOptions(options []string, marked []bool) []string {
	var picked []string
	for i, option := range options {
		if marked[i] {
			picked = append(picked, option)
		}
	}
	return picked
}
