package interactive

import "fmt"

// DefaultsPrompter answers every question with its default. It backs
// --no-interaction: confirmations default to yes, so all pages are shown.
type DefaultsPrompter struct{}

func (DefaultsPrompter) Ask(label, def string) (string, error) {
	return def, nil
}

func (DefaultsPrompter) Choose(label string, options []string, defaultIndex int) (string, error) {
	if defaultIndex < 0 || defaultIndex >= len(options) {
		return "", fmt.Errorf("%s: a value is required when running without interaction", label)
	}
	return options[defaultIndex], nil
}

func (DefaultsPrompter) ChooseMany(label string, options []string) ([]string, error) {
	return nil, nil
}

func (DefaultsPrompter) Confirm(question string, def bool) (bool, error) {
	return def, nil
}
