package app

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"

	"github.com/neros29/mpx-Downloader/internal/media"
	"github.com/neros29/mpx-Downloader/internal/utils"
)

// Prompter asks the user questions on the terminal.
type Prompter interface {
	// Select returns the index of the chosen option.
	Select(message string, options []string) (int, error)
	Confirm(message string) (bool, error)
	Input(message string) (string, error)
}

// SurveyPrompter implements Prompter with survey prompts.
type SurveyPrompter struct{}

// NewPrompter creates the terminal prompter.
func NewPrompter() Prompter {
	return &SurveyPrompter{}
}

// Select shows a list and returns the index of the chosen option.
func (*SurveyPrompter) Select(message string, options []string) (int, error) {
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: len(options),
	}

	selectedIndex := 0
	if err := survey.AskOne(prompt, &selectedIndex); err != nil {
		return 0, err
	}

	return selectedIndex, nil
}

// Confirm asks a yes/no question. The default answer is no.
func (*SurveyPrompter) Confirm(message string) (bool, error) {
	var answer bool

	if err := survey.AskOne(&survey.Confirm{Message: message}, &answer); err != nil {
		return false, err
	}

	return answer, nil
}

// Input asks for a line of text.
func (*SurveyPrompter) Input(message string) (string, error) {
	var answer string

	if err := survey.AskOne(&survey.Input{Message: message}, &answer); err != nil {
		return "", err
	}

	return answer, nil
}

// isInteractive reports whether prompts can be shown.
func isInteractive() bool {
	fd := os.Stdin.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// chooseFormat lets the user pick one of the known containers.
func chooseFormat(p Prompter) (media.Container, error) {
	containers := media.All()
	options := utils.Map(containers, func(c media.Container) string {
		return fmt.Sprintf("%s - %s", c, c.Description())
	})

	index, err := p.Select("Select a download format:", options)
	if err != nil {
		return "", fmt.Errorf("format selection aborted: %w", err)
	}

	if index < 0 || index >= len(containers) {
		return "", fmt.Errorf("%w: option %d", media.ErrUnknownContainer, index)
	}

	return containers[index], nil
}
