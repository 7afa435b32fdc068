// Package prompt provides interactive terminal prompts for collecting user input.
package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jayteealao/gitbean/internal/validate"
)

// Identity is the author identity collected by IdentityForm.
type Identity struct {
	Name  string
	Email string
}

// CommitMessage prompts for a commit message, offering suggestion as the
// starting value.
func CommitMessage(path, suggestion string) (string, error) {
	value := suggestion

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Commit message").
				Description(fmt.Sprintf("Describe the change to %s", path)).
				Value(&value).
				Validate(required),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// IdentityForm prompts for the author name and email, starting from current.
func IdentityForm(current Identity) (Identity, error) {
	id := current

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Author name").
				Description("Recorded as the author of your commits").
				Value(&id.Name).
				Validate(required),
			huh.NewInput().
				Title("Author email").
				Value(&id.Email).
				Placeholder("you@example.com").
				Validate(validate.Email),
		),
	)

	if err := form.Run(); err != nil {
		return Identity{}, err
	}

	id.Name = strings.TrimSpace(id.Name)
	return id, nil
}

// ConfirmAction prompts the user to confirm an action with yes/no.
func ConfirmAction(title, description string) (bool, error) {
	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed).
				Affirmative("Yes").
				Negative("No"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}

// DefaultCommitMessage suggests a message for an operation on path.
func DefaultCommitMessage(operation, path string) string {
	switch operation {
	case "write":
		return "Update " + strings.TrimPrefix(path, "/")
	case "remove":
		return "Remove " + strings.TrimPrefix(path, "/")
	default:
		return operation + " " + strings.TrimPrefix(path, "/")
	}
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}
