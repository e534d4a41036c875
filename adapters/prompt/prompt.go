// Package prompt provides interactive CLI input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/ports"
)

// Prompter handles interactive CLI input.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
	stdin  bool
}

// NewPrompter creates a prompter reading from stdin.
func NewPrompter() *Prompter {
	return &Prompter{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		stdin:  true,
	}
}

// NewPrompterWith creates a prompter over arbitrary streams (for
// testing and piped input).
func NewPrompterWith(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		out:    w,
	}
}

// Prompt displays a label and reads a line of input.
func (p *Prompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptSecret displays a label and reads input without echoing it.
func (p *Prompter) PromptSecret(label string) (string, error) {
	fmt.Fprint(p.out, label)

	if p.stdin {
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			password, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			return string(password), nil
		}
	}

	// Fallback for non-terminal (e.g., piped input)
	return p.Prompt("")
}

// Confirm prompts for yes/no confirmation.
func (p *Prompter) Confirm(label string) (bool, error) {
	response, err := p.Prompt(label + " [y/N]: ")
	if err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}

// PromptForAttributes prompts for required schema attributes that are
// still missing a non-default value. Entered values are parsed per the
// attribute type. Existing values are carried over untouched.
func (p *Prompter) PromptForAttributes(schema *category.Schema, existing map[string]any) (map[string]any, error) {
	result := make(map[string]any)
	for k, v := range existing {
		result[k] = v
	}

	for _, name := range schema.Required() {
		attr, ok := schema.Lookup(name)
		if !ok {
			continue
		}
		if v, present := result[name]; present {
			if attr.Default == nil || !category.ValuesEqual(v, attr.Default) {
				continue
			}
		}

		label := fmt.Sprintf("%s (%s, required): ", name, attr.Type)
		raw, err := p.Prompt(label)
		if err != nil {
			return nil, err
		}
		if raw == "" {
			return nil, fmt.Errorf("attribute %q is required", name)
		}

		value, err := category.ParseValue(attr.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		result[name] = value
	}

	return result, nil
}

// Ensure interface compliance.
var _ ports.CredentialPrompter = (*Prompter)(nil)
