package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danieljhkim/reorg/internal/reorg"
)

// promptConfirmer answers policy questions on the terminal. With yes set
// every question is approved without prompting.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPromptConfirmer(yes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(os.Stdin), out: os.Stderr, yes: yes}
}

func (p *promptConfirmer) ConfirmReadOnly(title, question string) bool {
	if p.yes {
		return true
	}
	_, _ = warningColor.Fprintf(p.out, "%s\n", title)
	return p.ask(question)
}

func (p *promptConfirmer) ConfirmOverwrite(candidates []reorg.Item) []reorg.Item {
	if p.yes {
		return candidates
	}
	var approved []reorg.Item
	for _, it := range candidates {
		if p.ask(fmt.Sprintf("%s already exists at the destination. Overwrite?", it.Name())) {
			approved = append(approved, it)
		}
	}
	return approved
}

// CreateTargetIfMissing only approves the creation; the engine creates the
// target in the model.
func (p *promptConfirmer) CreateTargetIfMissing(dest reorg.Destination) (string, bool) {
	if p.yes {
		return "", true
	}
	return "", p.ask(fmt.Sprintf("%s does not exist. Create it?", dest.Handle()))
}

// ask prompts the user for a yes/no confirmation.
func (p *promptConfirmer) ask(prompt string) bool {
	fmt.Fprintf(p.out, "%s (y/N): ", prompt)
	response, err := p.in.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
