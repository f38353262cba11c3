// Package passphrase reads passphrases from the user.
package passphrase

import (
	"errors"
	"fmt"
	"io"

	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/secure"
)

// MaxAttempts is the total number of tries, confirmation included.
const MaxAttempts = 5

const (
	EnterPrompt   = "Enter passphrase: "
	ConfirmPrompt = "Confirm passphrase: "
)

// LineReader reads a single line of secret input.
type LineReader interface {
	// ReadLine shows prompt (when appropriate) and returns the line
	// without its terminator. io.EOF means no more input is available.
	ReadLine(prompt string) (*secure.Buffer, error)
}

// Prompter asks for passphrases with bounded retries.
type Prompter struct {
	reader LineReader
	logger *events.Logger
}

// NewPrompter creates a prompter on top of reader.
func NewPrompter(reader LineReader, logger *events.Logger) *Prompter {
	return &Prompter{
		reader: reader,
		logger: logger.WithField("component", "passphrase"),
	}
}

// Passphrase reads a non-empty passphrase. With confirm set the passphrase
// must be entered twice identically; a mismatch starts over. An empty
// prompt means EnterPrompt.
func (p *Prompter) Passphrase(prompt string, confirm bool) (*secure.Buffer, error) {
	if prompt == "" {
		prompt = EnterPrompt
	}
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		pass, err := p.attempt(prompt, confirm)
		if err == nil {
			return pass, nil
		}
		if !errors.Is(err, models.ErrPassphraseEmpty) && !errors.Is(err, models.ErrPassphraseMismatch) {
			return nil, err
		}

		p.logger.WithFields(map[string]interface{}{
			"attempt":      attempt,
			"max_attempts": MaxAttempts,
		}).Warn(capitalize(err.Error()))
		lastErr = err
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", models.ErrRetriesExhausted, MaxAttempts, lastErr)
}

func (p *Prompter) attempt(prompt string, confirm bool) (*secure.Buffer, error) {
	pass, err := p.read(prompt)
	if err != nil {
		return nil, err
	}
	if pass.Len() == 0 {
		pass.Zero()
		return nil, models.ErrPassphraseEmpty
	}
	if !confirm {
		return pass, nil
	}

	again, err := p.read(ConfirmPrompt)
	if err != nil {
		pass.Zero()
		return nil, err
	}
	defer again.Zero()

	if !pass.Equal(again) {
		pass.Zero()
		return nil, models.ErrPassphraseMismatch
	}
	return pass, nil
}

func (p *Prompter) read(prompt string) (*secure.Buffer, error) {
	line, err := p.reader.ReadLine(prompt)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read passphrase: unexpected end of input", models.ErrIO)
		}
		return nil, fmt.Errorf("%w: read passphrase: %v", models.ErrIO, err)
	}
	return line, nil
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
