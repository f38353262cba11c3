package passphrase_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/passphrase"
	"github.com/TheMichaelB/dircrypt/internal/secure"
)

// scriptedReader replays lines and records the prompts it was shown.
type scriptedReader struct {
	lines   []string
	prompts []string
	err     error
}

func (r *scriptedReader) ReadLine(prompt string) (*secure.Buffer, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return secure.BufferFrom([]byte(line)), nil
}

func newPrompter(r passphrase.LineReader) (*passphrase.Prompter, *bytes.Buffer) {
	var buf bytes.Buffer
	return passphrase.NewPrompter(r, events.NewTestLogger(events.DebugLevel, "text", &buf)), &buf
}

func TestPassphraseSingleEntry(t *testing.T) {
	r := &scriptedReader{lines: []string{"secret"}}
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("", false)
	require.NoError(t, err)
	defer pass.Zero()

	assert.Equal(t, []byte("secret"), pass.Bytes())
	assert.Equal(t, []string{passphrase.EnterPrompt}, r.prompts)
}

func TestPassphraseCustomPrompt(t *testing.T) {
	r := &scriptedReader{lines: []string{"secret"}}
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("Passphrase for /data: ", false)
	require.NoError(t, err)
	pass.Zero()

	assert.Equal(t, []string{"Passphrase for /data: "}, r.prompts)
}

func TestPassphraseConfirmation(t *testing.T) {
	r := &scriptedReader{lines: []string{"secret", "secret"}}
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("", true)
	require.NoError(t, err)
	defer pass.Zero()

	assert.Equal(t, []byte("secret"), pass.Bytes())
	assert.Equal(t, []string{passphrase.EnterPrompt, passphrase.ConfirmPrompt}, r.prompts)
}

func TestPassphraseMismatchThenMatch(t *testing.T) {
	r := &scriptedReader{lines: []string{"a", "b", "secret", "secret"}}
	p, logs := newPrompter(r)

	pass, err := p.Passphrase("", true)
	require.NoError(t, err)
	defer pass.Zero()

	assert.Equal(t, []byte("secret"), pass.Bytes())
	assert.Len(t, r.prompts, 4)
	assert.Contains(t, logs.String(), "Passphrase mismatch")
}

func TestPassphraseEmptyIsRejected(t *testing.T) {
	r := &scriptedReader{lines: []string{"", "", "secret"}}
	p, logs := newPrompter(r)

	pass, err := p.Passphrase("", false)
	require.NoError(t, err)
	defer pass.Zero()

	assert.Equal(t, []byte("secret"), pass.Bytes())
	assert.Contains(t, logs.String(), "Passphrase cannot be empty")
}

func TestPassphraseEmptyNeverAsksForConfirmation(t *testing.T) {
	r := &scriptedReader{lines: []string{"", "secret", "secret"}}
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("", true)
	require.NoError(t, err)
	pass.Zero()

	assert.Equal(t, []string{
		passphrase.EnterPrompt,
		passphrase.EnterPrompt,
		passphrase.ConfirmPrompt,
	}, r.prompts)
}

func TestPassphraseRetriesExhausted(t *testing.T) {
	var lines []string
	for i := 0; i < passphrase.MaxAttempts+1; i++ {
		lines = append(lines, "a", "b")
	}
	r := &scriptedReader{lines: lines}
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("", true)
	assert.Nil(t, pass)
	assert.ErrorIs(t, err, models.ErrRetriesExhausted)
	assert.ErrorIs(t, err, models.ErrPassphraseMismatch)

	// The sixth pair is never read.
	assert.Len(t, r.prompts, 2*passphrase.MaxAttempts)
	assert.Len(t, r.lines, 2)
}

func TestPassphraseAllEmpty(t *testing.T) {
	r := &scriptedReader{lines: []string{"", "", "", "", ""}}
	p, _ := newPrompter(r)

	_, err := p.Passphrase("", false)
	assert.ErrorIs(t, err, models.ErrRetriesExhausted)
	assert.ErrorIs(t, err, models.ErrPassphraseEmpty)
	assert.Equal(t, models.ErrCodeRetriesExhausted, models.Code(err))
}

func TestPassphraseEndOfInput(t *testing.T) {
	t.Run("nothing to read", func(t *testing.T) {
		r := &scriptedReader{}
		p, _ := newPrompter(r)

		_, err := p.Passphrase("", false)
		assert.ErrorIs(t, err, models.ErrIO)
		assert.Len(t, r.prompts, 1)
	})

	t.Run("input ends before confirmation", func(t *testing.T) {
		r := &scriptedReader{lines: []string{"secret"}}
		p, _ := newPrompter(r)

		_, err := p.Passphrase("", true)
		assert.ErrorIs(t, err, models.ErrIO)
	})

	t.Run("reader failure", func(t *testing.T) {
		r := &scriptedReader{err: errors.New("tcgetattr: bad file descriptor")}
		p, _ := newPrompter(r)

		_, err := p.Passphrase("", false)
		assert.ErrorIs(t, err, models.ErrIO)
		assert.Contains(t, err.Error(), "tcgetattr")
	})
}
