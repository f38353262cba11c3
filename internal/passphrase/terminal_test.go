package passphrase_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dircrypt/internal/passphrase"
)

func pipedInput(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestTerminalReaderPipedInput(t *testing.T) {
	var prompts bytes.Buffer
	r := passphrase.NewTerminalReader(pipedInput(t, "first\nsecond\nlast"), &prompts)

	assert.False(t, r.IsTerminal())

	for _, want := range []string{"first", "second", "last"} {
		line, err := r.ReadLine(passphrase.EnterPrompt)
		require.NoError(t, err)
		assert.Equal(t, want, string(line.Bytes()))
		line.Zero()
	}

	_, err := r.ReadLine(passphrase.EnterPrompt)
	assert.Error(t, err)

	// Prompts are only shown on a terminal.
	assert.Empty(t, prompts.String())
}

func TestTerminalReaderEmptyLine(t *testing.T) {
	r := passphrase.NewTerminalReader(pipedInput(t, "\nsecret\n"), &bytes.Buffer{})

	line, err := r.ReadLine(passphrase.EnterPrompt)
	require.NoError(t, err)
	assert.Equal(t, 0, line.Len())
}

func TestPrompterOverPipedInput(t *testing.T) {
	r := passphrase.NewTerminalReader(pipedInput(t, "a\nb\nsecret\nsecret\n"), &bytes.Buffer{})
	p, _ := newPrompter(r)

	pass, err := p.Passphrase("", true)
	require.NoError(t, err)
	defer pass.Zero()
	assert.Equal(t, "secret", string(pass.Bytes()))
}

func TestTerminalReaderReadsOnlyTheLine(t *testing.T) {
	in := pipedInput(t, "hunter2-secret\nnext\n")
	r := passphrase.NewTerminalReader(in, &bytes.Buffer{})

	line, err := r.ReadLine(passphrase.EnterPrompt)
	require.NoError(t, err)
	assert.Equal(t, "hunter2-secret", string(line.Bytes()))
	line.Zero()
	assert.Nil(t, line.Bytes())

	// Nothing past the newline was consumed, so no read-ahead buffer can
	// hold a copy of the passphrase.
	offset, err := in.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(len("hunter2-secret\n")), offset)

	rest, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "next\n", string(rest))
}

func TestTerminalReaderLineLimit(t *testing.T) {
	exact := strings.Repeat("x", passphrase.MaxPassphraseSize)
	tooLong := strings.Repeat("y", passphrase.MaxPassphraseSize+1)
	r := passphrase.NewTerminalReader(pipedInput(t, exact+"\n"+tooLong+"\nafter\n"), &bytes.Buffer{})

	line, err := r.ReadLine(passphrase.EnterPrompt)
	require.NoError(t, err)
	assert.Equal(t, passphrase.MaxPassphraseSize, line.Len())
	line.Zero()

	_, err = r.ReadLine(passphrase.EnterPrompt)
	assert.ErrorIs(t, err, passphrase.ErrTooLong)

	line, err = r.ReadLine(passphrase.EnterPrompt)
	require.NoError(t, err)
	assert.Equal(t, "after", string(line.Bytes()))
	line.Zero()
}
