package secure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TheMichaelB/dircrypt/internal/secure"
)

func TestZero(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		assert.NotPanics(t, func() { secure.Zero([]byte{}) })
	})

	t.Run("sensitive data", func(t *testing.T) {
		password := []byte("super-secret-passphrase")
		secure.Zero(password)
		assert.Equal(t, make([]byte, len(password)), password)
	})
}

func TestBuffer(t *testing.T) {
	t.Run("from wipes source", func(t *testing.T) {
		src := []byte("secret")
		buf := secure.BufferFrom(src)
		defer buf.Zero()

		assert.Equal(t, []byte("secret"), buf.Bytes())
		assert.Equal(t, make([]byte, 6), src)
		assert.Equal(t, 6, buf.Len())
	})

	t.Run("zero wipes and releases", func(t *testing.T) {
		buf := secure.BufferFrom([]byte("key material"))
		view := buf.Bytes()

		buf.Zero()

		assert.Equal(t, make([]byte, len(view)), view)
		assert.Nil(t, buf.Bytes())
		assert.Equal(t, 0, buf.Len())
		assert.NotPanics(t, buf.Zero)
	})

	t.Run("nil buffer", func(t *testing.T) {
		var buf *secure.Buffer
		assert.Nil(t, buf.Bytes())
		assert.NotPanics(t, buf.Zero)
	})

	t.Run("equal", func(t *testing.T) {
		a := secure.BufferFrom([]byte("same"))
		b := secure.BufferFrom([]byte("same"))
		c := secure.BufferFrom([]byte("diff"))
		defer a.Zero()
		defer b.Zero()
		defer c.Zero()

		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}
