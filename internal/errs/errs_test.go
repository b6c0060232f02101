package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errBase = errors.New("base")

func TestWrapKeepsChain(t *testing.T) {
	require.NoError(t, Wrap(nil, "ignored"))
	require.NoError(t, Wrapf(nil, "ignored %d", 1))

	err := Wrapf(Wrap(errBase, "query bill"), "handler %s", "detail")
	require.ErrorIs(t, err, errBase)
	require.Equal(t, "handler detail: query bill: base", err.Error())
	require.Equal(t, []string{
		"handler detail: query bill: base",
		"query bill: base",
		"base",
	}, Chain(err))
}

func TestLoggable(t *testing.T) {
	v := Loggable(Wrap(errBase, "outer")).LogValue()
	attrs := v.Group()
	require.Len(t, attrs, 2)
	require.Equal(t, "message", attrs[0].Key)
	require.Equal(t, "outer: base", attrs[0].Value.String())

	require.Empty(t, Loggable(nil).LogValue().Group())
}
