package infra

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewErrorStack(t *testing.T) {
	err := NewErrorStack("[xtree] red violation")
	require.Error(t, err)
	require.Equal(t, "[xtree] red violation", err.Error())

	es, ok := AsErrorStack(err)
	require.True(t, ok)
	require.NotEmpty(t, es.Frames())
	require.Nil(t, es.Unwrap())

	top := es.Frames()[0]
	require.Equal(t, "err_stack_test.go", fmt.Sprintf("%s", top))
	require.True(t, strings.HasPrefix(fmt.Sprintf("%v", top), "err_stack_test.go:"))
	require.Contains(t, fmt.Sprintf("%+v", top), "TestNewErrorStack")
	require.Equal(t, "TestNewErrorStack", fmt.Sprintf("%n", top))
}

func TestWrapErrorStack(t *testing.T) {
	require.NoError(t, WrapErrorStack(nil, "ignored"))

	cause := errors.New("boom")
	err := WrapErrorStack(cause, "validate")
	require.Equal(t, "validate: boom", err.Error())
	require.ErrorIs(t, err, cause)

	err = WrapErrorStack(cause, "")
	require.Equal(t, "boom", err.Error())

	_, ok := AsErrorStack(cause)
	require.False(t, ok)
	_, ok = AsErrorStack(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
}

func TestErrorStackMarshalLogObject(t *testing.T) {
	err := NewErrorStack("black violation")
	es, ok := AsErrorStack(err)
	require.True(t, ok)

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "black violation", enc.Fields["error"])
	frames, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.Len(t, frames, len(es.Frames()))
}
