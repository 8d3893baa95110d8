package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubTerminal(t *testing.T, terminal bool, read func(int) ([]byte, error)) {
	t.Helper()
	oldIs, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldIs, oldRead })
	isTerminal = func(int) bool { return terminal }
	if read != nil {
		readPassword = read
	}
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
	require.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	require.Equal(t, "lastline", got)

	_, err = GetSimpleText(in, "Name?", &out)
	require.ErrorIs(t, err, io.EOF)
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out)
	require.Error(t, err)
	require.Nil(t, pw)
}

func TestGetPassword_NotTerminalReadsLine(t *testing.T) {
	stubTerminal(t, false, func(int) ([]byte, error) {
		t.Fatal("terminal read must not be used")
		return nil, nil
	})

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("piped\n")), &out)
	require.NoError(t, err)
	require.Equal(t, []byte("piped"), pw)
}
