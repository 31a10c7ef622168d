package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedExport struct {
	body string
	err  error
}

func (f fixedExport) ExportUnchecked(_ context.Context, _, _ string, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.body)
	return err
}

type closeFailure struct {
	bytes.Buffer
	err    error
	closed bool
}

func (c *closeFailure) Close() error {
	c.closed = true
	return c.err
}

func TestWriteExportFlushesAndCloses(t *testing.T) {
	out := &closeFailure{}
	require.NoError(t, writeExport(context.Background(), fixedExport{body: "id,status\n"}, "goal-reviews", "csv", out))
	assert.Equal(t, "id,status\n", out.String())
	assert.True(t, out.closed)
}

func TestWriteExportReportsCloseError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	out := &closeFailure{err: diskFull}
	err := writeExport(context.Background(), fixedExport{body: "x"}, "goal-reviews", "csv", out)
	require.ErrorIs(t, err, diskFull)
}

func TestWriteExportKeepsRenderError(t *testing.T) {
	renderErr := errors.New("unknown report")
	out := &closeFailure{err: errors.New("close")}
	err := writeExport(context.Background(), fixedExport{err: renderErr}, "bogus", "csv", out)
	require.ErrorIs(t, err, renderErr)
	assert.True(t, out.closed)
}
