package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingopad/internal/capability"
	"github.com/abhisek/lingopad/internal/notebook"
	"github.com/abhisek/lingopad/internal/store"
)

func TestInputText(t *testing.T) {
	ctx := context.Background()
	a := &app{notebooks: notebook.New(store.NewMemoryKV())}

	got, err := inputText(ctx, a, []string{"hola", "mundo"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "hola mundo", got)

	got, err = inputText(ctx, a, nil, strings.NewReader("  desde stdin \n"))
	require.NoError(t, err)
	assert.Equal(t, "desde stdin", got)

	_, err = inputText(ctx, a, nil, strings.NewReader(""))
	assert.ErrorContains(t, err, "no text given")

	require.NoError(t, a.notebooks.SaveSelection(ctx, "texto seleccionado"))
	got, err = inputText(ctx, a, nil, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "texto seleccionado", got)
}

func TestUnavailableHandles(t *testing.T) {
	hs := unavailableHandles()
	for _, st := range hs.Report(context.Background()) {
		assert.Equal(t, capability.Unavailable, st.Availability, st.Capability)
	}
	assert.Len(t, hs, len(capability.Kinds))
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p(capability.Progress{Capability: capability.Translate, Loaded: 0.5})
	p(capability.Progress{Capability: capability.Translate, Loaded: 0.501})
	p(capability.Progress{Capability: capability.Translate, Loaded: 1})

	assert.Equal(t, "Downloading model for translate:  50%\rDownloading model for translate: 100%\n", buf.String())
}

func TestActionCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range actionCommands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"translate", "detect", "summarize", "rewrite", "write", "prompt"} {
		assert.True(t, names[want], want)
	}
	assert.False(t, names["generateQuiz"])
}
