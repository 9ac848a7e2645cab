package normalize_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/cmd/stationmatch/cmd/normalize"
	"github.com/luisKisters/bahnhofjaeger/internal/cmd/output"
	pkgnormalize "github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

func TestForms(t *testing.T) {
	n := pkgnormalize.New(pkgnormalize.DefaultTable())
	forms := normalize.Forms(n, []string{"  Hamburg   Hbf ", "Frankfurt (Oder)"})
	require.Len(t, forms, 2)

	assert.Equal(t, "hamburg hbf", forms[0].Folded)
	assert.Equal(t, "hamburg hauptbahnhof", forms[0].Expanded)
	assert.Equal(t, "hamburg hbf", forms[0].NoParens)

	assert.Equal(t, "frankfurt (oder)", forms[1].Folded)
	assert.Equal(t, "frankfurt", forms[1].NoParens)
}

func TestNormalizeCommandJSON(t *testing.T) {
	app := &application.Mock{OutputFormatFunc: func() string { return "json" }}
	cmd := normalize.NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"Berlin Hbf"})
	require.NoError(t, cmd.Execute())

	var names []output.NormalizedName
	require.NoError(t, json.Unmarshal(out.Bytes(), &names))
	require.Len(t, names, 1)
	assert.Equal(t, "berlin hauptbahnhof", names[0].Expanded)
}

func TestNormalizeCommandRequiresName(t *testing.T) {
	cmd := normalize.NewCommand(&application.Mock{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.Error(t, cmd.Execute())
}
