package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpgrapher/gql2graph/internal/errors"
)

func TestNodeQueryVarLabelNotFound(t *testing.T) {
	v := NewNodeQueryVar(nil, "n", "_0")
	assert.Equal(t, "n_0", v.Name())

	_, err := v.Label()
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagLabelNotFound))

	labeled := v.WithLabel("Project")
	lbl, err := labeled.Label()
	require.NoError(t, err)
	assert.Equal(t, "Project", lbl)
}

func TestRelQueryVarName(t *testing.T) {
	src := NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := NewNodeQueryVar(strPtr("Feature"), "n", "_1")
	rv := NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	assert.Equal(t, "rel_2", rv.Name())
	assert.Equal(t, "ProjectIssuesRel", rv.Label())
}

func strPtr(s string) *string { return &s }
