package cypherdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

func TestCreateNodeQueryText(t *testing.T) {
	got := createNodeQueryText("n_0", "Project")
	assert.Equal(t, "CREATE (n_0:Project)\nSET n_0 += $props\nRETURN n_0\n", got)
}

func TestCreateRelsQueryText(t *testing.T) {
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Feature"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	t.Run("random id", func(t *testing.T) {
		got := createRelsQueryText("MATCH (n_0:Project)\nMATCH (n_1:Feature)\n", "n_0.id = $id0", relVar, "randomUUID()")
		want := "MATCH (n_0:Project)\nMATCH (n_1:Feature)\n" +
			"WHERE n_0.id = $id0\n" +
			"CREATE (n_0)-[rel_2:ProjectIssuesRel{id: randomUUID()}]->(n_1)\n" +
			"SET rel_2 += $props\n" +
			"RETURN n_0.id AS src, rel_2 AS rel, n_1.id AS dst\n"
		assert.Equal(t, want, got)
	})

	t.Run("pinned id and empty where", func(t *testing.T) {
		got := createRelsQueryText("MATCH (n_0:Project)\nMATCH (n_1:Feature)\n", "", relVar, "$relId")
		want := "MATCH (n_0:Project)\nMATCH (n_1:Feature)\n" +
			"CREATE (n_0)-[rel_2:ProjectIssuesRel{id: $relId}]->(n_1)\n" +
			"SET rel_2 += $props\n" +
			"RETURN n_0.id AS src, rel_2 AS rel, n_1.id AS dst\n"
		assert.Equal(t, want, got)
	})
}

func TestUpdateNodesQueryText(t *testing.T) {
	got := updateNodesQueryText("MATCH (n_0:Project)\n", "n_0.id = $id0", "n_0", "")
	want := "MATCH (n_0:Project)\n" +
		"WHERE n_0.id = $id0\n" +
		"SET n_0 += $props\n" +
		"RETURN DISTINCT n_0\n"
	assert.Equal(t, want, got)

	withSort := updateNodesQueryText("MATCH (n_0:Project)\n", "", "n_0", "ORDER BY n_0.name\n")
	assert.Equal(t, "MATCH (n_0:Project)\nSET n_0 += $props\nRETURN DISTINCT n_0\nORDER BY n_0.name\n", withSort)
}

func TestUpdateRelsQueryText(t *testing.T) {
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Feature"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	got := updateRelsQueryText("MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n", "rel_2.id = $id0", relVar)
	want := "MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n" +
		"WHERE rel_2.id = $id0\n" +
		"SET rel_2 += $props\n" +
		"RETURN DISTINCT n_0.id AS src, rel_2 AS rel, n_1.id AS dst\n"
	assert.Equal(t, want, got)
}

func TestDeleteNodesQueryText(t *testing.T) {
	got := deleteNodesQueryText("MATCH (n_0:Project)\n", "n_0.id = $id0", "n_0")
	want := "MATCH (n_0:Project)\n" +
		"WHERE n_0.id = $id0\n" +
		"DETACH DELETE n_0\n" +
		"RETURN count(*) AS count\n"
	assert.Equal(t, want, got)
}

func TestDeleteRelsQueryText(t *testing.T) {
	got := deleteRelsQueryText("MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n", "", "rel_2")
	want := "MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n" +
		"DELETE rel_2\n" +
		"RETURN count(*) AS count\n"
	assert.Equal(t, want, got)
}

func TestReadNodesQueryText(t *testing.T) {
	got := readNodesQueryText("MATCH (n_0:Project)\n", "n_0.id = $id0", "n_0", "")
	want := "MATCH (n_0:Project)\n" +
		"WHERE n_0.id = $id0\n" +
		"RETURN DISTINCT n_0\n"
	assert.Equal(t, want, got)

	withSort := readNodesQueryText("MATCH (n_0:Project)\n", "", "n_0", "ORDER BY n_0.name\n")
	assert.Equal(t, "MATCH (n_0:Project)\nRETURN DISTINCT n_0\nORDER BY n_0.name\n", withSort)
}

func TestReadRelsQueryText(t *testing.T) {
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Feature"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	got := readRelsQueryText("MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n", "", relVar, "")
	want := "MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n" +
		"RETURN DISTINCT n_0.id AS src, rel_2 AS rel, n_1.id AS dst, n_1 AS dstNode\n"
	assert.Equal(t, want, got)

	withSort := readRelsQueryText("MATCH (n_0)-[rel_2:ProjectIssuesRel]->(n_1)\n", "", relVar, "ORDER BY dstNode.hash\n")
	assert.Equal(t, want+"ORDER BY dstNode.hash\n", withSort)
}

func TestSortClauseReferencesDstRefForDstPropertyEntries(t *testing.T) {
	opts := txn.Options{Sort: []txn.SortEntry{
		{Property: "hash", DstProperty: true, Direction: txn.Ascending},
	}}
	got := sortClause(opts, "rel_2", "dstNode")
	assert.Equal(t, "ORDER BY dstNode.hash\n", got)
}

func TestSortClauseReferencesNameForOwnPropertyEntries(t *testing.T) {
	opts := txn.Options{Sort: []txn.SortEntry{
		{Property: "name", Direction: txn.Descending},
	}}
	got := sortClause(opts, "n_0", "dstNode")
	assert.Equal(t, "ORDER BY n_0.name DESC\n", got)
}

func TestSortClauseEmptyWhenNoSortEntries(t *testing.T) {
	assert.Equal(t, "", sortClause(txn.Options{}, "n_0", "dstNode"))
}

func TestLoadNodesQueryText(t *testing.T) {
	assert.Equal(t, "MATCH (n) WHERE n.id IN $ids RETURN n\n", loadNodesQueryText())
}

func TestLoadRelsBranchText(t *testing.T) {
	got := loadRelsBranchText(3, "srcId3", "ProjectIssuesRel")
	want := "MATCH (s3 {id: $srcId3})-[r3:ProjectIssuesRel]->(d3) RETURN s3.id AS src, r3 AS rel, d3.id AS dst"
	assert.Equal(t, want, got)
}

func strPtr(s string) *string { return &s }
