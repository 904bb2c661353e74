package cypherdb

import (
	"fmt"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
)

// The query-text builders below are factored out of their Transaction
// methods so the exact text each template produces (spec.md §4.4) can be
// asserted without a live Neo4j session.

func createNodeQueryText(varName, label string) string {
	return fmt.Sprintf("CREATE (%s:%s)\nSET %s += $props\nRETURN %s\n", varName, label, varName, varName)
}

func createRelsQueryText(matchText, whereText string, relVar model.RelQueryVar, idExpr string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("CREATE (%s)-[%s:%s{id: %s}]->(%s)\n", relVar.Src.Name(), relVar.Name(), relVar.Label(), idExpr, relVar.Dst.Name()) +
		fmt.Sprintf("SET %s += $props\n", relVar.Name()) +
		fmt.Sprintf("RETURN %s.id AS src, %s AS rel, %s.id AS dst\n", relVar.Src.Name(), relVar.Name(), relVar.Dst.Name())
}

func updateNodesQueryText(matchText, whereText, varName, sort string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("SET %s += $props\n", varName) +
		fmt.Sprintf("RETURN DISTINCT %s\n", varName) +
		sort
}

func updateRelsQueryText(matchText, whereText string, relVar model.RelQueryVar) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("SET %s += $props\n", relVar.Name()) +
		fmt.Sprintf("RETURN DISTINCT %s.id AS src, %s AS rel, %s.id AS dst\n", relVar.Src.Name(), relVar.Name(), relVar.Dst.Name())
}

func deleteNodesQueryText(matchText, whereText, varName string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("DETACH DELETE %s\n", varName) +
		"RETURN count(*) AS count\n"
}

func deleteRelsQueryText(matchText, whereText, relName string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("DELETE %s\n", relName) +
		"RETURN count(*) AS count\n"
}

func readNodesQueryText(matchText, whereText, varName, sort string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("RETURN DISTINCT %s\n", varName) +
		sort
}

// readRelsQueryText renders ReadRels' query text. src/rel/dst are projected
// as the bare ids/relationship decodeRelFields expects; dstNode projects the
// dst node itself so a DstProperty sort term has a RETURN-listed expression
// to reference — Neo4j requires ORDER BY terms paired with RETURN DISTINCT to
// come from the RETURN list, and dst here is already narrowed to a scalar id.
func readRelsQueryText(matchText, whereText string, relVar model.RelQueryVar, sort string) string {
	return matchText + whereClause(whereText) +
		fmt.Sprintf("RETURN DISTINCT %s.id AS src, %s AS rel, %s.id AS dst, %s AS dstNode\n",
			relVar.Src.Name(), relVar.Name(), relVar.Dst.Name(), relVar.Dst.Name()) +
		sort
}

func loadNodesQueryText() string {
	return "MATCH (n) WHERE n.id IN $ids RETURN n\n"
}

func loadRelsBranchText(i int, srcParam, relName string) string {
	return fmt.Sprintf(
		"MATCH (s%d {id: $%s})-[r%d:%s]->(d%d) RETURN s%d.id AS src, r%d AS rel, d%d.id AS dst",
		i, srcParam, i, relName, i, i, i, i)
}
