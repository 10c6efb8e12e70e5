package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `-- schema for the simple model
CREATE TABLE t1 (id int, name text);
INSERT INTO t1 VALUES (1, 'a;b');

-- tag: point lookup
-- params: 1, 'x'
SELECT * FROM t1
WHERE id = $1 AND name = $2;
SELECT 1`

	statements := SplitStatements(script)
	require.Len(t, statements, 4)
	assert.Equal(t, "CREATE TABLE t1 (id int, name text)", statements[0].Text)
	assert.Equal(t, "INSERT INTO t1 VALUES (1, 'a;b')", statements[1].Text)
	assert.Equal(t, "SELECT * FROM t1\nWHERE id = $1 AND name = $2", statements[2].Text)
	assert.Equal(t, "point lookup", statements[2].Tag)
	assert.Equal(t, []string{"1", "'x'"}, statements[2].Parameters)
	assert.Equal(t, "SELECT 1", statements[3].Text)
	assert.Empty(t, statements[3].Parameters)
}

func TestSplitStatements_Empty(t *testing.T) {
	assert.Empty(t, SplitStatements("-- nothing here\n\n;\n"))
}
