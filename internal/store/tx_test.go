package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/txstore/internal/ir"
)

func TestBeginCommit_KeepsChanges(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	require.NoError(t, s.Begin())
	assert.True(t, s.InTransaction())

	mustCreate(t, s, "Products", fields("Name", "Comfort Easy"))
	require.NoError(t, s.Delete("Categories", IntKey("ID", 2)))
	before := s.Dump()

	require.NoError(t, s.Commit())
	assert.False(t, s.InTransaction())
	assert.Equal(t, TxIdle, s.State())

	if diff := cmp.Diff(before, s.Dump()); diff != "" {
		t.Errorf("commit changed live state (-before +after):\n%s", diff)
	}
	assert.Nil(t, s.backup)
}

func TestBeginRollback_RestoresState(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)
	before := s.Dump()

	require.NoError(t, s.Begin())

	mustCreate(t, s, "Products", fields("Name", "Ergo Screen"))
	require.NoError(t, s.Update("Products", IntKey("ID", 1), fields("Name", "renamed"), Merge))
	require.NoError(t, s.Delete("Categories", IntKey("ID", 1)))
	require.NoError(t, s.Update("Categories", IntKey("ID", 2), fields(), Replace))

	require.NoError(t, s.Rollback())
	assert.False(t, s.InTransaction())

	if diff := cmp.Diff(before, s.Dump()); diff != "" {
		t.Errorf("rollback did not restore state (-before +after):\n%s", diff)
	}
}

func TestRollback_RestoresGraph(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	require.NoError(t, s.Begin())
	require.NoError(t, s.Delete("Products", IntKey("ID", 1)))
	require.NoError(t, s.Rollback())

	p1, err := s.ReadOne("Products", IntKey("ID", 1))
	require.NoError(t, err)
	c1, err := s.ReadOne("Categories", IntKey("ID", 1))
	require.NoError(t, err)

	assert.Same(t, c1, p1.Link("Category").Inline)
	assert.Same(t, p1, c1.Link("Products").InlineSet.Records[0])
}

func TestRollback_InvalidatesTransactionPointers(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	require.NoError(t, s.Begin())
	inTx, err := s.ReadOne("Products", IntKey("ID", 1))
	require.NoError(t, err)
	require.NoError(t, s.Rollback())

	after, err := s.ReadOne("Products", IntKey("ID", 1))
	require.NoError(t, err)
	assert.NotSame(t, inTx, after)
}

func TestBegin_DoubleBeginRejected(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)

	require.NoError(t, s.Begin())
	backup := s.backup

	err := s.Begin()
	require.Error(t, err)
	assert.True(t, IsTransactionConflict(err))
	assert.Equal(t, ErrCodeTransactionConflict, CodeOf(err))

	// The first transaction is unaffected.
	assert.True(t, s.InTransaction())
	assert.Equal(t, backup, s.backup)

	mustCreate(t, s, "Products", fields("Name", "x"))
	require.NoError(t, s.Rollback())

	all, err := s.All("Products")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCommitRollback_WithoutTransaction(t *testing.T) {
	s := createTestStore(t)

	err := s.Commit()
	assert.True(t, IsNoActiveTransaction(err))

	err = s.Rollback()
	assert.True(t, IsNoActiveTransaction(err))

	require.NoError(t, s.Begin())
	require.NoError(t, s.Commit())
	assert.True(t, IsNoActiveTransaction(s.Commit()))
}

func TestRollback_UndoesReset(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)
	before := s.Dump()

	require.NoError(t, s.Begin())
	s.Reset()
	n, _ := s.All("Products")
	assert.Empty(t, n)
	require.NoError(t, s.Rollback())

	assert.Equal(t, before, s.Dump())
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "idle", TxIdle.String())
	assert.Equal(t, "active", TxActive.String())
}

func TestRollback_RestoresMedia(t *testing.T) {
	s := createTestStore(t)
	ad := mustCreate(t, s, "Advertisements", &ir.Record{
		Fields:           []ir.Field{{Name: "Name", Value: ir.IRString("Spring")}},
		MediaContentType: "text/plain",
		Media:            []byte("Super content"),
	})
	require.Equal(t, "Advertisements(1)", ad.ID)

	require.NoError(t, s.Begin())
	require.NoError(t, s.UpdateMedia("Advertisements", IntKey("ID", 1), "image/png", []byte{0x89}))
	require.NoError(t, s.Rollback())

	restored, err := s.ReadOne("Advertisements", IntKey("ID", 1))
	require.NoError(t, err)
	assert.Equal(t, "text/plain", restored.MediaContentType)
	assert.Equal(t, []byte("Super content"), restored.Media)
}

func TestRollback_UndoesTruncate(t *testing.T) {
	s := createTestStore(t)
	seedLinked(t, s)
	before := s.Dump()

	require.NoError(t, s.Begin())
	require.NoError(t, s.Truncate("Products"))
	n, _ := s.All("Products")
	assert.Empty(t, n)
	c, _ := s.All("Categories")
	assert.Len(t, c, 2)
	require.NoError(t, s.Rollback())

	assert.Equal(t, before, s.Dump())
	assert.True(t, IsNotFound(s.Truncate("Nope")))
}
