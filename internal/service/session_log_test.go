package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dataset-registry/internal/model"
)

func sessionEntry(details string) model.AuditEntry {
	return model.AuditEntry{
		Timestamp: time.Now(),
		Operation: model.OpMerge,
		DataType:  "AI Tutor",
		User:      "jane",
		Details:   details,
	}
}

func TestSessionLogNewestFirst(t *testing.T) {
	t.Parallel()

	log := NewSessionLog(10)
	log.Append("jane", sessionEntry("first"))
	log.Append("jane", sessionEntry("second"))
	log.Append("jane", sessionEntry("third"))

	ops := log.Operations("jane")
	require.Len(t, ops, 3)
	assert.Equal(t, "third", ops[0].Details)
	assert.Equal(t, "second", ops[1].Details)
	assert.Equal(t, "first", ops[2].Details)
}

func TestSessionLogEvictsOldest(t *testing.T) {
	t.Parallel()

	log := NewSessionLog(3)
	for i := 1; i <= 5; i++ {
		log.Append("jane", sessionEntry(fmt.Sprintf("op-%d", i)))
	}

	ops := log.Operations("jane")
	require.Len(t, ops, 3)
	assert.Equal(t, "op-5", ops[0].Details)
	assert.Equal(t, "op-3", ops[2].Details)
}

func TestSessionLogIsolatesUsers(t *testing.T) {
	t.Parallel()

	log := NewSessionLog(10)
	log.Append("jane", sessionEntry("jane-op"))
	log.Append("sam", sessionEntry("sam-op"))

	require.Len(t, log.Operations("jane"), 1)
	require.Len(t, log.Operations("sam"), 1)
	assert.Empty(t, log.Operations("nobody"))

	log.Clear("jane")
	assert.Empty(t, log.Operations("jane"))
	assert.Len(t, log.Operations("sam"), 1)
}

func TestSessionLogDefaultCapacity(t *testing.T) {
	t.Parallel()

	log := NewSessionLog(0)
	for i := 0; i < DefaultSessionLogSize+20; i++ {
		log.Append("jane", sessionEntry(fmt.Sprintf("op-%d", i)))
	}

	assert.Len(t, log.Operations("jane"), DefaultSessionLogSize)
}
