package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestConditions_BuildsPositionalWhere(t *testing.T) {
	var c conditions
	assert.Empty(t, c.where())

	c.add("status = $%d", "open")
	c.add("(buyer_id = $%[1]d OR seller_id = $%[1]d)", "u1")
	assert.Equal(t, " WHERE status = $1 AND (buyer_id = $2 OR seller_id = $2)", c.where())

	tail, args := c.page(20, 40)
	assert.Equal(t, " LIMIT $3 OFFSET $4", tail)
	assert.Equal(t, []any{"open", "u1", 20, 40}, args)
	assert.Len(t, c.args, 2)

	_, args = c.page(0, 0)
	assert.Nil(t, args[2])
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := &pq.Error{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isForeignKeyViolation(unique))
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
