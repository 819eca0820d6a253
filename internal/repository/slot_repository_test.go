package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestLockErr(t *testing.T) {
	nowait := &mysql.MySQLError{Number: 3572, Message: "Statement aborted because lock(s) could not be acquired immediately and NOWAIT is set."}
	assert.ErrorIs(t, lockErr(nowait), ErrLockUnavailable)

	timeout := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}
	assert.ErrorIs(t, lockErr(timeout), ErrLockUnavailable)

	wrapped := fmt.Errorf("load slots: %w", nowait)
	assert.ErrorIs(t, lockErr(wrapped), ErrLockUnavailable)

	duplicate := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.NotErrorIs(t, lockErr(duplicate), ErrLockUnavailable)

	// An error code appearing as plain text elsewhere is not a lock failure.
	impostor := errors.New("row 3572 missing")
	assert.NotErrorIs(t, lockErr(impostor), ErrLockUnavailable)

	assert.NoError(t, lockErr(nil))
}
