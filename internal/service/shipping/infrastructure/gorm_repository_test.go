package infrastructure

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateEntry(t *testing.T) {
	dup := &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'TRK-1' for key 'tracking_no'"}

	assert.True(t, isDuplicateEntry(dup))
	assert.True(t, isDuplicateEntry(errors.Wrap(dup, "insert shipment")))
	assert.False(t, isDuplicateEntry(&mysql.MySQLError{Number: 1045, Message: "Access denied"}))
	assert.False(t, isDuplicateEntry(errors.New("connection reset")))
	assert.False(t, isDuplicateEntry(nil))
}
