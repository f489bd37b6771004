package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"INSERT INTO payment_analytics (id) VALUES (1)":          "INSERT",
		"  select * from forms where id = ?":                     "SELECT",
		"WITH recent AS (SELECT 1) SELECT * FROM recent":         "SELECT",
		"(DELETE FROM receipt_deliveries)":                       "DELETE",
		"":                                                       "UNKNOWN",
		"CREATE TABLE payment_analytics (id BIGINT PRIMARY KEY)": "UNKNOWN",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationFromSQL(sql), sql)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: payment_analytics.provider_payment_id")))
	assert.False(t, isUniqueViolation(errors.New("database is locked")))
}
