package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("course %s", "x")))
	assert.Equal(t, KindForbidden, KindOf(fmt.Errorf("wrapped: %w", Forbidden("no"))))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB("op", nil, "x"))

	err := FromDB("load course", gorm.ErrRecordNotFound, "course not found")
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "course not found", PublicReason(err))

	assert.True(t, Is(FromDB("insert", gorm.ErrDuplicatedKey, ""), KindConflict))
	assert.True(t, Is(FromDB("insert", &pgconn.PgError{Code: "23505"}, ""), KindConflict))

	already := Forbidden("denied")
	assert.Same(t, already, FromDB("op", already, "").(*Error))

	unexpected := FromDB("query", errors.New("connection reset"), "")
	assert.True(t, Is(unexpected, KindUnexpected))
	assert.Equal(t, "Something went wrong", PublicReason(unexpected))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindValidation))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindConflict))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(KindForbidden))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindUnexpected))
}
