package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runsQuery struct {
	TicID string `query:"tic_id" validate:"omitempty,number,startsnotwith=0"`
	Limit int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

func bindQuery(t *testing.T, rawQuery string, req interface{}) interface{} {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, "/runs?"+rawQuery, nil)
	return ReadAndValidateRequest(e.NewContext(r, httptest.NewRecorder()), req)
}

func TestReadAndValidateRequest_Defaults(t *testing.T) {
	q := &runsQuery{}
	assert.Nil(t, bindQuery(t, "tic_id=261136679", q))
	assert.Equal(t, "261136679", q.TicID)
	assert.Equal(t, 50, q.Limit)
}

func TestReadAndValidateRequest_ReportsWireNames(t *testing.T) {
	verr := bindQuery(t, "tic_id=0123&limit=900", &runsQuery{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)

	assert.Equal(t, "tic_id", errs[0].Field)
	assert.Equal(t, "ERR_STARTSNOTWITH", errs[0].Code)
	assert.Equal(t, "limit", errs[1].Field)
	assert.Equal(t, "ERR_LTE", errs[1].Code)
	assert.Equal(t, "limit must be at most 500", errs[1].Message)
}

func TestReadAndValidateRequest_BindFailure(t *testing.T) {
	verr := bindQuery(t, "limit=many", &runsQuery{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}
