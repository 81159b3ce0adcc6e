package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminHandlerReset_RequiresConfirm(t *testing.T) {
	// the guard must trip before the store is touched
	h := NewAdminHandler(nil)

	rec := postJSON(t, h.Reset, "/api/v1/admin/reset", `{"confirm": false}`)
	require.Contains(t, rec.Body.String(), "confirm must be true")

	rec = postJSON(t, h.Reset, "/api/v1/admin/reset", `{}`)
	require.Contains(t, rec.Body.String(), "confirm must be true")
}
