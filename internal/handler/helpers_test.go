package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"quiz-class/internal/middleware"

	"github.com/stretchr/testify/require"
)

const testUserID = "user1"

func decodeError(t *testing.T, resp *http.Response) middleware.ErrorResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var errResp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp), "error body: %s", string(body))
	return errResp
}
