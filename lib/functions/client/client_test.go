package functionsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	workspaceapimodels "org-portal-backend/models/api/workspace"

	"github.com/stretchr/testify/require"
)

func TestDeleteWorkspace(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/functions/v1/delete-workspace", r.URL.Path)
		require.Equal(t, "service-key", r.Header.Get(KeyHeader))
		req := workspaceapimodels.DeleteFunctionRequest{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.WorkspaceID {
		case "ok":
			_ = json.NewEncoder(w).Encode(workspaceapimodels.DeleteFunctionResponse{Success: true})
		case "denied":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"error":"not the owner"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := New(srv.URL+"/functions/v1/", "service-key")
	ctx := context.Background()

	require.NoError(t, client.DeleteWorkspace(ctx, workspaceapimodels.DeleteFunctionRequest{WorkspaceID: "ok", UserID: "u1"}))

	err := client.DeleteWorkspace(ctx, workspaceapimodels.DeleteFunctionRequest{WorkspaceID: "denied", UserID: "u1"})
	fnErr := &Error{}
	require.ErrorAs(t, err, &fnErr)
	require.Equal(t, http.StatusForbidden, fnErr.StatusCode)
	require.Equal(t, "not the owner", fnErr.Message)

	err = client.DeleteWorkspace(ctx, workspaceapimodels.DeleteFunctionRequest{WorkspaceID: "broken", UserID: "u1"})
	require.ErrorAs(t, err, &fnErr)
	require.Empty(t, fnErr.Message)
	require.Equal(t, 3, calls)
}
