package frappe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedCall is one request seen by the fake backend.
type recordedCall struct {
	Path          string
	Authorization string
	Args          map[string]any
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, call recordedCall)) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		call := recordedCall{Path: r.URL.Path, Authorization: r.Header.Get("Authorization")}
		if len(body) > 0 {
			require.NoError(t, json.Unmarshal(body, &call.Args))
		}
		calls = append(calls, call)
		handler(w, call)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not a url", nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestClient_Call_Success(t *testing.T) {
	srv, calls := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Call Round"})
	})

	c, err := NewClient(srv.URL+"/", &Options{APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.BaseURL())

	msg, err := c.Call(context.Background(), "alpinos.ping", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `"Call Round"`, string(msg))

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/method/alpinos.ping", (*calls)[0].Path)
	assert.Equal(t, "token key:secret", (*calls)[0].Authorization)
	assert.Equal(t, float64(1), (*calls)[0].Args["x"])
}

func TestClient_Call_EmptyPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null message", `{"message": null}`},
		{"no message", `{}`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, nil)
			require.NoError(t, err)

			msg, err := c.Call(context.Background(), "m", nil)
			require.NoError(t, err)
			assert.Nil(t, msg)

			var out string
			found, err := c.CallInto(context.Background(), "m", nil, &out)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestClient_Call_ServerMessages(t *testing.T) {
	inner, _ := json.Marshal(map[string]any{"message": "<b>Category</b> is not allowed"})
	outer, _ := json.Marshal([]string{string(inner)})

	srv, _ := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusExpectationFailed, map[string]any{
			"exc_type":         "ValidationError",
			"_server_messages": string(outer),
		})
	})
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "frappe.client.set_value", nil)
	require.Error(t, err)

	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusExpectationFailed, appErr.StatusCode)
	assert.Equal(t, "ValidationError", appErr.ExcType)
	assert.Equal(t, "Category is not allowed", appErr.Detail())
	assert.Equal(t, "Category is not allowed", Detail(err))
	assert.False(t, IsTransport(err))
}

func TestClient_Call_ExceptionText(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"exc_type":  "ValidationError",
			"exception": "frappe.exceptions.ValidationError: Category is mandatory",
		})
	})
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	assert.Equal(t, "Category is mandatory", Detail(err))
}

func TestClient_Call_ExcInSuccessfulResponse(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusOK, map[string]any{"exc_type": "PermissionError", "exc": "[...]"})
	})
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	var appErr *ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PermissionError", appErr.Detail())
}

func TestClient_Call_HTMLFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html><head><title>x</title></head><body><h1>502 Bad Gateway</h1>\n<p>nginx</p></body></html>")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	assert.Equal(t, "502 Bad Gateway nginx", Detail(err))
}

func TestClient_Call_EmptyFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	assert.Equal(t, "HTTP 403 Forbidden", Detail(err))
}

func TestClient_Call_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, Detail(err), "HTTP request failed")
}

func TestClient_Call_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), "m", nil)
	assert.True(t, IsTransport(err))
}

func TestClient_GetList(t *testing.T) {
	srv, calls := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusOK, map[string]any{"message": []map[string]any{{"name": "A"}, {"name": "B"}}})
	})
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	docs, err := c.GetList(context.Background(), "Job Applicant", []string{"name"}, "creation desc", 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	args := (*calls)[0].Args
	assert.Equal(t, "/api/method/frappe.client.get_list", (*calls)[0].Path)
	assert.Equal(t, "Job Applicant", args["doctype"])
	assert.Equal(t, "creation desc", args["order_by"])
	assert.Equal(t, float64(0), args["limit_page_length"])
}

func TestClient_GetList_NullIsEmpty(t *testing.T) {
	srv, _ := newBackend(t, func(w http.ResponseWriter, _ recordedCall) {
		writeJSON(w, http.StatusOK, map[string]any{"message": nil})
	})
	c, err := NewClient(srv.URL, nil)
	require.NoError(t, err)

	docs, err := c.GetList(context.Background(), "Job Applicant", nil, "", 10)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&ApplicationError{StatusCode: http.StatusNotFound}))
	assert.True(t, IsNotFound(&ApplicationError{ExcType: "DoesNotExistError"}))
	assert.False(t, IsNotFound(&ApplicationError{StatusCode: http.StatusForbidden}))
	assert.False(t, IsNotFound(&TransportError{Message: "x"}))
}

func TestApplicationError_DetailFallback(t *testing.T) {
	assert.Equal(t, "Unknown error", (&ApplicationError{}).Detail())
	assert.Equal(t, "a; b", (&ApplicationError{Messages: []string{"a", "b"}}).Detail())
}
