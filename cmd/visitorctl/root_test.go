package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visitor_access_go/models"
	"visitor_access_go/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newBackend serves the endpoints the commands call and records the
// bearer token and the ids that were closed or deleted
func newBackend(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	entry := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciales inválidas"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token": "tok-cli",
			"user":  models.User{ID: 1, Username: body.Username, Name: "Admin", Role: models.RoleAdmin},
		})
	})
	mux.HandleFunc("GET /api/visitors/search-visitor", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dni") != "12345678" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"exists":  true,
			"visitor": map[string]interface{}{"firstName": "María", "lastName": "Pérez", "dniNumber": 12345678, "company": map[string]string{"name": "ACME"}},
		})
	})
	mux.HandleFunc("GET /api/visitors", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "list "+r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": []models.Visit{
			{ID: 1, Visitor: models.Visitor{FirstName: "María", LastName: "Pérez", DNINumber: 12345678}, VisitType: models.BackendVisitPedestrian, VisitDate: &entry, VisitHour: &entry},
			{ID: 2, Visitor: models.Visitor{FirstName: "Luis", LastName: "Gómez", DNINumber: 8765432}, VisitType: models.BackendVisitVehicle, VisitDate: &entry, VisitHour: &entry, ExitDate: &entry},
		}})
	})
	mux.HandleFunc("PATCH /api/visitors/exit/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "exit "+r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/visitors/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "delete "+r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/visitors", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "bulk-delete")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/visitors/visitor-stats", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("dni") != "12345678" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"exists": true,
			"visitor": map[string]interface{}{
				"firstName": "María", "lastName": "Pérez", "dniNumber": 12345678,
				"recentVisits": []map[string]interface{}{{"id": 1, "date": "2026-03-10T09:30:00Z", "type": "Peatonal", "visitedPerson": "Ana Ruiz"}},
			},
		})
	})
	mux.HandleFunc("GET /api/visitors/dashboard-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.DashboardStats{
			Stats:  models.DashboardTotals{TotalVisits: 42, ActiveVisits: 5, UniqueVisitors: 30},
			Charts: models.DashboardCharts{MainChart: []models.ChartPoint{{Name: "Lunes", Value: 12}}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

// executeCommand runs visitorctl against server with args and captures output
func executeCommand(server *httptest.Server, stdin string, args ...string) (string, error) {
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api-url", server.URL + "/api/", "--token", "tok-cli"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestRootFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"api-url", "token", "format", "timeout"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "text", root.PersistentFlags().Lookup("format").DefValue)
}

func TestLoginCommand(t *testing.T) {
	server, _ := newBackend(t)

	out, err := executeCommand(server, "admin\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Admin")
	assert.Contains(t, out, "export VISITOR_API_TOKEN=tok-cli")

	_, err = executeCommand(server, "wrong\n", "login", "--username", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Credenciales inválidas")

	_, err = executeCommand(server, "\n\n", "login")
	assert.EqualError(t, err, "username and password are required")
}

func TestLookupCommand(t *testing.T) {
	server, _ := newBackend(t)

	out, err := executeCommand(server, "", "lookup", "v-12345678")
	require.NoError(t, err)
	assert.Contains(t, out, "María Pérez")
	assert.Contains(t, out, "V-12345678")
	assert.Contains(t, out, "ACME")

	out, err = executeCommand(server, "", "lookup", "E-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Visitante no encontrado")

	_, err = executeCommand(server, "", "lookup", "X-1")
	assert.EqualError(t, err, services.MsgInvalidDocument)
}

func TestVisitsCommand(t *testing.T) {
	server, calls := newBackend(t)

	out, err := executeCommand(server, "", "visits", "--filter", "GÓMEZ")
	require.NoError(t, err)
	assert.Contains(t, out, "FULLNAME")
	assert.Contains(t, out, "Luis Gómez")
	assert.NotContains(t, out, "María Pérez")
	assert.Equal(t, "list Bearer tok-cli", (*calls)[0])

	out, err = executeCommand(server, "", "visits", "--active")
	require.NoError(t, err)
	assert.Contains(t, out, "María Pérez")
	assert.NotContains(t, out, "Luis Gómez")

	out, err = executeCommand(server, "", "--format", "json", "visits")
	require.NoError(t, err)
	var rows []models.Visit
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, 2)
}

func TestExitAndDeleteCommands(t *testing.T) {
	server, calls := newBackend(t)

	out, err := executeCommand(server, "", "exit", "7")
	require.NoError(t, err)
	assert.Contains(t, out, services.MsgExitSuccess)

	_, err = executeCommand(server, "", "delete", "3")
	require.NoError(t, err)
	_, err = executeCommand(server, "", "delete", "4", "5")
	require.NoError(t, err)

	_, err = executeCommand(server, "", "exit", "abc")
	assert.EqualError(t, err, "invalid visit ID: abc")

	assert.Equal(t, []string{"exit 7", "delete 3", "bulk-delete"}, *calls)
}

func TestStatsCommand(t *testing.T) {
	server, _ := newBackend(t)

	out, err := executeCommand(server, "", "stats", "V-12345678")
	require.NoError(t, err)
	assert.Contains(t, out, "María Pérez (V-12345678)")
	assert.Contains(t, out, "Ana Ruiz")

	_, err = executeCommand(server, "", "stats", "V-1")
	assert.EqualError(t, err, services.MsgStatsNotFound)
}

func TestDashboardCommand(t *testing.T) {
	server, _ := newBackend(t)

	out, err := executeCommand(server, "", "dashboard", "--range", "month")
	require.NoError(t, err)
	assert.Contains(t, out, "Total visits:    42")
	assert.Contains(t, out, "Lunes")
}
