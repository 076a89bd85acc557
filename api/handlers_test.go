package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefomid/ATLAS-2/api"
)

func newTestServer(t *testing.T) (*httptest.Server, *api.Dispatcher) {
	t.Helper()
	d, store, _ := newDispatcher(t)
	router := api.NewRouter(api.NewHandler(store, d))
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, d
}

func postRun(t *testing.T, ts *httptest.Server, req api.SubmitRunRequest) (*http.Response, api.RunDTO) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/runs", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var dto api.RunDTO
	if resp.StatusCode == http.StatusAccepted {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&dto))
	}
	return resp, dto
}

func TestSubmitRun_EndToEnd(t *testing.T) {
	// GIVEN: A weighted run submitted over HTTP
	// WHEN: Polling after the worker finishes
	// THEN: Status reaches completed and the result matrix is served

	ts, d := newTestServer(t)

	resp, dto := postRun(t, ts, api.SubmitRunRequest{
		Mode:    "tiv",
		Headers: []string{"Loc #", "Coverage Type", "Premium Amount", "TIV"},
		Records: [][]string{
			{"L1", "Property", "100.00", "600"},
			{"L2", "Property", "0", "400"},
		},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, dto.ID)
	assert.Equal(t, "queued", dto.Status)

	d.Wait()

	statusResp, err := http.Get(ts.URL + "/api/runs/" + dto.ID)
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var got api.RunDTO
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&got))
	assert.Equal(t, "completed", got.Status)
	assert.NotEmpty(t, got.ArtifactPath)
	assert.NotEmpty(t, got.CompletedAt)

	resultResp, err := http.Get(ts.URL + "/api/runs/" + dto.ID + "/result")
	require.NoError(t, err)
	defer resultResp.Body.Close()
	require.Equal(t, http.StatusOK, resultResp.StatusCode)

	var res api.ResultDTO
	require.NoError(t, json.NewDecoder(resultResp.Body).Decode(&res))
	assert.Equal(t, []string{"L1", "L2"}, res.Locations)
	assert.Equal(t, [][]string{{"60.00"}, {"40.00"}}, res.Cells)
	assert.Equal(t, []string{"100.00"}, res.ColTotals)
}

func TestSubmitRun_InvalidSubmission_Returns400(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := postRun(t, ts, api.SubmitRunRequest{Mode: "ras"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitRun_MalformedJSON_Returns400(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/runs", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun_Unknown_Returns404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/runs/does-not-exist/result")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	ts, d := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp, _ := postRun(t, ts, api.SubmitRunRequest{
			Mode:    "skeleton",
			Headers: []string{"Loc #", "Coverage/Expense"},
			Records: [][]string{{"L1", "Property"}},
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	d.Wait()

	resp, err := http.Get(ts.URL + "/api/runs?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dtos []api.RunDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dtos))
	assert.Len(t, dtos, 2)

	badResp, err := http.Get(ts.URL + "/api/runs?limit=-1")
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}
