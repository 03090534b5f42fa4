package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/labels"
	"github.com/c360studio/semview/metrics"
	"github.com/c360studio/semview/service"
	"github.com/c360studio/semview/source/fetch"
	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/source/weburl"
	"github.com/c360studio/semview/storage"
	"github.com/c360studio/semview/viewmodel"
)

const ex = "http://example.org/axiology#"

const ontology = `@prefix : <http://example.org/axiology#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

:Policy a owl:Class ; rdfs:label "Политика"@ru ; rdfs:comment "a <rule>" .
:relatesTo a owl:ObjectProperty .
:A a :Policy ; :relatesTo :B .
:B a :Policy .
`

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector("semview")
	repo := storage.NewRepository(storage.RepositoryConfig{
		Parse:   parser.DefaultRegistry.Parse,
		Metrics: collector,
	})
	svc := service.New(service.Config{
		Repository: repo,
		Fetcher:    fetch.New(fetch.Config{Policy: weburl.Policy{AllowHTTP: true, AllowPrivate: true}}),
		Labels:     labels.DefaultOptions(),
		Metrics:    collector,
	})
	srv := NewServer(Config{
		Service:  svc,
		Metrics:  collector.Handler(),
		Observer: collector,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, collector
}

func upload(t *testing.T, ts *httptest.Server) service.LoadResult {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/graphs", "text/turtle", strings.NewReader(ontology))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, resp.StatusCode)

	var res service.LoadResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)

	var health HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &health))
	assert.Equal(t, "ok", health.Status)
}

func TestUpload(t *testing.T) {
	ts, _ := newTestServer(t)

	res := upload(t, ts)
	assert.Equal(t, storage.Fingerprint([]byte(ontology)), res.ID)
	assert.Equal(t, 7, res.Triples)
	assert.False(t, res.Cached)

	again := upload(t, ts)
	assert.True(t, again.Cached)

	var list []storage.SnapshotInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/graphs", &list))
	assert.Len(t, list, 1)
}

func TestUpload_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty body", "", http.StatusBadRequest, "empty_body"},
		{"syntax error", ":a :b", http.StatusUnprocessableEntity, "syntax_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/graphs", "text/turtle", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			var e ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.wantCode, e.Error)
		})
	}
}

func TestUpload_NameExtension(t *testing.T) {
	ts, _ := newTestServer(t)

	post := func(name, contentType string) (int, ErrorResponse) {
		resp, err := http.Post(ts.URL+"/api/graphs?name="+url.QueryEscape(name), contentType, strings.NewReader(ontology))
		require.NoError(t, err)
		defer resp.Body.Close()
		var e ErrorResponse
		if resp.StatusCode >= http.StatusBadRequest {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
		}
		return resp.StatusCode, e
	}

	for _, name := range []string{"axiology.owl", "onto.ttl.bak", "onto.rdf"} {
		t.Run(name, func(t *testing.T) {
			status, _ := post(name, "text/turtle")
			assert.Contains(t, []int{http.StatusCreated, http.StatusOK}, status)
		})
	}

	status, e := post("axiology.owl", "application/octet-stream")
	assert.Equal(t, http.StatusUnsupportedMediaType, status)
	assert.Equal(t, service.CodeUnsupportedType, e.Error)
}

func TestFetch(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/axiology.ttl" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write([]byte(ontology))
	}))
	defer origin.Close()

	ts, _ := newTestServer(t)

	post := func(body string) *http.Response {
		resp, err := http.Post(ts.URL+"/api/fetch", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"url":"` + origin.URL + `/axiology.ttl"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	missing := post(`{"url":"` + origin.URL + `/missing"}`)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusBadGateway, missing.StatusCode)

	invalid := post(`{"url":"not a url"}`)
	defer invalid.Body.Close()
	assert.Equal(t, http.StatusBadRequest, invalid.StatusCode)
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(invalid.Body).Decode(&e))
	assert.Equal(t, "validation_error", e.Error)
	assert.Equal(t, "url must be a valid URL", e.Message)
}

func TestView(t *testing.T) {
	ts, _ := newTestServer(t)
	id := upload(t, ts).ID
	base := ts.URL + "/api/graphs/" + id + "/view"

	var render viewmodel.Render
	assert.Equal(t, http.StatusOK, getJSON(t, base, &render))
	assert.Equal(t, 4, render.NodeCountBeforeCap)
	require.Len(t, render.Edges, 1)
	assert.Equal(t, "to", render.Edges[0].Arrows)

	q := url.Values{}
	q.Add("class", ex+"Policy")
	q.Set("selected", ex+"Policy")
	assert.Equal(t, http.StatusOK, getJSON(t, base+"?"+q.Encode(), &render))
	require.Len(t, render.Nodes, 1)
	assert.Equal(t, "Политика", render.Nodes[0].Label)
	assert.Equal(t, viewmodel.SizeSelected, render.Nodes[0].Size)
	assert.Equal(t, "Политика (Class)<br>a &lt;rule&gt;", render.Nodes[0].Title)

	var vm viewmodel.ViewModel
	assert.Equal(t, http.StatusOK, getJSON(t, base+"?format=model&max=2", &vm))
	assert.Len(t, vm.Nodes, 2)
	assert.True(t, vm.Truncated())

	assert.Equal(t, http.StatusOK, getJSON(t, base+"?type=individual", &vm))
	assert.Equal(t, http.StatusOK, getJSON(t, base+"?format=model&type=individual", &vm))
	assert.Len(t, vm.Nodes, 2)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"?max=-1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"?type=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"?format=svg", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/graphs/missing/view", nil))
}

func TestNodesTriplesDetail(t *testing.T) {
	ts, _ := newTestServer(t)
	id := upload(t, ts).ID
	base := ts.URL + "/api/graphs/" + id

	var table viewmodel.Table
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/nodes?q=relates", &table))
	assert.Equal(t, 1, table.Found)

	var rows []map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/triples", &rows))
	assert.Len(t, rows, 7)

	var detail viewmodel.Detail
	assert.Equal(t, http.StatusOK, getJSON(t, base+"/nodes/detail?uri="+url.QueryEscape(ex+"B"), &detail))
	assert.Len(t, detail.Incoming, 1)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, base+"/nodes/detail", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, base+"/nodes/detail?uri="+url.QueryEscape(ex+"Nope"), nil))
}

func TestExport(t *testing.T) {
	ts, _ := newTestServer(t)
	id := upload(t, ts).ID

	body, err := json.Marshal(service.ExportRequest{URIs: []string{ex + "B"}, Format: "turtle"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/graphs/"+id+"/export", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.OverInclusionNote, resp.Header.Get(ExportNoteHeader))
	assert.Equal(t, "2", resp.Header.Get("X-Semview-Triples"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "subgraph.ttl")
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/turtle"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	doc, err := parser.ParseTurtle(buf.String(), "")
	require.NoError(t, err)
	assert.Len(t, doc.Triples, 2)

	bad, err := http.Post(ts.URL+"/api/graphs/"+id+"/export", "application/json", strings.NewReader(`{"uris":[]}`))
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	unknown, err := http.Post(ts.URL+"/api/graphs/"+id+"/export", "application/json", strings.NewReader(`{"uris":["urn:x"],"format":"rdfxml"}`))
	require.NoError(t, err)
	defer unknown.Body.Close()
	assert.Equal(t, http.StatusBadRequest, unknown.StatusCode)
}

func TestDelete(t *testing.T) {
	ts, _ := newTestServer(t)
	id := upload(t, ts).ID

	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/graphs/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusNoContent, del())
	assert.Equal(t, http.StatusNotFound, del())
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/graphs/"+id, nil))
}

func TestRequestIDAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `semview_http_requests_total{method="GET",route="/health",status="200"} 2`)
}

func TestMetrics_UnmatchedRoutes(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/random-", "/random-x"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `semview_http_requests_total{method="GET",route="unmatched",status="404"} 2`)
	assert.NotContains(t, out, "/random-")
}

func TestUploadName(t *testing.T) {
	tests := []struct {
		target      string
		contentType string
		want        string
	}{
		{"/api/graphs?name=core.nt", "text/turtle", "core.nt"},
		{"/api/graphs?name=../../etc/passwd.ttl", "", "passwd.ttl"},
		{"/api/graphs", "application/n-triples", "upload.nt"},
		{"/api/graphs", "text/turtle; charset=utf-8", "upload.ttl"},
		{"/api/graphs", "application/octet-stream", "upload.ttl"},
		{"/api/graphs?name=noext", "", "upload.ttl"},
		{"/api/graphs?name=axiology.owl", "text/turtle", "axiology.ttl"},
		{"/api/graphs?name=onto.rdf", "application/n-triples; charset=utf-8", "onto.nt"},
		{"/api/graphs?name=axiology.owl", "", "axiology.owl"},
	}

	for _, tt := range tests {
		t.Run(tt.want+tt.target, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, tt.target, nil)
			r.Header.Set("Content-Type", tt.contentType)
			assert.Equal(t, tt.want, uploadName(r))
		})
	}
}
