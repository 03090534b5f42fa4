package transport

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semview/labels"
	"github.com/c360studio/semview/service"
	"github.com/c360studio/semview/source/parser"
	"github.com/c360studio/semview/storage"
	"github.com/c360studio/semview/viewmodel"
)

const ontology = `@prefix : <http://example.org/axiology#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

:Policy a owl:Class ; rdfs:label "Policy" .
:relatesTo a owl:ObjectProperty .
:A a :Policy ; :relatesTo :B .
:B a owl:NamedIndividual .
`

func newResponder(t *testing.T, sources storage.SourceStore) (*Responder, string) {
	t.Helper()
	repo := storage.NewRepository(storage.RepositoryConfig{
		Parse:   parser.DefaultRegistry.Parse,
		Sources: sources,
	})
	svc := service.New(service.Config{Repository: repo, Labels: labels.DefaultOptions()})
	res, err := svc.LoadDocument(context.Background(), "test.ttl", []byte(ontology))
	require.NoError(t, err)
	return NewResponder(svc, Config{}), res.ID
}

func decodeReply(t *testing.T, data []byte) Reply {
	t.Helper()
	var reply Reply
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestHandle_View(t *testing.T) {
	r, id := newResponder(t, nil)

	req, _ := json.Marshal(ViewMessage{GraphID: id})
	reply := decodeReply(t, r.Handle(context.Background(), "semview.view", req))
	require.True(t, reply.OK, "error: %+v", reply.Error)

	var render viewmodel.Render
	require.NoError(t, json.Unmarshal(reply.Data, &render))
	assert.Len(t, render.Nodes, 4)
	assert.Len(t, render.Edges, 1)
}

func TestHandle_ViewModel(t *testing.T) {
	r, id := newResponder(t, nil)

	req, _ := json.Marshal(ViewMessage{GraphID: id, Format: "model", MaxNodes: 1})
	reply := decodeReply(t, r.Handle(context.Background(), "semview.view", req))
	require.True(t, reply.OK)

	var vm viewmodel.ViewModel
	require.NoError(t, json.Unmarshal(reply.Data, &vm))
	assert.Len(t, vm.Nodes, 1)
	assert.Equal(t, 4, vm.NodeCountBeforeCap)
}

func TestHandle_Export(t *testing.T) {
	r, id := newResponder(t, nil)

	req, _ := json.Marshal(ExportMessage{GraphID: id, URIs: []string{"http://example.org/axiology#B"}, Format: "nt"})
	reply := decodeReply(t, r.Handle(context.Background(), "semview.export", req))
	require.True(t, reply.OK)

	var out ExportReply
	require.NoError(t, json.Unmarshal(reply.Data, &out))
	assert.Equal(t, "ntriples", string(out.Format))
	assert.Equal(t, 2, out.Triples)
	assert.Equal(t, 2, strings.Count(out.Body, "\n"))
	assert.NotEmpty(t, out.Note)
}

func TestHandle_Load(t *testing.T) {
	r, _ := newResponder(t, nil)

	doc := "<http://example.org/x> a <http://www.w3.org/2002/07/owl#Class> ."
	req, _ := json.Marshal(LoadMessage{Name: "x.ttl", Document: doc})
	reply := decodeReply(t, r.Handle(context.Background(), "semview.load", req))
	require.True(t, reply.OK)

	var res service.LoadResult
	require.NoError(t, json.Unmarshal(reply.Data, &res))
	assert.Equal(t, storage.Fingerprint([]byte(doc)), res.ID)
	assert.Equal(t, 1, res.Triples)
}

func TestHandle_Errors(t *testing.T) {
	r, id := newResponder(t, nil)

	tests := []struct {
		name    string
		subject string
		data    string
		code    string
	}{
		{"bad json", "semview.view", "{", "invalid_json"},
		{"missing graph id", "semview.view", `{}`, "validation_error"},
		{"bad view format", "semview.view", `{"graph_id":"` + id + `","format":"svg"}`, "validation_error"},
		{"unknown graph", "semview.view", `{"graph_id":"nope"}`, service.CodeNotFound},
		{"empty selection", "semview.export", `{"graph_id":"` + id + `","uris":[]}`, "validation_error"},
		{"unsupported format", "semview.export", `{"graph_id":"` + id + `","uris":["x"],"format":"rdfxml"}`, service.CodeUnsupportedFormat},
		{"syntax error", "semview.load", `{"document":"<urn:s> <urn:p> <urn:o>"}`, service.CodeSyntax},
		{"fetch disabled", "semview.load", `{"url":"https://example.org/o.ttl"}`, service.CodeSourceUnavailable},
		{"unknown subject", "semview.other", `{}`, "unknown_subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := decodeReply(t, r.Handle(context.Background(), tt.subject, []byte(tt.data)))
			assert.False(t, reply.OK)
			require.NotNil(t, reply.Error)
			assert.Equal(t, tt.code, reply.Error.Code)
			assert.NotEmpty(t, reply.Error.Message)
		})
	}
}

func TestResponder_Subject(t *testing.T) {
	r := NewResponder(nil, Config{SubjectPrefix: "graphs."})
	assert.Equal(t, "graphs.view", r.Subject(SubjectView))
}

// natsURL returns the server used by the integration tests, skipping when
// none is configured.
func natsURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("SEMVIEW_NATS_URL")
	if url == "" {
		t.Skip("SEMVIEW_NATS_URL not set")
	}
	return url
}

func TestResponder_NATS(t *testing.T) {
	nc, err := nats.Connect(natsURL(t))
	require.NoError(t, err)
	defer nc.Close()

	r, id := newResponder(t, nil)
	r.prefix = "semview-test-" + strings.ReplaceAll(t.Name(), "/", "-")
	require.NoError(t, r.Start(nc))
	defer r.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := json.Marshal(ViewMessage{GraphID: id})
	msg, err := nc.RequestWithContext(ctx, r.Subject(SubjectView), req)
	require.NoError(t, err)

	reply := decodeReply(t, msg.Data)
	assert.True(t, reply.OK)
}

func TestKVSources_NATS(t *testing.T) {
	nc, err := nats.Connect(natsURL(t))
	require.NoError(t, err)
	defer nc.Close()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucket := "SEMVIEW_TEST_SOURCES"
	t.Cleanup(func() { _ = js.DeleteKeyValue(context.Background(), bucket) })

	sources, err := storage.NewKVSources(ctx, js, bucket)
	require.NoError(t, err)

	r, id := newResponder(t, sources)
	r.svc.Repository().Purge()

	// The purged snapshot is rebuilt from the stored source.
	req, _ := json.Marshal(ViewMessage{GraphID: id})
	reply := decodeReply(t, r.Handle(ctx, "semview.view", req))
	assert.True(t, reply.OK, "error: %+v", reply.Error)
}
