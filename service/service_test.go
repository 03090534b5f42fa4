package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semview/classifier"
	"github.com/c360studio/semview/export"
	"github.com/c360studio/semview/labels"
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

:Policy a owl:Class ; rdfs:label "Policy"@en, "Политика"@ru .
:Goal a owl:Class ; rdfs:label "Goal" .
:relatesTo a owl:ObjectProperty ; rdfs:label "relates to" .
:score a owl:DatatypeProperty .
:A a :Policy ; rdfs:label "Alpha" ; :relatesTo :B ; :score 5 .
:B a :Goal ; rdfs:label "Beta" .
`

type recorder struct {
	views, exports int
}

func (r *recorder) ViewBuilt(int, bool) { r.views++ }
func (r *recorder) Exported(string, int) { r.exports++ }

func newService(t *testing.T, fetcher *fetch.Fetcher) (*service.Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	repo := storage.NewRepository(storage.RepositoryConfig{
		Parse: parser.DefaultRegistry.Parse,
	})
	svc := service.New(service.Config{
		Repository: repo,
		Fetcher:    fetcher,
		Labels:     labels.DefaultOptions(),
		View:       service.ViewDefaults{MaxNodes: 100},
		Metrics:    rec,
	})
	return svc, rec
}

func load(t *testing.T, svc *service.Service) string {
	t.Helper()
	res, err := svc.LoadDocument(context.Background(), "upload.ttl", []byte(ontology))
	require.NoError(t, err)
	return res.ID
}

func TestService_LoadDocument(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	res, err := svc.LoadDocument(ctx, "upload.ttl", []byte(ontology))
	require.NoError(t, err)
	assert.Equal(t, storage.Fingerprint([]byte(ontology)), res.ID)
	assert.Equal(t, 14, res.Triples)
	assert.Equal(t, "upload.ttl", res.Source)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, res.Counts["Class"])

	again, err := svc.LoadDocument(ctx, "upload.ttl", []byte(ontology))
	require.NoError(t, err)
	assert.True(t, again.Cached)

	_, err = svc.LoadDocument(ctx, "bad.ttl", []byte(":a :b"))
	assert.ErrorIs(t, err, parser.ErrSyntax)

	assert.Len(t, svc.List(), 1)
}

func TestService_LoadFile(t *testing.T) {
	svc, _ := newService(t, nil)

	path := filepath.Join(t.TempDir(), "ontology.ttl")
	require.NoError(t, os.WriteFile(path, []byte(ontology), 0o644))

	res, err := svc.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Source)

	_, err = svc.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.ttl"))
	assert.Error(t, err)
}

func TestService_LoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		_, _ = w.Write([]byte(ontology))
	}))
	defer srv.Close()

	f := fetch.New(fetch.Config{Policy: weburl.Policy{AllowHTTP: true, AllowPrivate: true}})
	svc, _ := newService(t, f)

	res, err := svc.LoadURL(context.Background(), srv.URL+"/axiology")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/axiology", res.Source)
	assert.Equal(t, 14, res.Triples)

	disabled, _ := newService(t, nil)
	_, err = disabled.LoadURL(context.Background(), srv.URL)
	assert.ErrorIs(t, err, fetch.ErrSourceUnavailable)
}

func TestService_View(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()
	id := load(t, svc)

	vm, err := svc.View(ctx, id, service.ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, 6, vm.NodeCountBeforeCap)
	assert.Equal(t, 1, rec.views)

	vm, err = svc.View(ctx, id, service.ViewRequest{
		Filters:  viewmodel.Filters{Classes: []string{ex + "Policy"}},
		Selected: ex + "Policy",
	})
	require.NoError(t, err)
	require.Len(t, vm.Nodes, 1)
	assert.Equal(t, "Политика", vm.Nodes[0].Label)

	en := "en"
	vm, err = svc.View(ctx, id, service.ViewRequest{
		Filters:  viewmodel.Filters{Classes: []string{ex + "Policy"}},
		Language: &en,
	})
	require.NoError(t, err)
	assert.Equal(t, "Policy", vm.Nodes[0].Label)

	vm, err = svc.View(ctx, id, service.ViewRequest{MaxNodes: 2})
	require.NoError(t, err)
	assert.Len(t, vm.Nodes, 2)
	assert.True(t, vm.Truncated())

	vm, err = svc.View(ctx, id, service.ViewRequest{Types: []classifier.TypeTag{classifier.NamedIndividual}})
	require.NoError(t, err)
	assert.Len(t, vm.Nodes, 2)

	_, err = svc.View(ctx, "missing", service.ViewRequest{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_NodesAndDetail(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	id := load(t, svc)

	table, err := svc.Nodes(ctx, id, "alpha", nil)
	require.NoError(t, err)
	require.Equal(t, 1, table.Found)
	assert.Equal(t, ex+"A", table.Rows[0].URI)

	detail, err := svc.Detail(ctx, id, ex+"A")
	require.NoError(t, err)
	assert.Equal(t, classifier.NamedIndividual, detail.Node.Type)
	assert.Len(t, detail.Outgoing, 4)

	_, err = svc.Detail(ctx, id, ex+"Nope")
	assert.ErrorIs(t, err, service.ErrNodeNotFound)

	rows, err := svc.Triples(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rows, 14)
}

func TestService_Export(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()
	id := load(t, svc)

	res, err := svc.Export(ctx, id, service.ExportRequest{URIs: []string{ex + "B"}, Format: "nt"})
	require.NoError(t, err)
	assert.Equal(t, export.FormatNTriples, res.Format.Name)
	// B's own two statements plus A :relatesTo :B
	assert.Equal(t, 3, res.Triples)
	assert.Equal(t, 1, rec.exports)

	_, err = svc.Export(ctx, id, service.ExportRequest{URIs: []string{ex + "B"}, Format: "rdfxml"})
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	id := load(t, svc)

	assert.True(t, svc.Delete(ctx, id))
	_, err := svc.Snapshot(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, svc.Delete(ctx, id))
}
