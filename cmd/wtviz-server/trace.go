package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"github.com/wtviz/wtviz/internal/calltree"
	"github.com/wtviz/wtviz/internal/dot"
	"github.com/wtviz/wtviz/internal/storageutil"
	"github.com/wtviz/wtviz/internal/treefilter"
	"github.com/wtviz/wtviz/internal/wt"
)

type (
	// TraceDocument is the stored form of an uploaded trace. The raw
	// text is kept verbatim so trees can be rebuilt with any filter
	// configuration later.
	TraceDocument struct {
		ID    string `json:"id"`
		Trace string `json:"trace"`
	}

	PostTraceResponse struct {
		ID         string         `json:"id"`
		Stats      calltree.Stats `json:"stats"`
		NoiseLines int            `json:"noise_lines"`
		Nodes      int            `json:"nodes"`
	}

	GetTraceTreeResponse struct {
		ID    string         `json:"id"`
		Stats calltree.Stats `json:"stats"`
		Tree  *calltree.Node `json:"tree"`
	}
)

func storagePath(traceID string) string {
	return fmt.Sprintf("traces/%s", traceID)
}

func (env *environment) postTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	s := sentry.StartSpan(ctx, "request.body")
	s.Description = "Read request body"
	body, err := io.ReadAll(r.Body)
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "trace.parse")
	s.Description = "Parse wt trace"
	reader := wt.NewReader(strings.NewReader(string(body)))
	records, err := reader.ReadAll()
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	root, stats := calltree.Build(records)

	traceID := uuid.New().String()
	hub.Scope().SetContext("Trace metadata", map[string]interface{}{
		"trace_id": traceID,
		"records":  stats.Records,
		"size":     len(body),
	})

	s = sentry.StartSpan(ctx, "blob.write")
	s.Description = "Write trace to bucket"
	err = storageutil.CompressedWrite(ctx, env.tracesBucket, storagePath(traceID), TraceDocument{
		ID:    traceID,
		Trace: string(body),
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(w, hub, PostTraceResponse{
		ID:         traceID,
		Stats:      stats,
		NoiseLines: reader.NoiseLines(),
		Nodes:      root.Count(),
	})
}

func (env *environment) getTraceTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	// Bad filter parameters are rejected before the trace is even read.
	reduce, ok := filterFromQuery(w, r.URL.Query())
	if !ok {
		return
	}

	root, stats, traceID, ok := env.loadTree(w, r)
	if !ok {
		return
	}
	tree := reduce(root)

	s := sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal tree response"
	defer s.Finish()
	writeJSON(w, hub, GetTraceTreeResponse{
		ID:    traceID,
		Stats: stats,
		Tree:  tree,
	})
}

func (env *environment) getTraceDot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reduce, ok := filterFromQuery(w, q)
	if !ok {
		return
	}
	direction := q.Get("direction")
	if direction == "" {
		direction = "LR"
	}
	if direction != "LR" && direction != "TB" {
		http.Error(w, fmt.Sprintf("unknown direction %q (valid: LR, TB)", direction), http.StatusBadRequest)
		return
	}

	root, _, _, ok := env.loadTree(w, r)
	if !ok {
		return
	}
	tree := reduce(root)

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	if err := dot.FromTree(tree, direction).Write(w); err != nil {
		log.Err(err).Msg("can't write dot response")
	}
}

// loadTree reads the stored trace and rebuilds the full tree. It writes
// the HTTP error itself and returns ok=false when the caller should
// stop.
func (env *environment) loadTree(w http.ResponseWriter, r *http.Request) (*calltree.Node, calltree.Stats, string, bool) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	traceID := ps.ByName("trace_id")

	var doc TraceDocument
	s := sentry.StartSpan(ctx, "blob.read")
	s.Description = "Read trace from bucket"
	err := storageutil.UnmarshalCompressed(ctx, env.tracesBucket, storagePath(traceID), &doc)
	s.Finish()
	if err != nil {
		if errors.Is(err, storageutil.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return nil, calltree.Stats{}, "", false
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, calltree.Stats{}, "", false
	}

	records, err := wt.NewReader(strings.NewReader(doc.Trace)).ReadAll()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return nil, calltree.Stats{}, "", false
	}
	root, stats := calltree.Build(records)
	return root, stats, traceID, true
}

// filterFromQuery validates the filter parameters from the query string
// and returns the reduction to apply. Without any filter parameter, or
// with full=1, the tree passes through unfiltered. Invalid parameters
// are the caller's fault and reported as 400 with the offending value.
func filterFromQuery(w http.ResponseWriter, q url.Values) (func(*calltree.Node) *calltree.Node, bool) {
	passthrough := func(root *calltree.Node) *calltree.Node { return root }
	if q.Get("full") == "1" {
		return passthrough, true
	}
	if q.Get("depth") == "" && q.Get("preset") == "" && len(q["add"]) == 0 {
		return passthrough, true
	}

	depth := treefilter.MaxDepth
	if v := q.Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid depth %q", v), http.StatusBadRequest)
			return nil, false
		}
		depth = d
	}
	preset := q.Get("preset")
	if preset == "" {
		preset = treefilter.PresetMedium
	}

	cfg, err := treefilter.NewConfig(depth, preset, q["add"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return func(root *calltree.Node) *calltree.Node {
		return treefilter.Filter(root, cfg)
	}, true
}

func writeJSON(w http.ResponseWriter, hub *sentry.Hub, d interface{}) {
	b, err := json.Marshal(d)
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
