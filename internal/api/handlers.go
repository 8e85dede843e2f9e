package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowboardhq/flowboard/pkg/cache"
	"github.com/flowboardhq/flowboard/pkg/engine"
	"github.com/flowboardhq/flowboard/pkg/errors"
	"github.com/flowboardhq/flowboard/pkg/geometry"
	"github.com/flowboardhq/flowboard/pkg/observability"
	"github.com/flowboardhq/flowboard/pkg/render"
	"github.com/flowboardhq/flowboard/pkg/topology"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Diagrams
// =============================================================================

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc := topology.Diagram{ID: topology.NewID(), Name: req.Name}
	id, err := s.diagrams.Save(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}
	doc.ID = id
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	docs, err := s.diagrams.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	type summary struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Nodes int    `json:"nodes"`
		Tasks int    `json:"tasks"`
	}
	out := make([]summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, summary{ID: d.ID, Name: d.Name, Nodes: len(d.Nodes), Tasks: len(d.Tasks)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	doc := sess.store.Export()
	doc.ID = id
	doc.Name = sess.name
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	if err := s.diagrams.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Layout
// =============================================================================

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	type pathEntry struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Path   string `json:"path"`
	}
	resp := struct {
		Mode  string                    `json:"mode"`
		Tasks map[string]geometry.Point `json:"tasks"`
		Paths []pathEntry               `json:"paths"`
	}{
		Mode:  string(sess.eng.Mode()),
		Tasks: make(map[string]geometry.Point),
	}
	for _, t := range sess.store.Tasks() {
		if p, ok := sess.eng.TaskPosition(t.ID); ok {
			resp.Tasks[t.ID] = p
		}
	}
	for f, p := range sess.eng.Paths() {
		resp.Paths = append(resp.Paths, pathEntry{Source: f.Source, Target: f.Target, Path: p})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnterMatrix(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(e *engine.Engine) error { return e.EnterMatrix(r.Context()) })
}

func (s *Server) handleExitMatrix(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, func(e *engine.Engine) error { return e.ExitMatrix(r.Context()) })
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, fn func(*engine.Engine) error) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := fn(sess.eng); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(sess.eng.Mode())})
}

// =============================================================================
// Nodes
// =============================================================================

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Kind     topology.NodeKind `json:"kind"`
		Label    string            `json:"label"`
		Position geometry.Point    `json:"position"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	node, err := sess.eng.AddNode(topology.Node{Kind: req.Kind, Label: req.Label, Position: req.Position})
	if err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.DeleteNode(chi.URLParam(r, "nodeID")); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReassignTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		NewAnchor string   `json:"new_anchor"`
		TaskIDs   []string `json:"task_ids"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	oldAnchor := chi.URLParam(r, "nodeID")
	if err := sess.eng.ReassignTasks(r.Context(), oldAnchor, req.NewAnchor, req.TaskIDs); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Position geometry.Point `json:"position"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.MoveNode(r.Context(), chi.URLParam(r, "nodeID"), req.Position); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLabel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Label string `json:"label"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.store.SetLabel(chi.URLParam(r, "nodeID"), req.Label); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Tasks
// =============================================================================

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Anchor string         `json:"anchor"`
		Tags   []topology.Tag `json:"tags"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := sess.eng.CreateTask(r.Context(), req.Anchor, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.DeleteTask(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReassignTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Anchor string `json:"anchor"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	taskID := chi.URLParam(r, "taskID")
	if req.Anchor == "" {
		err = sess.eng.ReturnTask(r.Context(), taskID)
	} else {
		err = sess.eng.ReassignTask(r.Context(), taskID, req.Anchor)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Tags []topology.Tag `json:"tags"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.SetTaskTags(r.Context(), chi.URLParam(r, "taskID"), req.Tags); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetHeight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Height float64 `json:"height"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Height <= 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "height must be positive"))
		return
	}
	if err := sess.eng.SetTaskHeight(r.Context(), chi.URLParam(r, "taskID"), req.Height); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Flowlines
// =============================================================================

func (s *Server) handleAddFlowline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Source   string            `json:"source"`
		Target   string            `json:"target"`
		PathType topology.PathType `json:"path_type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PathType == "" {
		req.PathType = topology.PathPerpendicular
	}

	f, err := sess.eng.Connect(req.Source, req.Target, req.PathType)
	if err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleRemoveFlowline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.Disconnect(chi.URLParam(r, "source"), chi.URLParam(r, "target")); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPathType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		PathType topology.PathType `json:"path_type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.eng.SetPathType(chi.URLParam(r, "source"), chi.URLParam(r, "target"), req.PathType); err != nil {
		writeError(w, err)
		return
	}
	s.persist(r, id, sess)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Render
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "diagramID")
	sess, err := s.getSession(r, id)
	if err != nil {
		writeError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}

	doc := sess.store.Export()
	raw, _ := json.Marshal(doc)
	// The mode is part of the content hash: the same document renders
	// differently in normal and matrix mode.
	raw = append(raw, []byte(sess.eng.Mode())...)
	key := s.keyer.ArtifactKey(cache.Hash(raw), cache.ArtifactKeyOpts{Format: format})

	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		observability.Cache().OnCacheHit(r.Context(), "artifact")
		w.Header().Set("Content-Type", contentType(format))
		_, _ = w.Write(data)
		return
	}
	observability.Cache().OnCacheMiss(r.Context(), "artifact")

	scene := render.BuildScene(sess.eng, sess.store, s.cfg)

	var data []byte
	switch format {
	case "svg":
		data = render.RenderSVG(scene, render.WithSatellites(), render.WithGrid())
	case "png":
		data, err = render.RenderPNG(scene)
	case "dot":
		data = []byte(render.ToDOT(scene, render.DOTOptions{Detailed: true}))
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format))
		return
	}
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "rendering %s failed", format))
		return
	}

	if err := s.cache.Set(r.Context(), key, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(r.Context(), "artifact", len(data))
	}

	w.Header().Set("Content-Type", contentType(format))
	_, _ = w.Write(data)
}

func contentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "dot":
		return "text/vnd.graphviz"
	default:
		return "image/svg+xml"
	}
}
