package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/insight-search/insight-go/internal/library"
	"github.com/insight-search/insight-go/internal/logging"
	"github.com/insight-search/insight-go/internal/rag"
)

// handleSearch handles POST /api/search: embed the query, retrieve the
// nearest chunks, and return them with resolved library URLs. A blank query
// is not an error — it returns an empty result set, matching the retriever's
// contract.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	req, ok := s.decodeSearchRequest(w, r)
	if !ok {
		s.metrics.searchRequestsTotal.WithLabelValues(modeSearch, "error").Inc()
		return
	}

	docs, err := s.retriever.Retrieve(r.Context(), req.Query, req.TopK, authorFilter(req.Authors))
	if err != nil {
		log.Error("search failed", slog.Any("error", err))
		s.metrics.searchRequestsTotal.WithLabelValues(modeSearch, "error").Inc()
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	s.metrics.searchRequestsTotal.WithLabelValues(modeSearch, "ok").Inc()
	s.metrics.searchDurationSeconds.WithLabelValues(modeSearch).Observe(time.Since(start).Seconds())
	s.metrics.searchResultsReturned.WithLabelValues(modeSearch).Observe(float64(len(docs)))

	writeJSON(w, log, http.StatusOK, searchResponse{Results: s.toResults(docs)})
}

// handleJournal handles POST /api/journal: restate the entry through the
// generative model, then search with the restatement. The restatement is
// returned alongside the results so the UI can show what was searched.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	req, ok := s.decodeSearchRequest(w, r)
	if !ok {
		s.metrics.searchRequestsTotal.WithLabelValues(modeJournal, "error").Inc()
		return
	}

	restated, err := s.rewriter.Rewrite(r.Context(), req.Query)
	if err != nil {
		log.Error("journal rewrite failed", slog.Any("error", err))
		s.metrics.searchRequestsTotal.WithLabelValues(modeJournal, "error").Inc()
		http.Error(w, "journal rewrite failed", http.StatusBadGateway)
		return
	}

	docs, err := s.retriever.Retrieve(r.Context(), restated, req.TopK, authorFilter(req.Authors))
	if err != nil {
		log.Error("journal search failed", slog.Any("error", err))
		s.metrics.searchRequestsTotal.WithLabelValues(modeJournal, "error").Inc()
		http.Error(w, "search failed", http.StatusBadGateway)
		return
	}

	s.metrics.searchRequestsTotal.WithLabelValues(modeJournal, "ok").Inc()
	s.metrics.searchDurationSeconds.WithLabelValues(modeJournal).Observe(time.Since(start).Seconds())
	s.metrics.searchResultsReturned.WithLabelValues(modeJournal).Observe(float64(len(docs)))

	writeJSON(w, log, http.StatusOK, journalResponse{
		Restatement: restated,
		Results:     s.toResults(docs),
	})
}

// handleDocuments handles GET /api/documents: list the indexed files from
// the ledger.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := documentsResponse{Documents: []documentEntry{}}
	if s.ledger != nil {
		docs, err := s.ledger.List(r.Context())
		if err != nil {
			log.Error("ledger list failed", slog.Any("error", err))
			http.Error(w, "ledger unavailable", http.StatusInternalServerError)
			return
		}
		for _, d := range docs {
			resp.Documents = append(resp.Documents, documentEntry{
				SourceFile: d.SourceFile,
				Author:     d.Author,
				ChunkCount: d.ChunkCount,
				IndexedAt:  d.IndexedAt,
			})
		}
	}

	writeJSON(w, log, http.StatusOK, resp)
}

// handleStats handles GET /api/stats: ledger aggregates plus the live vector
// count and the author filter options for the UI.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := statsResponse{
		ByAuthor: map[string]int{},
		Authors:  library.AuthorOptions(),
	}

	if s.ledger != nil {
		st, err := s.ledger.Stats(r.Context())
		if err != nil {
			log.Error("ledger stats failed", slog.Any("error", err))
			http.Error(w, "ledger unavailable", http.StatusInternalServerError)
			return
		}
		resp.Documents = st.Documents
		resp.Chunks = st.Chunks
		resp.ByAuthor = st.ByAuthor
	}

	if s.vectors != nil {
		n, err := s.vectors.Count(r.Context())
		if err != nil {
			// The vector store being down shouldn't hide the ledger stats.
			log.Warn("vector count failed", slog.Any("error", err))
		} else {
			resp.VectorCount = n
		}
	}

	writeJSON(w, log, http.StatusOK, resp)
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.log, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeSearchRequest parses and validates the shared search request body.
// On failure it writes the error response and returns ok=false.
func (s *Server) decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}
	if req.TopK < 0 {
		http.Error(w, "top_k must not be negative", http.StatusBadRequest)
		return req, false
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.Search.DefaultTopK
	}
	if req.TopK > s.cfg.Search.MaxTopK {
		req.TopK = s.cfg.Search.MaxTopK
	}
	return req, true
}

// toResults converts retrieved documents to the response shape, resolving
// each source file to its canonical library URL.
func (s *Server) toResults(docs []rag.Document) []searchResult {
	results := make([]searchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, searchResult{
			DocumentID:  d.ID,
			Text:        d.Text,
			SourceFile:  d.SourceFile,
			ParagraphID: d.ParagraphID,
			Author:      d.Author,
			Score:       d.Score,
			URL:         s.catalog.ResolveURL(d.SourceFile),
		})
	}
	return results
}

// authorFilter builds a rag.SearchFilter from the request's author list.
// Returns nil for an empty list so the store skips filtering entirely.
func authorFilter(authors []string) *rag.SearchFilter {
	if len(authors) == 0 {
		return nil
	}
	return &rag.SearchFilter{Authors: authors}
}

// writeJSON encodes v to w with the given status, logging encode failures.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}
