package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// maxUploadMemory is how much of a multipart body is kept in memory.
const maxUploadMemory = 32 << 20

type questionRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type sourceJSON struct {
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

type outcomeJSON struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

type historyJSON struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type collectionJSON struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) uploadDocuments(c *gin.Context) {
	if s.deps.Ingestion == nil {
		RespondError(c, http.StatusServiceUnavailable, "ingestion_disabled", fmt.Errorf("ingestion is not configured"))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("reading upload: %w", err))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("no files in field %q", "files"))
		return
	}

	docs := make([]domain.UploadedDocument, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("opening %s: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("reading %s: %w", fh.Filename, err))
			return
		}
		docs = append(docs, domain.UploadedDocument{Name: fh.Filename, Data: data})
	}

	outcomes := s.deps.Ingestion.IngestAll(c.Request.Context(), docs)
	out := make([]outcomeJSON, len(outcomes))
	ingested := 0
	for i, o := range outcomes {
		out[i] = outcomeJSON{Name: o.Source, Chunks: o.Chunks}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
			s.deps.Log.Warn("document not ingested", "name", o.Source, "error", o.Err)
			continue
		}
		ingested++
	}

	RespondOK(c, gin.H{"documents": out, "ingested": ingested})
}

func (s *Server) bindQuestion(c *gin.Context) (questionRequest, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("decoding request: %w", err))
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return req, false
	}
	return req, true
}

// ask streams the answer as server-sent events: one "context" event with
// the retrieved sources, "delta" events with answer fragments, and a final
// "done" or "error" event carrying the text received. A client that goes
// away mid-answer gets "error", never "done".
func (s *Server) ask(c *gin.Context) {
	req, ok := s.bindQuestion(c)
	if !ok {
		return
	}

	reply, err := s.deps.Chat.Turn(c.Request.Context(), req.Question, nil)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer reply.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if genReq := reply.Request(); genReq != nil {
		c.SSEvent("context", gin.H{
			"model":   genReq.ModelID,
			"context": genReq.Context,
			"sources": toSources(genReq.Sources),
		})
		c.Writer.Flush()
	}

	ctx := c.Request.Context()
	interrupted := false
	for {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		if !reply.Next() {
			break
		}
		c.SSEvent("delta", gin.H{"text": reply.Text()})
		c.Writer.Flush()
	}

	err = reply.Err()
	if interrupted {
		_ = reply.Close()
		if err = reply.Err(); err == nil {
			err = fmt.Errorf("%w: %w", domain.ErrIncompleteAnswer, ctx.Err())
		}
	}
	if err != nil {
		s.deps.Log.Warn("answer incomplete", "error", err)
		c.SSEvent("error", gin.H{"message": err.Error(), "answer": reply.Answer()})
	} else {
		c.SSEvent("done", gin.H{"answer": reply.Answer()})
	}
	c.Writer.Flush()
}

func (s *Server) retrieve(c *gin.Context) {
	if s.deps.Query == nil {
		RespondError(c, http.StatusServiceUnavailable, "retrieval_disabled", fmt.Errorf("retrieval is not configured"))
		return
	}
	req, ok := s.bindQuestion(c)
	if !ok {
		return
	}
	k := req.TopK
	if k <= 0 {
		k = s.deps.TopK
	}

	result, err := s.deps.Query.Retrieve(c.Request.Context(), req.Question, k)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"question": req.Question, "top_k": k, "sources": toSources(result)})
}

func (s *Server) history(c *gin.Context) {
	entries, err := s.deps.Chat.History(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := make([]historyJSON, len(entries))
	for i, e := range entries {
		out[i] = historyJSON{Role: string(e.Role), Text: e.Text, At: e.At}
	}
	RespondOK(c, gin.H{"history": out})
}

func (s *Server) clearHistory(c *gin.Context) {
	if err := s.deps.Chat.ClearHistory(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) collections(c *gin.Context) {
	out := []collectionJSON{}
	if s.deps.Vectors != nil {
		for _, name := range s.deps.Vectors.Collections() {
			index, err := s.deps.Vectors.GetOrCreateCollection(c.Request.Context(), name)
			if err != nil {
				RespondDomainError(c, err)
				return
			}
			out = append(out, collectionJSON{Name: name, Count: index.Count()})
		}
	}
	RespondOK(c, gin.H{"collections": out})
}

func toSources(result domain.RetrievalResult) []sourceJSON {
	out := make([]sourceJSON, len(result))
	for i, sc := range result {
		out[i] = sourceJSON{
			Source: sc.Chunk.Source,
			Page:   sc.Chunk.Page,
			Score:  sc.Score,
			Text:   sc.Chunk.Text,
		}
	}
	return out
}
