package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nameres-service/internal/config"
	"nameres-service/internal/fileio"
	"nameres-service/internal/resolve/model"
	"nameres-service/internal/resolve/service"
	"nameres-service/internal/store"
)

type resolveRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type resolveResponse struct {
	Matched    bool              `json:"matched"`
	Entry      *model.CatalogRef `json:"entry,omitempty"`
	Confidence int               `json:"confidence,omitempty"`
	Method     string            `json:"method,omitempty"`
	Reasons    []string          `json:"reasons,omitempty"`
}

// Resolve — одиночное разрешение имени. «Нет совпадения» — это 200 с
// matched=false, не ошибка.
func Resolve(res *service.Resolver, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if strings.TrimSpace(req.Source) == "" {
			writeError(w, http.StatusBadRequest, "source is required")
			return
		}

		rs, err := res.Resolve(r.Context(), req.Name, req.Source)
		if err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("resolve")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, toResponse(rs))
	}
}

type batchRow struct {
	Row        int               `json:"row"`
	Name       string            `json:"name"`
	Matched    bool              `json:"matched"`
	Entry      *model.CatalogRef `json:"entry,omitempty"`
	Confidence int               `json:"confidence,omitempty"`
	Method     string            `json:"method,omitempty"`
}

type batchResponse struct {
	Rows    []batchRow `json:"rows"`
	Total   int        `json:"total"`
	Matched int        `json:"matched"`
	Cached  int        `json:"cached"`
}

// ResolveBatch — импортный конвейер: таблица (xlsx/xls/csv) + колонка с
// наименованием, по одному Resolve на строку.
func ResolveBatch(cfg config.Config, res *service.Resolver, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer r.Body.Close()

		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
			return
		}
		defer file.Close()

		source := strings.TrimSpace(r.FormValue("source"))
		if source == "" {
			writeError(w, http.StatusBadRequest, "source is required")
			return
		}
		nameCol := r.FormValue("name")
		if nameCol == "" {
			nameCol = "Наименование|Номенклатура|name"
		}

		recs, err := fileio.ReadAnyMaps(file, header.Filename, atoi(r.FormValue("header_row"), 1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read file: "+err.Error())
			return
		}

		resp := batchResponse{Rows: make([]batchRow, 0, len(recs))}
		for i, rec := range recs {
			name := strings.TrimSpace(rec[resolveKey(rec, nameCol)])
			if name == "" {
				continue
			}
			resp.Total++

			rs, err := res.Resolve(r.Context(), name, source)
			if err != nil {
				logger.Error().Err(err).Str("rid", requestID(r)).Int("row", i+1).Msg("batch resolve")
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}

			br := batchRow{Row: i + 1, Name: name}
			if rs != nil {
				ref := rs.Ref
				br.Matched, br.Entry, br.Confidence, br.Method = true, &ref, rs.Confidence, rs.Method
				resp.Matched++
				if rs.Method == model.MethodCache {
					resp.Cached++
				}
			}
			resp.Rows = append(resp.Rows, br)
		}

		writeJSON(w, resp)
		logger.Info().
			Str("rid", requestID(r)).
			Str("source", source).
			Int("total", resp.Total).
			Int("matched", resp.Matched).
			Int("cached", resp.Cached).
			Dur("elapsed", time.Since(start)).
			Msg("batch resolve done")
	}
}

// Candidates — ранжированный список без порога и вето; операторская
// отладка спорных имён.
func Candidates(res *service.Resolver, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name  string `json:"name"`
			Limit int    `json:"limit"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if req.Limit <= 0 {
			req.Limit = 10
		}
		cands, err := res.Candidates(r.Context(), req.Name, req.Limit)
		if err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("candidates")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"candidates": cands})
	}
}

// ListMappings — операторский просмотр сохранённых соответствий.
func ListMappings(st *store.Store, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ms, err := st.ListMappings(r.Context(), r.URL.Query().Get("source"))
		if err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("list mappings")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"mappings": ms})
	}
}

type putMappingRequest struct {
	Name       string          `json:"name"`
	Source     string          `json:"source"`
	EntryID    int64           `json:"entryId"`
	EntryKind  model.EntryKind `json:"entryKind"`
	Confidence int             `json:"confidence"`
}

// PutMapping — ручная правка оператора; перекрывает автоматику и
// помечается manual, чтобы автоматика её не перетёрла.
func PutMapping(res *service.Resolver, st *store.Store, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putMappingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		norm := res.Normalize(req.Name)
		if norm == "" || strings.TrimSpace(req.Source) == "" {
			writeError(w, http.StatusBadRequest, "name and source are required")
			return
		}
		if req.EntryKind != model.KindComponent && req.EntryKind != model.KindProduct {
			writeError(w, http.StatusBadRequest, "entryKind must be component or product")
			return
		}
		m := model.Mapping{
			ExternalName: req.Name,
			NameNorm:     norm,
			Source:       req.Source,
			EntryID:      req.EntryID,
			EntryKind:    req.EntryKind,
			Confidence:   req.Confidence,
			Manual:       true,
		}
		if err := st.UpsertManual(r.Context(), m); err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("put mapping")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

// DeleteMapping — удаление неверного соответствия; следующее разрешение
// этого имени пойдёт полным конвейером.
func DeleteMapping(res *service.Resolver, st *store.Store, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		norm := res.Normalize(r.URL.Query().Get("name"))
		source := r.URL.Query().Get("source")
		if norm == "" || source == "" {
			writeError(w, http.StatusBadRequest, "name and source are required")
			return
		}
		if err := st.Delete(r.Context(), norm, source); err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("delete mapping")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	}
}

// CatalogReload — полная перезагрузка локальной read-модели каталога;
// кэш профилей сбрасывается сразу, чтобы следующий Resolve увидел свежее.
func CatalogReload(res *service.Resolver, st *store.Store, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []model.CatalogEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		for _, e := range entries {
			if e.Kind != model.KindComponent && e.Kind != model.KindProduct {
				writeError(w, http.StatusBadRequest, "kind must be component or product")
				return
			}
		}
		if err := st.ReplaceEntries(r.Context(), entries); err != nil {
			logger.Error().Err(err).Str("rid", requestID(r)).Msg("catalog reload")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		res.Invalidate()
		logger.Info().Str("rid", requestID(r)).Int("entries", len(entries)).Msg("catalog reloaded")
		writeJSON(w, map[string]any{"ok": true, "entries": len(entries)})
	}
}

func toResponse(rs *model.Resolution) resolveResponse {
	if rs == nil {
		return resolveResponse{}
	}
	ref := rs.Ref
	return resolveResponse{
		Matched:    true,
		Entry:      &ref,
		Confidence: rs.Confidence,
		Method:     rs.Method,
		Reasons:    rs.Reasons,
	}
}
