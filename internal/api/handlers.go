package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ytetl/internal/ingest"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/internal/validation"
)

const (
	codeInvalid    = "ERROR_VALIDACIO"
	codeDuplicate  = "ERROR_DUPLICAT"
	codeForeignKey = "ERROR_CLAU_FORANA"
	codeDatabase   = "ERROR_BASE_DADES"
	codeNotFound   = "RECURS_NO_TROBAT"
	codeSource     = "ERROR_DADES_FONT"
	codeInternal   = "ERROR_INTERN"
)

type envelope struct {
	OK       bool   `json:"ok"`
	Missatge string `json:"missatge"`
	Resultat any    `json:"resultat"`
}

type errorBody struct {
	OK       bool         `json:"ok"`
	Codi     string       `json:"codi"`
	Missatge string       `json:"missatge"`
	Detalls  []FieldError `json:"detalls,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeOK(w http.ResponseWriter, status int, msg string, result any) {
	writeJSON(w, status, envelope{OK: true, Missatge: msg, Resultat: result})
}

// writeError maps err onto a status code and error body. msg overrides the
// default message for not-found errors.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	body := errorBody{Codi: codeInternal, Missatge: "Error intern del servidor"}
	status := http.StatusInternalServerError

	var ie *InputError
	if errors.As(err, &ie) {
		body.Detalls = ie.Fields
	}
	switch {
	case errors.Is(err, ErrNotFound):
		status, body.Codi, body.Missatge = http.StatusNotFound, codeNotFound, msg
		if msg == "" {
			body.Missatge = "Recurs no trobat"
		}
	case errors.Is(err, ErrDuplicate):
		status, body.Codi = http.StatusConflict, codeDuplicate
		body.Missatge = "Ja existeix un registre amb aquestes dades"
		if msg != "" {
			body.Missatge = msg
		}
	case errors.Is(err, ErrForeignKey):
		status, body.Codi, body.Missatge = http.StatusBadRequest, codeForeignKey, "Referència a un registre inexistent"
	case errors.Is(err, ErrInvalid):
		status, body.Codi, body.Missatge = http.StatusBadRequest, codeInvalid, "Error de validació"
	case errors.Is(err, ingest.ErrSourceMissing), errors.Is(err, pcsv.ErrMalformed),
		errors.Is(err, validation.ErrMissingDataset):
		body.Codi, body.Missatge = codeSource, "No s'han pogut validar les dades: "+err.Error()
	case isDriverError(err):
		body.Codi, body.Missatge = codeDatabase, "Error de base de dades"
	}
	if status >= http.StatusInternalServerError {
		log.Printf("api: %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("id", fmt.Sprintf("identificador no vàlid: %q", raw))
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return invalid("body", "JSON no vàlid: "+err.Error())
	}
	return nil
}

func (s *Server) listYoutubers(w http.ResponseWriter, r *http.Request) {
	ys, err := s.store.ListYoutubers(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeOK(w, http.StatusOK, "Youtubers obtinguts amb èxit", ys)
}

func (s *Server) getYoutuber(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	y, err := s.store.GetYoutuber(r.Context(), id)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap youtuber amb l'ID: %d", id))
		return
	}
	writeOK(w, http.StatusOK, "Youtuber obtingut amb èxit", y)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	p, err := s.store.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap perfil per al youtuber amb l'ID: %d", id))
		return
	}
	writeOK(w, http.StatusOK, "Perfil obtingut amb èxit", p)
}

func (s *Server) youtuberVideos(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	y, vs, err := s.store.VideosByYoutuber(r.Context(), id)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap youtuber amb l'ID: %d", id))
		return
	}
	writeOK(w, http.StatusOK, "Vídeos obtinguts amb èxit", map[string]any{
		"youtuber": YoutuberRef{ID: y.ID, NomCanal: y.NomCanal, NomYoutuber: y.NomYoutuber},
		"videos":   vs,
	})
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	vs, err := s.store.ListVideos(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeOK(w, http.StatusOK, "Vídeos obtinguts amb èxit", vs)
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	v, err := s.store.GetVideo(r.Context(), id)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap vídeo amb l'ID: %d", id))
		return
	}
	writeOK(w, http.StatusOK, "Vídeo obtingut amb èxit", v)
}

func (s *Server) videoCategories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	cs, err := s.store.VideoCategories(r.Context(), id)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap vídeo amb l'ID: %d", id))
		return
	}
	writeOK(w, http.StatusOK, "Categories obtingudes amb èxit", cs)
}

func (s *Server) createVideo(w http.ResponseWriter, r *http.Request) {
	var in NewVideo
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	v, err := s.store.CreateVideo(r.Context(), in)
	if err != nil {
		writeError(w, r, err, fmt.Sprintf("No s'ha trobat cap youtuber amb l'ID: %d", in.YoutuberID))
		return
	}
	writeOK(w, http.StatusCreated, "Vídeo creat amb èxit", v)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeOK(w, http.StatusOK, "Categories obtingudes amb èxit", cs)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in NewUser
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, "")
		return
	}
	u, err := s.store.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Ja existeix un usuari amb aquest nom d'usuari o email")
		return
	}
	writeOK(w, http.StatusCreated, "Usuari creat amb èxit", u)
}

func (s *Server) runValidation(w http.ResponseWriter, r *http.Request) {
	if s.validate == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Codi: codeInternal, Missatge: "Validació no disponible"})
		return
	}
	rep, err := s.validate(r.Context())
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	msg := "Validació completada sense incidències"
	if !rep.Summary.Clean() {
		msg = "Validació completada amb incidències"
	}
	writeOK(w, http.StatusOK, msg, rep)
}
