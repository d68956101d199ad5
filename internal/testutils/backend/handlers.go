package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/common/models"
)

const recentFilesLimit = 10

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}

	s.mu.Lock()
	user, ok := s.store.authenticate(req.Email, req.Password)
	s.mu.Unlock()
	if !ok {
		respondDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.respondToken(w, http.StatusOK, user, "")
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	user, created := s.store.addAccount(req.Name, req.Email, hash)
	issue := s.signupIssuesToken
	s.mu.Unlock()
	if !created {
		respondDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	if issue {
		s.respondToken(w, http.StatusCreated, user, "User created successfully")
		return
	}
	respondJSON(w, http.StatusCreated, models.AuthResponse{User: user, Message: "User created successfully"})
}

func (s *Server) respondToken(w http.ResponseWriter, status int, user models.User, message string) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		logger.Log.WithError(err).Error("failed issuing token")
		respondDetail(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, status, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
		Message:     message,
	})
}

func (s *Server) handleListFactories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Factory{}, s.store.factories...)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFactory(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFactoryRequest
	if !decodeNamed(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.store.factories {
		if strings.EqualFold(f.Name, req.Name) {
			respondDetail(w, http.StatusBadRequest, "Factory already exists")
			return
		}
	}
	respondJSON(w, http.StatusOK, s.store.addFactory(req.Name, req.Description))
}

func (s *Server) handleDeleteFactory(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Factory", s.store.deleteFactory)
}

func (s *Server) handleListAlgorithms(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Algorithm{}, s.store.algorithms...)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListFactoryAlgorithms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.factory(id); !found {
		respondDetail(w, http.StatusNotFound, "Factory not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.algorithmsOf(id))
}

func (s *Server) handleCreateAlgorithm(w http.ResponseWriter, r *http.Request) {
	factoryID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CreateAlgorithmRequest
	if !decodeNamed(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.factory(factoryID); !found {
		respondDetail(w, http.StatusNotFound, "Factory not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.addAlgorithm(factoryID, req.Name, req.Description))
}

func (s *Server) handleDeleteAlgorithm(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Algorithm", s.store.deleteAlgorithm)
}

func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Model{}, s.store.models...)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListAlgorithmModels(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.algorithm(id); !found {
		respondDetail(w, http.StatusNotFound, "Algorithm not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.modelsOf(id))
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	algorithmID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.CreateModelRequest
	if !decodeNamed(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.algorithm(algorithmID); !found {
		respondDetail(w, http.StatusNotFound, "Algorithm not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.addModel(algorithmID, req))
}

func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.UpdateModelRequest
	if !decodeNamed(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.store.model(id)
	if !found {
		respondDetail(w, http.StatusNotFound, "Model not found")
		return
	}
	m := &s.store.models[i]
	m.Name = req.Name
	m.Description = req.Description
	m.Tags = req.Tags
	m.Notes = req.Notes
	respondJSON(w, http.StatusOK, *m)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "Model", s.store.deleteModel)
}

var stageOrder = []models.Stage{models.StageDevelopment, models.StageStaging, models.StageProduction}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	s.moveStage(w, r, 1)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	s.moveStage(w, r, -1)
}

func (s *Server) moveStage(w http.ResponseWriter, r *http.Request, step int) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := s.store.model(id)
	if !found {
		respondDetail(w, http.StatusNotFound, "Model not found")
		return
	}
	m := &s.store.models[i]
	pos := 0
	for p, stage := range stageOrder {
		if stage == m.Stage {
			pos = p
		}
	}
	next := pos + step
	if next < 0 || next >= len(stageOrder) {
		respondDetail(w, http.StatusBadRequest, fmt.Sprintf("Model is already in %s", m.Stage))
		return
	}
	m.Stage = stageOrder[next]
	respondJSON(w, http.StatusOK, *m)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.model(id); !found {
		respondDetail(w, http.StatusNotFound, "Model not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.filesOf(id))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(w, r)
	if !ok {
		return
	}
	fileType, err := models.ParseFileType(r.URL.Query().Get("file_type"))
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		respondDetail(w, http.StatusBadRequest, "unreadable upload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.store.model(modelID); !found {
		respondDetail(w, http.StatusNotFound, "Model not found")
		return
	}
	respondJSON(w, http.StatusOK, s.store.addFile(modelID, header.Filename, fileType, content))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	i, found := s.store.file(id)
	var stored storedFile
	if found {
		stored = s.store.files[i]
	}
	s.mu.Unlock()
	if !found {
		respondDetail(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stored.meta.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(stored.content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(stored.content)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, "File", s.store.deleteFile)
}

func (s *Server) handleRecentFiles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.store.recentFiles(recentFilesLimit)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	stats := models.DashboardStats{
		Factories:  len(s.store.factories),
		Algorithms: len(s.store.algorithms),
		Models:     len(s.store.models),
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleModelsPerFactory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ModelsPerFactory{}
	for _, f := range s.store.factories {
		count := 0
		for _, a := range s.store.algorithmsOf(f.ID) {
			count += len(s.store.modelsOf(a.ID))
		}
		out = append(out, models.ModelsPerFactory{Factory: f.Name, Count: count})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleModelsPerAlgorithm(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ModelsPerAlgorithm{}
	for _, a := range s.store.algorithms {
		out = append(out, models.ModelsPerAlgorithm{Algorithm: a.Name, Count: len(s.store.modelsOf(a.ID))})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, kind string, remove func(int64) bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	removed := remove(id)
	s.mu.Unlock()
	if !removed {
		respondDetail(w, http.StatusNotFound, kind+" not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": kind + " deleted"})
}

type namedRequest interface {
	RequestName() string
}

func decodeNamed(w http.ResponseWriter, r *http.Request, req namedRequest) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid payload")
		return false
	}
	if strings.TrimSpace(req.RequestName()) == "" {
		respondDetail(w, http.StatusUnprocessableEntity, "name is required")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
