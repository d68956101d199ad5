package backend

import (
	"github.com/nexusforge/console/pkg/common/models"
)

// AddUser registers an account directly, bypassing signup.
func (s *Server) AddUser(name, email, password string) models.User {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, _ := s.store.addAccount(name, email, hash)
	return user
}

func (s *Server) AddFactory(name string) models.Factory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.addFactory(name, "")
}

func (s *Server) AddAlgorithm(factoryID int64, name string) models.Algorithm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.addAlgorithm(factoryID, name, "")
}

func (s *Server) AddModel(algorithmID int64, name string, stage models.Stage) models.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.addModel(algorithmID, models.CreateModelRequest{Name: name, VersionNumber: 1, Stage: stage})
}

func (s *Server) AddFile(modelID int64, name string, fileType models.FileType, content []byte) models.ModelFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.addFile(modelID, name, fileType, content)
}

func (s *Server) Factories() []models.Factory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Factory(nil), s.store.factories...)
}

func (s *Server) Algorithms() []models.Algorithm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Algorithm(nil), s.store.algorithms...)
}

func (s *Server) Models() []models.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Model(nil), s.store.models...)
}

func (s *Server) Files(modelID int64) []models.ModelFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.filesOf(modelID)
}

// FileContent returns the stored bytes of an uploaded file.
func (s *Server) FileContent(id int64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.store.file(id)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), s.store.files[i].content...), true
}
