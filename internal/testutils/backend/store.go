package backend

import (
	"sort"
	"strings"
	"time"

	"github.com/nexusforge/console/pkg/common/models"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user models.User
	hash []byte
}

type storedFile struct {
	meta    models.ModelFile
	content []byte
}

// store is guarded by Server.mu.
type store struct {
	nextID     int64
	clock      time.Time
	accounts   map[string]*account
	factories  []models.Factory
	algorithms []models.Algorithm
	models     []models.Model
	files      []storedFile
}

func newStore() *store {
	return &store{
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		accounts: make(map[string]*account),
	}
}

func (st *store) id() int64 {
	st.nextID++
	return st.nextID
}

// now advances one second per call so creation order is visible in
// created_at.
func (st *store) now() models.Timestamp {
	st.clock = st.clock.Add(time.Second)
	return models.Timestamp{Time: st.clock}
}

// hashPassword uses the minimum bcrypt cost; accounts only live for one
// test.
func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func (st *store) addAccount(name, email string, hash []byte) (models.User, bool) {
	key := strings.ToLower(email)
	if _, exists := st.accounts[key]; exists {
		return models.User{}, false
	}
	user := models.User{ID: st.id(), Name: name, Email: email}
	st.accounts[key] = &account{user: user, hash: hash}
	return user, true
}

func (st *store) authenticate(email, password string) (models.User, bool) {
	acc, ok := st.accounts[strings.ToLower(email)]
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return models.User{}, false
	}
	return acc.user, true
}

func (st *store) factory(id int64) (int, bool) {
	for i, f := range st.factories {
		if f.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *store) algorithm(id int64) (int, bool) {
	for i, a := range st.algorithms {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *store) model(id int64) (int, bool) {
	for i, m := range st.models {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *store) file(id int64) (int, bool) {
	for i, f := range st.files {
		if f.meta.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *store) addFactory(name, description string) models.Factory {
	f := models.Factory{ID: st.id(), Name: name, Description: description, CreatedAt: st.now()}
	st.factories = append(st.factories, f)
	return f
}

func (st *store) addAlgorithm(factoryID int64, name, description string) models.Algorithm {
	a := models.Algorithm{ID: st.id(), FactoryID: factoryID, Name: name, Description: description, CreatedAt: st.now()}
	st.algorithms = append(st.algorithms, a)
	return a
}

func (st *store) addModel(algorithmID int64, req models.CreateModelRequest) models.Model {
	stage := req.Stage
	if stage == "" {
		stage = models.StageDevelopment
	}
	m := models.Model{
		ID:            st.id(),
		AlgorithmID:   algorithmID,
		Name:          req.Name,
		Description:   req.Description,
		VersionNumber: req.VersionNumber,
		Stage:         stage,
		Tags:          req.Tags,
		Notes:         req.Notes,
		CreatedAt:     st.now(),
	}
	st.models = append(st.models, m)
	return m
}

func (st *store) addFile(modelID int64, name string, fileType models.FileType, content []byte) models.ModelFile {
	id := st.id()
	meta := models.ModelFile{
		ID:        id,
		ModelID:   modelID,
		FileName:  name,
		FileType:  fileType,
		FileSize:  int64(len(content)),
		FilePath:  "uploads/" + name,
		CreatedAt: st.now(),
	}
	st.files = append(st.files, storedFile{meta: meta, content: append([]byte(nil), content...)})
	return meta
}

func (st *store) deleteFactory(id int64) bool {
	i, ok := st.factory(id)
	if !ok {
		return false
	}
	st.factories = append(st.factories[:i], st.factories[i+1:]...)
	for _, a := range st.algorithmsOf(id) {
		st.deleteAlgorithm(a.ID)
	}
	return true
}

func (st *store) deleteAlgorithm(id int64) bool {
	i, ok := st.algorithm(id)
	if !ok {
		return false
	}
	st.algorithms = append(st.algorithms[:i], st.algorithms[i+1:]...)
	for _, m := range st.modelsOf(id) {
		st.deleteModel(m.ID)
	}
	return true
}

func (st *store) deleteModel(id int64) bool {
	i, ok := st.model(id)
	if !ok {
		return false
	}
	st.models = append(st.models[:i], st.models[i+1:]...)
	kept := st.files[:0]
	for _, f := range st.files {
		if f.meta.ModelID != id {
			kept = append(kept, f)
		}
	}
	st.files = kept
	return true
}

func (st *store) deleteFile(id int64) bool {
	i, ok := st.file(id)
	if !ok {
		return false
	}
	st.files = append(st.files[:i], st.files[i+1:]...)
	return true
}

func (st *store) algorithmsOf(factoryID int64) []models.Algorithm {
	out := []models.Algorithm{}
	for _, a := range st.algorithms {
		if a.FactoryID == factoryID {
			out = append(out, a)
		}
	}
	return out
}

func (st *store) modelsOf(algorithmID int64) []models.Model {
	out := []models.Model{}
	for _, m := range st.models {
		if m.AlgorithmID == algorithmID {
			out = append(out, m)
		}
	}
	return out
}

func (st *store) filesOf(modelID int64) []models.ModelFile {
	out := []models.ModelFile{}
	for _, f := range st.files {
		if f.meta.ModelID == modelID {
			out = append(out, f.meta)
		}
	}
	return out
}

func (st *store) recentFiles(limit int) []models.ModelFile {
	out := make([]models.ModelFile, 0, len(st.files))
	for _, f := range st.files {
		out = append(out, f.meta)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
