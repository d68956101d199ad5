package models

import (
	"fmt"
	"strings"
	"time"
)

// Registry entities
type Factory struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatedAt   Timestamp   `json:"created_at"`
	Algorithms  []Algorithm `json:"algorithms,omitempty"`
}

func (f Factory) ItemID() int64    { return f.ID }
func (f Factory) ItemName() string { return f.Name }

type Algorithm struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FactoryID   int64     `json:"factory_id,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	Models      []Model   `json:"models,omitempty"`
}

func (a Algorithm) ItemID() int64    { return a.ID }
func (a Algorithm) ItemName() string { return a.Name }

type Stage string

const (
	StageDevelopment Stage = "development"
	StageStaging     Stage = "staging"
	StageProduction  Stage = "production"
)

func ParseStage(s string) (Stage, error) {
	switch stage := Stage(strings.ToLower(strings.TrimSpace(s))); stage {
	case StageDevelopment, StageStaging, StageProduction:
		return stage, nil
	case "":
		return StageDevelopment, nil
	default:
		return "", fmt.Errorf("unknown stage %q", s)
	}
}

type Model struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	AlgorithmID   int64       `json:"algorithm_id,omitempty"`
	VersionNumber int         `json:"version_number,omitempty"`
	Stage         Stage       `json:"stage,omitempty"`
	Tags          string      `json:"tags,omitempty"`  // comma separated
	Notes         string      `json:"notes,omitempty"` // newline separated
	CreatedAt     Timestamp   `json:"created_at"`
	Files         []ModelFile `json:"files,omitempty"`
}

func (m Model) ItemID() int64    { return m.ID }
func (m Model) ItemName() string { return m.Name }

func (m Model) TagList() []string {
	return splitNonEmpty(m.Tags, ",")
}

func (m Model) NoteList() []string {
	return splitNonEmpty(m.Notes, "\n")
}

type FileType string

const (
	FileTypeDataset    FileType = "dataset"
	FileTypeModelFile  FileType = "model_file"
	FileTypeMetrics    FileType = "metrics"
	FileTypePythonCode FileType = "python_code"
)

var FileTypes = []FileType{FileTypeDataset, FileTypeModelFile, FileTypeMetrics, FileTypePythonCode}

func ParseFileType(s string) (FileType, error) {
	ft := FileType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FileTypes {
		if ft == known {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown file type %q", s)
}

type ModelFile struct {
	ID        int64     `json:"id"`
	ModelID   int64     `json:"model_id,omitempty"`
	FileName  string    `json:"file_name"`
	FileType  FileType  `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	FilePath  string    `json:"file_path"`
	CreatedAt Timestamp `json:"created_at"`
}

// Auth
type User struct {
	ID    int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
	Message     string `json:"message,omitempty"`
}

// Mutation payloads
type CreateFactoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CreateFactoryRequest) RequestName() string { return r.Name }

type CreateAlgorithmRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r CreateAlgorithmRequest) RequestName() string { return r.Name }

type CreateModelRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	VersionNumber int    `json:"version_number"`
	Stage         Stage  `json:"stage"`
	Notes         string `json:"notes,omitempty"`
	Tags          string `json:"tags,omitempty"`
}

func (r CreateModelRequest) RequestName() string { return r.Name }

type UpdateModelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	Notes       string `json:"notes"`
}

func (r UpdateModelRequest) RequestName() string { return r.Name }

// Dashboard
type DashboardStats struct {
	Factories  int `json:"factories"`
	Algorithms int `json:"algorithms"`
	Models     int `json:"models"`
}

type ModelsPerFactory struct {
	Factory string `json:"factory"`
	Count   int    `json:"count"`
}

type ModelsPerAlgorithm struct {
	Algorithm string `json:"algorithm"`
	Count     int    `json:"count"`
}

// Push notifications. Message and Type come from the wire; the rest is
// assigned on receipt.
type Notification struct {
	ID         string    `json:"-"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	Read       bool      `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
