package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sistema-contabil/config"

	"github.com/google/uuid"
)

// ErrObjectNotFound indica que o arquivo não existe no armazenamento
var ErrObjectNotFound = errors.New("arquivo não encontrado no armazenamento")

// Storage guarda os arquivos enviados pelos clientes
type Storage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// New cria o armazenamento configurado
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocalStorage(cfg.Storage.LocalDir)
	case "minio", "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("backend de armazenamento não suportado: %s", cfg.Storage.Backend)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SecureFilename remove caminhos e caracteres inseguros de um nome de arquivo
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "arquivo"
	}
	return name
}

// ObjectKey gera uma chave única para o arquivo de um cliente
func ObjectKey(clienteID uint, filename string) string {
	return fmt.Sprintf("%d/%s_%s", clienteID, uuid.NewString(), SecureFilename(filename))
}

// localStorage grava os arquivos em um diretório local
type localStorage struct {
	baseDir string
}

// NewLocalStorage cria um armazenamento em disco no diretório informado
func NewLocalStorage(baseDir string) (Storage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("erro ao criar diretório de uploads: %w", err)
	}
	return &localStorage{baseDir: baseDir}, nil
}

func (s *localStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("chave inválida: %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func (s *localStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("erro ao criar diretório: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("erro ao salvar arquivo: %w", err)
	}
	return nil
}

func (s *localStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao ler arquivo: %w", err)
	}
	return data, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("erro ao remover arquivo: %w", err)
	}
	return nil
}
