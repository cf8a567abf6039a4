package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sistema-contabil/config"
	"sistema-contabil/models"
	"sistema-contabil/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database representa a conexão com o banco de dados
type Database struct {
	DB *gorm.DB
}

// NewDatabase abre a conexão, aplica as migrações e configura o pool
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("erro ao conectar ao banco de dados: %w", err)
	}

	// Configura o pool de conexões
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter o pool de conexões: %w", err)
	}
	if cfg.DB.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Migrações SQL só existem para o postgres
	if cfg.DB.Driver == "postgres" {
		if err := runMigrations(cfg); err != nil {
			return nil, fmt.Errorf("erro ao executar migrações SQL: %w", err)
		}
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return &Database{DB: db}, nil
}

// dialector escolhe o driver GORM conforme a configuração
func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DB.Driver == "sqlite" {
		return sqlite.Open(cfg.DB.SQLitePath + "?_foreign_keys=on")
	}
	return postgres.Open(postgresDSN(cfg))
}

func postgresDSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)
}

// runMigrations executa as migrações SQL do diretório configurado
func runMigrations(cfg *config.Config) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	m, err := migrate.New(cfg.DB.MigrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("erro ao criar migração: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	return nil
}

// AutoMigrate sincroniza o esquema com os modelos
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("erro na migração automática: %w", err)
	}
	return nil
}

// Ping verifica se o banco está acessível
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close fecha a conexão com o banco de dados
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zapWriter encaminha o log do GORM para o logger da aplicação
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	utils.LogWarn(format, args...)
}

func newGormLogger() logger.Interface {
	return logger.New(zapWriter{}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
