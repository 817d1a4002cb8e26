package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config representa a estrutura completa do config.yaml
type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Port        string `yaml:"port"`
		MetricsPort string `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Nats struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Meilisearch struct {
		Host  string `yaml:"host"`
		Key   string `yaml:"key"`
		Index string `yaml:"index"`
	} `yaml:"meilisearch"`

	// Fonte externa de vídeos (Pexels)
	Pexels struct {
		Key     string `yaml:"key"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"pexels"`

	// Parâmetros do pool de vídeos e da varredura de reposição
	Pool struct {
		LowWatermark     int      `yaml:"low_watermark"`
		HighWatermark    int      `yaml:"high_watermark"`
		Queries          []string `yaml:"queries"`
		MaxPagesPerQuery int      `yaml:"max_pages_per_query"`
		PageSize         int      `yaml:"page_size"`
		RequestDelayMs   int      `yaml:"request_delay_ms"`
		MaxAspectRatio   float64  `yaml:"max_aspect_ratio"`
		RetentionDays    int      `yaml:"retention_days"`
		SweepIntervalMin int      `yaml:"sweep_interval_minutes"`
	} `yaml:"pool"`

	WhatsApp struct {
		Token   string `yaml:"token"`
		PhoneID string `yaml:"phone_id"`
	} `yaml:"whatsapp"`
}

func LoadConfig() *Config {
	// 1. Tenta pegar via Variável de Ambiente (Docker/Prod)
	configPath := os.Getenv("CONFIG_PATH")

	// 2. Se não tiver, tenta achar "subindo" pastas (Local Dev)
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		} else if _, err := os.Stat("../../config/config.yaml"); err == nil {
			// Útil quando rodamos 'go run' de dentro de cmd/
			configPath = "../../config/config.yaml"
		}
	}

	absPath, _ := filepath.Abs(configPath)
	log.Printf("Carregando config de: %s", absPath)

	var cfg Config
	f, err := os.Open(configPath)
	if err != nil {
		log.Printf("Aviso: config.yaml não encontrado (%v). Usando padrões/env vars.", err)
	} else {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("Erro ao decodificar YAML: %v", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.MetricsPort == "" {
		c.Server.MetricsPort = ":9101"
	}
	if c.Pool.LowWatermark == 0 {
		c.Pool.LowWatermark = 50
	}
	if c.Pool.HighWatermark == 0 {
		c.Pool.HighWatermark = 200
	}
	if len(c.Pool.Queries) == 0 {
		c.Pool.Queries = []string{"nature", "people", "city", "animals", "food"}
	}
	if c.Pool.MaxPagesPerQuery == 0 {
		c.Pool.MaxPagesPerQuery = 5
	}
	if c.Pool.PageSize == 0 {
		c.Pool.PageSize = 15
	}
	if c.Pool.RequestDelayMs == 0 {
		c.Pool.RequestDelayMs = 1000
	}
	if c.Pool.MaxAspectRatio == 0 {
		// Só aceitamos vídeo vertical: largura/altura abaixo de 0.7
		c.Pool.MaxAspectRatio = 0.7
	}
	if c.Pool.RetentionDays == 0 {
		c.Pool.RetentionDays = 7
	}
	if c.Pool.SweepIntervalMin == 0 {
		c.Pool.SweepIntervalMin = 30
	}
}

// applyEnvOverrides mantém compatibilidade com o deploy antigo via .env
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		c.Nats.URL = v
	}
	if v := os.Getenv("PEXELS_API_KEY"); v != "" {
		c.Pexels.Key = v
	}
	if v := os.Getenv("WHATSAPP_TOKEN"); v != "" {
		c.WhatsApp.Token = v
	}
	if v := os.Getenv("WHATSAPP_PHONE_ID"); v != "" {
		c.WhatsApp.PhoneID = v
	}
}

// RequestDelay converte o delay configurado em Duration.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.Pool.RequestDelayMs) * time.Millisecond
}

// Retention retorna a janela de retenção de vídeos consumidos.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Pool.RetentionDays) * 24 * time.Hour
}
